// Package query filters issue snapshots for list and board views.
//
// Everything here is a pure function over an immutable snapshot: inputs are
// never mutated and the output keeps the input order.
package query

import (
	"strings"

	"github.com/andreisalomia/mini-jira/internal/types"
)

// Assignee predicate values.
const (
	AssigneeAny        = ""
	AssigneeUnassigned = "unassigned"
	AssigneeMe         = "me"
)

// Filter is a conjunction of optional predicates. A zero Filter matches
// every issue.
type Filter struct {
	Search   string         // Case-insensitive substring of title or description
	Priority types.Priority // Exact match; empty matches all
	Assignee string         // "", "unassigned" or "me"
	Status   types.Status   // Exact match; empty matches all
}

// IsEmpty reports whether the filter passes everything through.
func (f Filter) IsEmpty() bool {
	return strings.TrimSpace(f.Search) == "" && f.Priority == "" && f.Assignee == AssigneeAny && f.Status == ""
}

// ParseFilter builds a Filter from raw user input, validating enum values.
func ParseFilter(search, priority, assignee, status string) (Filter, error) {
	f := Filter{Search: strings.TrimSpace(search)}

	if strings.TrimSpace(priority) != "" {
		p, err := types.ParsePriority(priority)
		if err != nil {
			return Filter{}, err
		}
		f.Priority = p
	}

	switch a := strings.ToLower(strings.TrimSpace(assignee)); a {
	case AssigneeAny, AssigneeUnassigned, AssigneeMe:
		f.Assignee = a
	default:
		return Filter{}, types.Errorf(types.ReasonValidation, "invalid assignee filter %q (expected unassigned or me)", assignee)
	}

	if strings.TrimSpace(status) != "" {
		s, err := types.ParseStatus(status)
		if err != nil {
			return Filter{}, err
		}
		f.Status = s
	}
	return f, nil
}

// predicate decides whether one issue stays in the result.
type predicate func(*types.Issue) bool

// predicates returns the active predicates in evaluation order:
// search, priority, assignee, status.
func (f Filter) predicates(callerID string) []predicate {
	var preds []predicate

	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" {
		preds = append(preds, func(i *types.Issue) bool {
			return strings.Contains(strings.ToLower(i.Title), search) ||
				strings.Contains(strings.ToLower(i.Description), search)
		})
	}

	if f.Priority != "" {
		preds = append(preds, func(i *types.Issue) bool { return i.Priority == f.Priority })
	}

	switch f.Assignee {
	case AssigneeUnassigned:
		preds = append(preds, func(i *types.Issue) bool { return !i.IsAssigned() })
	case AssigneeMe:
		// An anonymous caller owns nothing.
		preds = append(preds, func(i *types.Issue) bool { return callerID != "" && i.AssigneeID == callerID })
	}

	if f.Status != "" {
		preds = append(preds, func(i *types.Issue) bool { return i.Status == f.Status })
	}
	return preds
}

// Apply returns the issues of snapshot matching every predicate of f, in
// input order. callerID resolves the "me" assignee predicate. The returned
// slice is new; the issues themselves are shared with snapshot.
func Apply(snapshot []*types.Issue, f Filter, callerID string) []*types.Issue {
	preds := f.predicates(callerID)
	out := make([]*types.Issue, 0, len(snapshot))
next:
	for _, issue := range snapshot {
		for _, keep := range preds {
			if !keep(issue) {
				continue next
			}
		}
		out = append(out, issue)
	}
	return out
}
