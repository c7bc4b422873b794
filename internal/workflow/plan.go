package workflow

import (
	"github.com/andreisalomia/mini-jira/internal/types"
	"github.com/andreisalomia/mini-jira/internal/validation"
)

// FieldChange is one field whose value differs between the stored issue and
// the requested changeset.
type FieldChange struct {
	Field  string
	Action types.Action
	Old    *string // nil when the field was absent (unassigned)
	New    *string
}

// Plan decides whether callerID may apply cs to issue and returns the
// resulting field changes, in a fixed field order. Checks run in this order:
// capability (FORBIDDEN), values (VALIDATION), status transition against the
// current status and assignee (INVALID_TRANSITION).
//
// Fields set to their current value produce no change, so an all-no-op
// changeset returns an empty plan and no error.
func Plan(issue *types.Issue, callerID string, cs types.Changeset) ([]FieldChange, error) {
	if !CanEdit(issue, callerID) {
		return nil, types.Errorf(types.ReasonForbidden, "%s may not modify %s", callerID, issue.ID)
	}

	var changes []FieldChange

	if cs.Title != nil {
		title, err := validation.Title(*cs.Title)
		if err != nil {
			return nil, err
		}
		if title != issue.Title {
			changes = append(changes, fieldChange(types.FieldTitle, issue.Title, title))
		}
	}

	if cs.Description != nil && *cs.Description != issue.Description {
		changes = append(changes, fieldChange(types.FieldDescription, issue.Description, *cs.Description))
	}

	if cs.Priority != nil {
		if !cs.Priority.IsValid() {
			return nil, types.Errorf(types.ReasonValidation, "invalid priority: %s", *cs.Priority)
		}
		if *cs.Priority != issue.Priority {
			changes = append(changes, fieldChange(types.FieldPriority, string(issue.Priority), string(*cs.Priority)))
		}
	}

	if cs.Status != nil {
		if !cs.Status.IsValid() {
			return nil, types.Errorf(types.ReasonValidation, "invalid status: %s", *cs.Status)
		}
		if *cs.Status != issue.Status {
			if err := CheckTransition(issue, *cs.Status, callerID); err != nil {
				return nil, err
			}
			changes = append(changes, FieldChange{
				Field:  types.FieldStatus,
				Action: types.ActionStatusChanged,
				Old:    types.StringPtr(string(issue.Status)),
				New:    types.StringPtr(string(*cs.Status)),
			})
		}
	}

	if cs.AssigneeID != nil && *cs.AssigneeID != issue.AssigneeID {
		changes = append(changes, FieldChange{
			Field:  types.FieldAssignee,
			Action: types.ActionAssigned,
			Old:    optional(issue.AssigneeID),
			New:    optional(*cs.AssigneeID),
		})
	}

	return changes, nil
}

// Apply returns a copy of issue with changes applied. UpdatedAt is left to
// the caller.
func Apply(issue *types.Issue, changes []FieldChange) *types.Issue {
	out := issue.Clone()
	for _, c := range changes {
		v := ""
		if c.New != nil {
			v = *c.New
		}
		switch c.Field {
		case types.FieldTitle:
			out.Title = v
		case types.FieldDescription:
			out.Description = v
		case types.FieldPriority:
			out.Priority = types.Priority(v)
		case types.FieldStatus:
			out.Status = types.Status(v)
		case types.FieldAssignee:
			out.AssigneeID = v
		}
	}
	return out
}

// AssigneeChange returns the requested assignee when the plan reassigns the
// issue, so the caller can verify membership before committing.
func AssigneeChange(changes []FieldChange) (string, bool) {
	for _, c := range changes {
		if c.Field == types.FieldAssignee {
			if c.New == nil {
				return "", true
			}
			return *c.New, true
		}
	}
	return "", false
}

func fieldChange(field, oldVal, newVal string) FieldChange {
	return FieldChange{
		Field:  field,
		Action: types.ActionFieldChanged,
		Old:    types.StringPtr(oldVal),
		New:    types.StringPtr(newVal),
	}
}

// optional maps the empty string to an absent value.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
