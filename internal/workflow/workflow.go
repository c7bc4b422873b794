// Package workflow owns the issue status state machine and the edit
// capability rules.
//
// State machine:
//
//	OPEN ──> IN_PROGRESS ──> DONE
//	  ^           │  ^         │
//	  └───────────┘  └─────────┘
//
// IN_PROGRESS -> DONE is reserved to the assignee. Every other move is open
// to the reporter and the assignee. Nothing else is reachable in one step.
package workflow

import (
	"github.com/andreisalomia/mini-jira/internal/types"
)

// transitions lists the legal single-step moves.
var transitions = map[types.Status][]types.Status{
	types.StatusOpen:       {types.StatusInProgress},
	types.StatusInProgress: {types.StatusOpen, types.StatusDone},
	types.StatusDone:       {types.StatusInProgress},
}

// CanTransition reports whether from -> to is in the transition table.
// It ignores who is asking; see CheckTransition for that.
func CanTransition(from, to types.Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Targets returns the statuses reachable from s in one step.
func Targets(s types.Status) []types.Status {
	out := make([]types.Status, len(transitions[s]))
	copy(out, transitions[s])
	return out
}

// assigneeOnly reports whether the move may only be made by the assignee.
func assigneeOnly(from, to types.Status) bool {
	return from == types.StatusInProgress && to == types.StatusDone
}

// CanEdit is the capability gate: only the reporter and the current
// assignee may mutate an issue.
func CanEdit(issue *types.Issue, callerID string) bool {
	if callerID == "" {
		return false
	}
	return callerID == issue.ReporterID || (issue.IsAssigned() && callerID == issue.AssigneeID)
}

// CheckTransition validates moving issue to status to on behalf of callerID.
// The caller's edit capability is checked separately by CanEdit.
func CheckTransition(issue *types.Issue, to types.Status, callerID string) error {
	from := issue.Status
	if !CanTransition(from, to) {
		return types.Errorf(types.ReasonInvalidTransition, "cannot move %s from %s to %s", issue.ID, from, to)
	}
	if assigneeOnly(from, to) {
		if !issue.IsAssigned() {
			return types.Errorf(types.ReasonInvalidTransition, "cannot move %s to %s: issue is unassigned", issue.ID, to)
		}
		if callerID != issue.AssigneeID {
			return types.Errorf(types.ReasonInvalidTransition, "only the assignee can move %s to %s", issue.ID, to)
		}
	}
	return nil
}
