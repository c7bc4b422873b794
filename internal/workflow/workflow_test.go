package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andreisalomia/mini-jira/internal/types"
)

func newIssue(status types.Status, assignee string) *types.Issue {
	return &types.Issue{
		ID:         "mj-1",
		ProjectID:  "p1",
		Title:      "Fix login",
		Status:     status,
		Priority:   types.PriorityMedium,
		ReporterID: "reporter",
		AssigneeID: assignee,
	}
}

func TestCanTransitionAllPairs(t *testing.T) {
	valid := map[[2]types.Status]bool{
		{types.StatusOpen, types.StatusInProgress}: true,
		{types.StatusInProgress, types.StatusOpen}: true,
		{types.StatusInProgress, types.StatusDone}: true,
		{types.StatusDone, types.StatusInProgress}: true,
	}

	count := 0
	for _, from := range types.Statuses {
		for _, to := range types.Statuses {
			count++
			want := valid[[2]types.Status{from, to}]
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.Equal(t, 9, count)
}

func TestCheckTransitionAllPairsAsAssignee(t *testing.T) {
	for _, from := range types.Statuses {
		for _, to := range types.Statuses {
			issue := newIssue(from, "dev")
			err := CheckTransition(issue, to, "dev")
			if CanTransition(from, to) {
				assert.NoError(t, err, "%s -> %s", from, to)
			} else {
				assert.True(t, errors.Is(err, types.ErrInvalidTransition), "%s -> %s: %v", from, to, err)
			}
		}
	}
}

func TestDoneIsAssigneeOnly(t *testing.T) {
	tests := []struct {
		name     string
		assignee string
		caller   string
		wantErr  bool
	}{
		{"assignee closes", "dev", "dev", false},
		{"reporter cannot close", "dev", "reporter", true},
		{"unassigned cannot close", "", "reporter", true},
		{"stranger cannot close", "dev", "someone", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckTransition(newIssue(types.StatusInProgress, tt.assignee), types.StatusDone, tt.caller)
			if tt.wantErr {
				assert.True(t, errors.Is(err, types.ErrInvalidTransition), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestReporterMayReopenAndStart(t *testing.T) {
	assert.NoError(t, CheckTransition(newIssue(types.StatusOpen, ""), types.StatusInProgress, "reporter"))
	assert.NoError(t, CheckTransition(newIssue(types.StatusInProgress, "dev"), types.StatusOpen, "reporter"))
	assert.NoError(t, CheckTransition(newIssue(types.StatusDone, "dev"), types.StatusInProgress, "reporter"))
}

func TestCanEdit(t *testing.T) {
	assigned := newIssue(types.StatusOpen, "dev")
	assert.True(t, CanEdit(assigned, "reporter"))
	assert.True(t, CanEdit(assigned, "dev"))
	assert.False(t, CanEdit(assigned, "someone"))
	assert.False(t, CanEdit(assigned, ""))

	unassigned := newIssue(types.StatusOpen, "")
	assert.False(t, CanEdit(unassigned, ""), "empty assignee must never match")
}

func TestTargets(t *testing.T) {
	assert.ElementsMatch(t, []types.Status{types.StatusOpen, types.StatusDone}, Targets(types.StatusInProgress))
	targets := Targets(types.StatusOpen)
	targets[0] = types.StatusDone
	assert.Equal(t, []types.Status{types.StatusInProgress}, Targets(types.StatusOpen), "Targets must return a copy")
}
