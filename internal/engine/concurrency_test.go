package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/andreisalomia/mini-jira/internal/clock"
	"github.com/andreisalomia/mini-jira/internal/types"
)

// Two different fields changed concurrently by the reporter must both land.
func TestConcurrentStatusAndPriority(t *testing.T) {
	backends(t, func(t *testing.T, e *Engine, _ *clock.FakeClock) {
		ctx := context.Background()
		for round := 0; round < 20; round++ {
			issue := createIssue(t, e, "")

			var g errgroup.Group
			g.Go(func() error {
				_, err := e.RequestChange(ctx, issue.ID, "rita", setStatus(types.StatusInProgress))
				return err
			})
			g.Go(func() error {
				_, err := e.RequestChange(ctx, issue.ID, "rita", setPriority(types.PriorityHigh))
				return err
			})
			require.NoError(t, g.Wait())

			got, err := e.GetIssue(ctx, issue.ID, "rita")
			require.NoError(t, err)
			assert.Equal(t, types.StatusInProgress, got.Status)
			assert.Equal(t, types.PriorityHigh, got.Priority)
			assert.ElementsMatch(t,
				[]types.Action{types.ActionCreated, types.ActionStatusChanged, types.ActionFieldChanged},
				auditActions(t, e, issue.ID))
		}
		assert.Zero(t, e.locks.size(), "idle lock entries must be released")
	})
}

// Racing identical transitions: exactly one wins, the other is re-evaluated
// against the new status and becomes a no-op.
func TestConcurrentSameTransition(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()
	issue := createIssue(t, e, "dev")

	const workers = 8
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			_, err := e.RequestChange(ctx, issue.ID, "dev", setStatus(types.StatusInProgress))
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, []types.Action{types.ActionCreated, types.ActionStatusChanged}, auditActions(t, e, issue.ID))
}

// Competing toggles are serialized: every success is a legal step from the
// state the previous commit left behind.
func TestConcurrentTogglesStayConsistent(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()
	issue := createIssue(t, e, "dev")

	var ok atomic.Int32
	var g errgroup.Group
	for i := 0; i < 20; i++ {
		target := types.StatusInProgress
		if i%2 == 1 {
			target = types.StatusOpen
		}
		g.Go(func() error {
			_, err := e.RequestChange(ctx, issue.ID, "rita", setStatus(target))
			if err == nil {
				ok.Add(1)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	entries, err := e.ListAudit(ctx, issue.ID, "rita")
	require.NoError(t, err)
	prev := types.StatusOpen
	for _, entry := range entries[1:] {
		require.Equal(t, types.ActionStatusChanged, entry.Action)
		assert.Equal(t, string(prev), *entry.OldValue, "each change starts from the last committed status")
		prev = types.Status(*entry.NewValue)
	}
	got, err := e.GetIssue(ctx, issue.ID, "rita")
	require.NoError(t, err)
	assert.Equal(t, prev, got.Status)
	assert.Positive(t, ok.Load())
}

// Work on different issues does not wait on each other's locks.
func TestDifferentIssuesDoNotContend(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()
	a := createIssue(t, e, "")
	b := createIssue(t, e, "")

	release, err := e.locks.acquire(ctx, a.ID)
	require.NoError(t, err)
	defer release()

	done := make(chan error, 1)
	go func() {
		_, err := e.RequestChange(ctx, b.ID, "rita", setPriority(types.PriorityLow))
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("change to b blocked on a's lock")
	}

	blocked, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = e.RequestChange(blocked, a.ID, "rita", setPriority(types.PriorityLow))
	require.Error(t, err, "a is held, so the change must wait until the context expires")
}
