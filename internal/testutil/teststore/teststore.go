// Package teststore provides a backend-agnostic conformance suite for
// storage.Storage implementations.
//
// Every backend test package runs the same suite against its own store:
//
//	func TestConformance(t *testing.T) {
//	    teststore.Run(t, func(t *testing.T) storage.Storage { return memory.New() })
//	}
package teststore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreisalomia/mini-jira/internal/storage"
	"github.com/andreisalomia/mini-jira/internal/types"
)

// Factory opens a fresh, empty store for one subtest. The suite closes it.
type Factory func(t *testing.T) storage.Storage

// Base is the fixed timestamp fixtures are stamped with.
var Base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// Issue returns a valid OPEN issue fixture.
func Issue(id, projectID string) *types.Issue {
	return &types.Issue{
		ID:         id,
		ProjectID:  projectID,
		Title:      "Issue " + id,
		Status:     types.StatusOpen,
		Priority:   types.PriorityMedium,
		ReporterID: "u1",
		CreatedAt:  Base,
		UpdatedAt:  Base,
	}
}

// Entry returns an audit entry fixture.
func Entry(id, issueID string, action types.Action, ts time.Time) *types.AuditEntry {
	return &types.AuditEntry{
		ID:        id,
		IssueID:   issueID,
		Action:    action,
		ActorID:   "u1",
		Timestamp: ts,
	}
}

// Put commits issues in one transaction.
func Put(t *testing.T, s storage.Storage, issues ...*types.Issue) {
	t.Helper()
	err := s.RunInTransaction(context.Background(), func(tx storage.Transaction) error {
		for _, issue := range issues {
			if err := tx.PutIssue(context.Background(), issue); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

// Run executes the conformance suite.
func Run(t *testing.T, newStore Factory) {
	open := func(t *testing.T) storage.Storage {
		s := newStore(t)
		t.Cleanup(func() { _ = s.Close() })
		return s
	}

	t.Run("IssueRoundTrip", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		issue := Issue("mj-1", "p1")
		issue.Description = "details"
		issue.AssigneeID = "u3"
		Put(t, s, issue)

		got, err := s.GetIssue(ctx, "mj-1")
		require.NoError(t, err)
		assert.Equal(t, issue.Title, got.Title)
		assert.Equal(t, "details", got.Description)
		assert.Equal(t, "u3", got.AssigneeID)
		assert.Equal(t, types.StatusOpen, got.Status)
		assert.True(t, issue.CreatedAt.Equal(got.CreatedAt))
		assert.Nil(t, got.DeletedAt)
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		_, err := s.GetIssue(ctx, "mj-404")
		assert.True(t, storage.IsNotFound(err), "got %v", err)
		_, err = s.GetComment(ctx, "c-404")
		assert.True(t, storage.IsNotFound(err), "got %v", err)
		entries, err := s.ListAudit(ctx, "mj-404")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("UpdateKeepsCreationOrder", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		Put(t, s, Issue("mj-a", "p1"), Issue("mj-b", "p1"), Issue("mj-c", "p2"))

		updated := Issue("mj-a", "p1")
		updated.Status = types.StatusInProgress
		updated.UpdatedAt = Base.Add(time.Minute)
		Put(t, s, updated)

		issues, err := s.ListIssues(ctx, "p1")
		require.NoError(t, err)
		require.Len(t, issues, 2)
		assert.Equal(t, "mj-a", issues[0].ID)
		assert.Equal(t, types.StatusInProgress, issues[0].Status)
		assert.Equal(t, "mj-b", issues[1].ID)

		all, err := s.ListIssues(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("RollbackOnError", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		Put(t, s, Issue("mj-1", "p1"))

		boom := errors.New("boom")
		err := s.RunInTransaction(ctx, func(tx storage.Transaction) error {
			changed := Issue("mj-1", "p1")
			changed.Title = "changed"
			if err := tx.PutIssue(ctx, changed); err != nil {
				return err
			}
			if err := tx.AppendAudit(ctx, Entry("e1", "mj-1", types.ActionFieldChanged, Base)); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		got, err := s.GetIssue(ctx, "mj-1")
		require.NoError(t, err)
		assert.Equal(t, "Issue mj-1", got.Title)
		entries, err := s.ListAudit(ctx, "mj-1")
		require.NoError(t, err)
		assert.Empty(t, entries, "rolled back audit entries must not be visible")
	})

	t.Run("ReadYourWrites", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		err := s.RunInTransaction(ctx, func(tx storage.Transaction) error {
			if err := tx.PutIssue(ctx, Issue("mj-1", "p1")); err != nil {
				return err
			}
			got, err := tx.GetIssue(ctx, "mj-1")
			if err != nil {
				return err
			}
			assert.Equal(t, "mj-1", got.ID)

			if err := tx.AppendAudit(ctx, Entry("e1", "mj-1", types.ActionCreated, Base)); err != nil {
				return err
			}
			last, err := tx.LastAudit(ctx, "mj-1")
			if err != nil {
				return err
			}
			require.NotNil(t, last)
			assert.Equal(t, "e1", last.ID)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("AuditOrderAndValues", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		Put(t, s, Issue("mj-1", "p1"))

		e1 := Entry("e1", "mj-1", types.ActionCreated, Base)
		e1.NewValue = types.StringPtr("OPEN")
		e2 := Entry("e2", "mj-1", types.ActionStatusChanged, Base.Add(time.Second))
		e2.Field = types.FieldStatus
		e2.OldValue = types.StringPtr("OPEN")
		e2.NewValue = types.StringPtr("IN_PROGRESS")
		// Same timestamp as e2: insertion order breaks the tie.
		e3 := Entry("e3", "mj-1", types.ActionFieldChanged, Base.Add(time.Second))
		e3.Field = types.FieldPriority
		e3.OldValue = types.StringPtr("MEDIUM")
		e3.NewValue = types.StringPtr("")

		require.NoError(t, s.RunInTransaction(ctx, func(tx storage.Transaction) error {
			return tx.AppendAudit(ctx, e1)
		}))
		require.NoError(t, s.RunInTransaction(ctx, func(tx storage.Transaction) error {
			return tx.AppendAudit(ctx, e2, e3)
		}))

		entries, err := s.ListAudit(ctx, "mj-1")
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, []string{"e1", "e2", "e3"}, []string{entries[0].ID, entries[1].ID, entries[2].ID})
		assert.Less(t, entries[0].Seq, entries[1].Seq)
		assert.Less(t, entries[1].Seq, entries[2].Seq)
		assert.Nil(t, entries[0].OldValue)
		require.NotNil(t, entries[1].OldValue)
		assert.Equal(t, "OPEN", *entries[1].OldValue)
		require.NotNil(t, entries[2].NewValue, "empty string must survive as a present value")
		assert.Equal(t, "", *entries[2].NewValue)
		assert.Equal(t, types.FieldPriority, entries[2].Field)
	})

	t.Run("CommentsInInsertionOrder", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		Put(t, s, Issue("mj-1", "p1"))

		comments := []*types.Comment{
			{ID: "c-b", IssueID: "mj-1", AuthorID: "u2", Content: "first", CreatedAt: Base, UpdatedAt: Base},
			{ID: "c-a", IssueID: "mj-1", AuthorID: "u1", Content: "second", CreatedAt: Base, UpdatedAt: Base},
		}
		for _, c := range comments {
			c := c
			require.NoError(t, s.RunInTransaction(ctx, func(tx storage.Transaction) error {
				return tx.PutComment(ctx, c)
			}))
		}

		deleted := comments[0].Clone()
		now := Base.Add(time.Minute)
		deleted.DeletedAt = &now
		require.NoError(t, s.RunInTransaction(ctx, func(tx storage.Transaction) error {
			return tx.PutComment(ctx, deleted)
		}))

		got, err := s.ListComments(ctx, "mj-1")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "c-b", got[0].ID, "update must not move a comment")
		assert.True(t, got[0].IsDeleted())
		assert.Equal(t, "c-a", got[1].ID)
		assert.Less(t, got[0].Seq, got[1].Seq)

		one, err := s.GetComment(ctx, "c-a")
		require.NoError(t, err)
		assert.Equal(t, "second", one.Content)
	})

	t.Run("ReturnedValuesAreCopies", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		Put(t, s, Issue("mj-1", "p1"))

		got, err := s.GetIssue(ctx, "mj-1")
		require.NoError(t, err)
		got.Title = "mutated by caller"

		again, err := s.GetIssue(ctx, "mj-1")
		require.NoError(t, err)
		assert.Equal(t, "Issue mj-1", again.Title)
	})

	t.Run("ClosedStore", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Close())
		_, err := s.GetIssue(context.Background(), "mj-1")
		assert.ErrorIs(t, err, storage.ErrClosed)
		err = s.RunInTransaction(context.Background(), func(storage.Transaction) error { return nil })
		assert.ErrorIs(t, err, storage.ErrClosed)
	})
}
