package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreisalomia/mini-jira/internal/storage"
	"github.com/andreisalomia/mini-jira/internal/testutil/teststore"
	"github.com/andreisalomia/mini-jira/internal/types"
)

func TestConformance(t *testing.T) {
	teststore.Run(t, func(t *testing.T) storage.Storage { return New() })
}

func TestPanicLeavesStoreUntouched(t *testing.T) {
	s := New()
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = s.RunInTransaction(ctx, func(tx storage.Transaction) error {
			_ = tx.PutIssue(ctx, teststore.Issue("mj-1", "p1"))
			panic("boom")
		})
	})

	_, err := s.GetIssue(ctx, "mj-1")
	assert.True(t, storage.IsNotFound(err))
}

func TestStagedWritesInvisibleUntilCommit(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.RunInTransaction(ctx, func(tx storage.Transaction) error {
		require.NoError(t, tx.PutIssue(ctx, teststore.Issue("mj-1", "p1")))
		_, err := s.GetIssue(ctx, "mj-1")
		assert.True(t, storage.IsNotFound(err), "outside readers must not see staged writes")
		return nil
	})
	require.NoError(t, err)

	_, err = s.GetIssue(ctx, "mj-1")
	require.NoError(t, err)
}

func TestRejectsIncompleteRecords(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.RunInTransaction(ctx, func(tx storage.Transaction) error {
		return tx.PutIssue(ctx, &types.Issue{})
	})
	require.Error(t, err)

	noTitle := teststore.Issue("mj-1", "p1")
	noTitle.Title = "  "
	err = s.RunInTransaction(ctx, func(tx storage.Transaction) error {
		return tx.PutIssue(ctx, noTitle)
	})
	assert.Equal(t, types.ReasonValidation, types.ReasonOf(err))
	_, err = s.GetIssue(ctx, "mj-1")
	assert.True(t, storage.IsNotFound(err), "a rejected write is not committed")

	err = s.RunInTransaction(ctx, func(tx storage.Transaction) error {
		return tx.AppendAudit(ctx, &types.AuditEntry{ID: "e1"})
	})
	require.Error(t, err)
	assert.False(t, errors.Is(err, storage.ErrNotFound))
}
