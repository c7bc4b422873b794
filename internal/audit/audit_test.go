package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreisalomia/mini-jira/internal/storage"
	"github.com/andreisalomia/mini-jira/internal/storage/memory"
	"github.com/andreisalomia/mini-jira/internal/testutil/teststore"
	"github.com/andreisalomia/mini-jira/internal/types"
)

func setup(t *testing.T) (*memory.MemoryStorage, *Trail) {
	t.Helper()
	store := memory.New()
	t.Cleanup(func() { _ = store.Close() })
	teststore.Put(t, store, teststore.Issue("mj-1", "p1"))
	return store, NewTrail(store)
}

func appendEntries(t *testing.T, store storage.Storage, trail *Trail, entries ...*types.AuditEntry) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		return trail.Append(ctx, tx, entries...)
	}))
}

func TestAppendAndList(t *testing.T) {
	store, trail := setup(t)
	base := teststore.Base

	appendEntries(t, store, trail,
		NewEntry("mj-1", "u1", types.ActionCreated, "", nil, types.StringPtr("OPEN"), base))
	appendEntries(t, store, trail,
		NewEntry("mj-1", "u1", types.ActionStatusChanged, types.FieldStatus, types.StringPtr("OPEN"), types.StringPtr("IN_PROGRESS"), base.Add(time.Minute)),
		NewEntry("mj-1", "u1", types.ActionFieldChanged, types.FieldPriority, types.StringPtr("MEDIUM"), types.StringPtr("HIGH"), base.Add(time.Minute)))

	entries, err := trail.List(context.Background(), "mj-1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, types.ActionCreated, entries[0].Action)
	assert.Equal(t, types.ActionStatusChanged, entries[1].Action)
	assert.Equal(t, types.ActionFieldChanged, entries[2].Action)
	assert.True(t, entries[1].Timestamp.Equal(entries[2].Timestamp), "multi-field entries share a timestamp")
	assert.NotEqual(t, entries[1].ID, entries[2].ID)
}

func TestAppendClampsBackwardsClock(t *testing.T) {
	store, trail := setup(t)
	base := teststore.Base

	appendEntries(t, store, trail,
		NewEntry("mj-1", "u1", types.ActionCreated, "", nil, nil, base))
	appendEntries(t, store, trail,
		NewEntry("mj-1", "u1", types.ActionFieldChanged, types.FieldTitle, types.StringPtr("a"), types.StringPtr("b"), base.Add(-time.Hour)))

	entries, err := trail.List(context.Background(), "mj-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, types.ActionCreated, entries[0].Action)
	assert.Equal(t, types.ActionFieldChanged, entries[1].Action)
	assert.True(t, entries[1].Timestamp.Equal(base), "timestamp must be clamped to the previous entry")
}

func TestAppendClampsWithinBatch(t *testing.T) {
	store, trail := setup(t)
	base := teststore.Base

	appendEntries(t, store, trail,
		NewEntry("mj-1", "u1", types.ActionCreated, "", nil, nil, base),
		NewEntry("mj-1", "u1", types.ActionAssigned, types.FieldAssignee, nil, types.StringPtr("u2"), base.Add(-time.Second)))

	entries, err := trail.List(context.Background(), "mj-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i].Timestamp.Before(entries[i-1].Timestamp))
	}
}

func TestAppendRollsBackWithTransaction(t *testing.T) {
	store, trail := setup(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		if err := trail.Append(ctx, tx, NewEntry("mj-1", "u1", types.ActionCreated, "", nil, nil, teststore.Base)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	entries, err := trail.List(ctx, "mj-1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListOnClosedStore(t *testing.T) {
	store, trail := setup(t)
	require.NoError(t, store.Close())

	_, err := trail.List(context.Background(), "mj-1")
	require.Error(t, err)
	assert.Equal(t, types.ReasonStorageUnavailable, types.ReasonOf(err))
}

func TestSince(t *testing.T) {
	base := teststore.Base
	entries := []*types.AuditEntry{
		{ID: "a", Timestamp: base},
		{ID: "b", Timestamp: base.Add(time.Hour)},
		{ID: "c", Timestamp: base.Add(2 * time.Hour)},
	}

	got := Since(entries, base.Add(time.Hour))
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "c", got[1].ID)

	assert.Len(t, Since(entries, time.Time{}), 3)
	assert.Empty(t, Since(entries, base.Add(3*time.Hour)))
}
