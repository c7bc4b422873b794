// Package audit maintains the append-only per-issue audit trail.
//
// Entries are written inside the caller's storage transaction so they commit
// or roll back together with the state change they describe.
package audit

import (
	"context"
	"sort"
	"time"

	"github.com/andreisalomia/mini-jira/internal/idgen"
	"github.com/andreisalomia/mini-jira/internal/storage"
	"github.com/andreisalomia/mini-jira/internal/types"
)

// Trail appends and reads audit entries.
type Trail struct {
	store storage.Storage
}

// NewTrail creates a trail over store.
func NewTrail(store storage.Storage) *Trail {
	return &Trail{store: store}
}

// NewEntry builds an entry with a fresh ID. Seq is assigned by the store.
func NewEntry(issueID, actorID string, action types.Action, field string, oldValue, newValue *string, ts time.Time) *types.AuditEntry {
	return &types.AuditEntry{
		ID:        idgen.NewEntryID(),
		IssueID:   issueID,
		Action:    action,
		Field:     field,
		OldValue:  oldValue,
		NewValue:  newValue,
		ActorID:   actorID,
		Timestamp: ts.UTC(),
	}
}

// Append inserts entries at the end of their issue's trail, in order.
//
// Timestamps never decrease within an issue: an entry stamped earlier than
// the issue's current last entry (clock skew) is clamped to that entry's
// timestamp, and the store's insertion sequence keeps the order.
func (t *Trail) Append(ctx context.Context, tx storage.Transaction, entries ...*types.AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}

	last := make(map[string]time.Time)
	for _, e := range entries {
		floor, seen := last[e.IssueID]
		if !seen {
			prev, err := tx.LastAudit(ctx, e.IssueID)
			if err != nil {
				return types.Wrap(types.ReasonStorageUnavailable, err, "read audit trail for %s", e.IssueID)
			}
			if prev != nil {
				floor = prev.Timestamp
			}
		}
		if e.Timestamp.Before(floor) {
			e.Timestamp = floor
		}
		last[e.IssueID] = e.Timestamp
	}

	if err := tx.AppendAudit(ctx, entries...); err != nil {
		return types.Wrap(types.ReasonStorageUnavailable, err, "append audit entries")
	}
	return nil
}

// List returns the full trail of an issue, oldest first.
func (t *Trail) List(ctx context.Context, issueID string) ([]*types.AuditEntry, error) {
	entries, err := t.store.ListAudit(ctx, issueID)
	if err != nil {
		return nil, types.Wrap(types.ReasonStorageUnavailable, err, "list audit trail for %s", issueID)
	}
	sortEntries(entries)
	return entries, nil
}

// Since returns the entries stamped at or after since, preserving order.
// A zero since returns entries unchanged.
func Since(entries []*types.AuditEntry, since time.Time) []*types.AuditEntry {
	if since.IsZero() {
		return entries
	}
	var out []*types.AuditEntry
	for _, e := range entries {
		if !e.Timestamp.Before(since) {
			out = append(out, e)
		}
	}
	return out
}

func sortEntries(entries []*types.AuditEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.Seq < b.Seq
	})
}
