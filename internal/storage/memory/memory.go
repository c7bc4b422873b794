// Package memory implements the storage interface with in-process maps.
//
// Transactions stage their writes privately and publish them under the
// write lock on commit, so readers only ever see whole transactions.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/andreisalomia/mini-jira/internal/storage"
	"github.com/andreisalomia/mini-jira/internal/types"
)

// Verify interfaces at compile time
var (
	_ storage.Storage     = (*MemoryStorage)(nil)
	_ storage.Transaction = (*memoryTx)(nil)
)

// MemoryStorage keeps everything in memory. Useful for tests and for
// throwaway sessions (storage: memory).
type MemoryStorage struct {
	mu       sync.RWMutex
	issues   map[string]*types.Issue
	order    []string // issue IDs in creation order
	comments map[string]*types.Comment
	audit    map[string][]*types.AuditEntry // by issue ID, insertion order
	seq      int64
	closed   bool
}

// New creates an empty store.
func New() *MemoryStorage {
	return &MemoryStorage{
		issues:   make(map[string]*types.Issue),
		comments: make(map[string]*types.Comment),
		audit:    make(map[string][]*types.AuditEntry),
	}
}

func (m *MemoryStorage) GetIssue(ctx context.Context, id string) (*types.Issue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, storage.ErrClosed
	}
	issue, ok := m.issues[id]
	if !ok {
		return nil, fmt.Errorf("issue %s: %w", id, storage.ErrNotFound)
	}
	return issue.Clone(), nil
}

func (m *MemoryStorage) ListIssues(ctx context.Context, projectID string) ([]*types.Issue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, storage.ErrClosed
	}
	var out []*types.Issue
	for _, id := range m.order {
		issue := m.issues[id]
		if projectID == "" || issue.ProjectID == projectID {
			out = append(out, issue.Clone())
		}
	}
	return out, nil
}

func (m *MemoryStorage) GetComment(ctx context.Context, id string) (*types.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, storage.ErrClosed
	}
	c, ok := m.comments[id]
	if !ok {
		return nil, fmt.Errorf("comment %s: %w", id, storage.ErrNotFound)
	}
	return c.Clone(), nil
}

func (m *MemoryStorage) ListComments(ctx context.Context, issueID string) ([]*types.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, storage.ErrClosed
	}
	var out []*types.Comment
	for _, c := range m.comments {
		if c.IssueID == issueID {
			out = append(out, c.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (m *MemoryStorage) ListAudit(ctx context.Context, issueID string) ([]*types.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, storage.ErrClosed
	}
	entries := m.audit[issueID]
	out := make([]*types.AuditEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Clone())
	}
	return out, nil
}

// RunInTransaction executes fn against a private staging area and publishes
// the staged writes atomically when fn succeeds.
//
// Panic safety: a panicking fn leaves the store untouched and the panic
// propagates to the caller.
func (m *MemoryStorage) RunInTransaction(ctx context.Context, fn func(tx storage.Transaction) error) error {
	m.mu.RLock()
	closed := m.closed
	m.mu.RUnlock()
	if closed {
		return storage.ErrClosed
	}

	tx := &memoryTx{
		parent:   m,
		issues:   make(map[string]*types.Issue),
		comments: make(map[string]*types.Comment),
	}
	if err := fn(tx); err != nil {
		return err
	}
	return m.commit(tx)
}

func (m *MemoryStorage) commit(tx *memoryTx) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return storage.ErrClosed
	}

	for _, id := range tx.issueOrder {
		if _, exists := m.issues[id]; !exists {
			m.order = append(m.order, id)
		}
		m.issues[id] = tx.issues[id]
	}
	for _, id := range tx.commentOrder {
		c := tx.comments[id]
		if existing, ok := m.comments[id]; ok {
			c.Seq = existing.Seq
		} else {
			m.seq++
			c.Seq = m.seq
		}
		m.comments[id] = c
	}
	for _, e := range tx.audit {
		m.seq++
		e.Seq = m.seq
		m.audit[e.IssueID] = append(m.audit[e.IssueID], e)
	}
	return nil
}

// Close marks the store closed; further calls fail with storage.ErrClosed.
func (m *MemoryStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// memoryTx stages writes for one transaction.
type memoryTx struct {
	parent       *MemoryStorage
	issues       map[string]*types.Issue
	issueOrder   []string
	comments     map[string]*types.Comment
	commentOrder []string
	audit        []*types.AuditEntry
}

func (t *memoryTx) GetIssue(ctx context.Context, id string) (*types.Issue, error) {
	if issue, ok := t.issues[id]; ok {
		return issue.Clone(), nil
	}
	return t.parent.GetIssue(ctx, id)
}

func (t *memoryTx) PutIssue(ctx context.Context, issue *types.Issue) error {
	if issue == nil || issue.ID == "" {
		return fmt.Errorf("put issue: missing ID")
	}
	if err := issue.Validate(); err != nil {
		return err
	}
	if _, staged := t.issues[issue.ID]; !staged {
		t.issueOrder = append(t.issueOrder, issue.ID)
	}
	t.issues[issue.ID] = issue.Clone()
	return nil
}

func (t *memoryTx) GetComment(ctx context.Context, id string) (*types.Comment, error) {
	if c, ok := t.comments[id]; ok {
		return c.Clone(), nil
	}
	return t.parent.GetComment(ctx, id)
}

func (t *memoryTx) PutComment(ctx context.Context, comment *types.Comment) error {
	if comment == nil || comment.ID == "" {
		return fmt.Errorf("put comment: missing ID")
	}
	if _, staged := t.comments[comment.ID]; !staged {
		t.commentOrder = append(t.commentOrder, comment.ID)
	}
	t.comments[comment.ID] = comment.Clone()
	return nil
}

func (t *memoryTx) LastAudit(ctx context.Context, issueID string) (*types.AuditEntry, error) {
	for i := len(t.audit) - 1; i >= 0; i-- {
		if t.audit[i].IssueID == issueID {
			return t.audit[i].Clone(), nil
		}
	}
	t.parent.mu.RLock()
	defer t.parent.mu.RUnlock()
	entries := t.parent.audit[issueID]
	if len(entries) == 0 {
		return nil, nil
	}
	return entries[len(entries)-1].Clone(), nil
}

func (t *memoryTx) AppendAudit(ctx context.Context, entries ...*types.AuditEntry) error {
	for _, e := range entries {
		if e == nil || e.IssueID == "" {
			return fmt.Errorf("append audit: entry without issue ID")
		}
		t.audit = append(t.audit, e.Clone())
	}
	return nil
}
