// Package storage provides the persistence contract for the lifecycle engine.
//
// Concrete implementations live in the memory and sqlite sub-packages.
// The engine depends on this interface only, so alternative implementations
// (mocks, instrumented decorators, etc.) can be substituted.
package storage

import (
	"context"
	"errors"

	"github.com/andreisalomia/mini-jira/internal/types"
)

// ErrNotFound is returned when a requested entity does not exist in the store.
var ErrNotFound = errors.New("not found")

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("storage closed")

// Storage is the read side plus the transactional entry point.
//
// Reads observe committed state only: never a partially applied transaction.
type Storage interface {
	GetIssue(ctx context.Context, id string) (*types.Issue, error)
	ListIssues(ctx context.Context, projectID string) ([]*types.Issue, error) // creation order; includes tombstones
	GetComment(ctx context.Context, id string) (*types.Comment, error)
	ListComments(ctx context.Context, issueID string) ([]*types.Comment, error) // insertion order; includes deleted
	ListAudit(ctx context.Context, issueID string) ([]*types.AuditEntry, error) // insertion order

	// RunInTransaction executes fn within a transaction.
	// If fn returns an error or panics nothing it wrote becomes visible.
	RunInTransaction(ctx context.Context, fn func(tx Transaction) error) error

	Close() error
}

// Transaction provides atomic multi-operation support.
//
// # Transaction Semantics
//
//   - Reads inside the transaction see the transaction's own writes
//   - Changes are not visible to other readers until commit
//   - If fn returns an error, the transaction is rolled back
//   - On successful return from fn, the transaction is committed
//
// # Example Usage
//
//	err := store.RunInTransaction(ctx, func(tx storage.Transaction) error {
//	    if err := tx.PutIssue(ctx, issue); err != nil {
//	        return err // Triggers rollback
//	    }
//	    return tx.AppendAudit(ctx, entry) // nil triggers commit
//	})
type Transaction interface {
	GetIssue(ctx context.Context, id string) (*types.Issue, error)
	PutIssue(ctx context.Context, issue *types.Issue) error

	GetComment(ctx context.Context, id string) (*types.Comment, error)
	PutComment(ctx context.Context, comment *types.Comment) error

	// LastAudit returns the newest entry for the issue, or nil if there is none.
	LastAudit(ctx context.Context, issueID string) (*types.AuditEntry, error)
	// AppendAudit inserts entries in order; the store assigns Seq.
	AppendAudit(ctx context.Context, entries ...*types.AuditEntry) error
}

// IsNotFound checks if an error is or wraps ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
