package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/andreisalomia/mini-jira/internal/storage"
	"github.com/andreisalomia/mini-jira/internal/types"
)

// Verify sqliteTx implements storage.Transaction at compile time
var _ storage.Transaction = (*sqliteTx)(nil)

// beginMaxElapsed bounds how long BEGIN IMMEDIATE keeps retrying on SQLITE_BUSY.
const beginMaxElapsed = 5 * time.Second

// sqliteTx implements storage.Transaction on a dedicated connection
// holding an open transaction.
type sqliteTx struct {
	conn *sql.Conn
}

func newBeginBackoff() backoff.BackOff {
	// BackOff implementations are stateful; always return a fresh instance.
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 10 * time.Millisecond
	bo.MaxElapsedTime = beginMaxElapsed
	return bo
}

// RunInTransaction executes a function within a database transaction.
//
// Transaction lifecycle:
//  1. Acquire dedicated connection from pool
//  2. BEGIN IMMEDIATE (takes the write lock up front), retried on SQLITE_BUSY
//  3. Execute fn with the Transaction interface
//  4. On success: COMMIT
//  5. On error or panic: ROLLBACK
func (s *SQLiteStorage) RunInTransaction(ctx context.Context, fn func(tx storage.Transaction) error) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection for transaction: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if err := beginImmediate(ctx, conn); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			// Background context so rollback completes even if ctx is cancelled
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	if err := fn(&sqliteTx{conn: conn}); err != nil {
		return err
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

func beginImmediate(ctx context.Context, conn *sql.Conn) error {
	return backoff.Retry(func() error {
		_, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE")
		if err != nil && isBusyError(err) {
			return err // Retryable
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}, backoff.WithContext(newBeginBackoff(), ctx))
}

func (t *sqliteTx) GetIssue(ctx context.Context, id string) (*types.Issue, error) {
	return getIssue(ctx, t.conn, id)
}

func (t *sqliteTx) PutIssue(ctx context.Context, issue *types.Issue) error {
	return upsertIssue(ctx, t.conn, issue)
}

func (t *sqliteTx) GetComment(ctx context.Context, id string) (*types.Comment, error) {
	return getComment(ctx, t.conn, id)
}

func (t *sqliteTx) PutComment(ctx context.Context, comment *types.Comment) error {
	return upsertComment(ctx, t.conn, comment)
}

func (t *sqliteTx) LastAudit(ctx context.Context, issueID string) (*types.AuditEntry, error) {
	return lastAudit(ctx, t.conn, issueID)
}

func (t *sqliteTx) AppendAudit(ctx context.Context, entries ...*types.AuditEntry) error {
	for _, e := range entries {
		if err := insertAudit(ctx, t.conn, e); err != nil {
			return err
		}
	}
	return nil
}
