// Package engine is the issue repository facade: the single entry point
// that validates, authorizes and commits every issue and comment mutation.
//
// Each mutation holds its issue's lock for the whole read-check-write
// cycle and runs inside one storage transaction, so the checks always see
// the latest committed state and a rejected request writes nothing.
package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/andreisalomia/mini-jira/internal/audit"
	"github.com/andreisalomia/mini-jira/internal/clock"
	"github.com/andreisalomia/mini-jira/internal/comment"
	"github.com/andreisalomia/mini-jira/internal/identity"
	"github.com/andreisalomia/mini-jira/internal/idgen"
	"github.com/andreisalomia/mini-jira/internal/logging"
	"github.com/andreisalomia/mini-jira/internal/storage"
	"github.com/andreisalomia/mini-jira/internal/types"
)

// Engine coordinates storage, the audit trail and the comment thread.
// It is safe for concurrent use.
type Engine struct {
	store  storage.Storage
	dir    identity.Directory
	trail  *audit.Trail
	thread *comment.Thread
	locks  *issueLocks
	clock  clock.Clock
	log    *slog.Logger
	prefix string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock sets the clock used for every timestamp.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithIDPrefix sets the prefix of generated issue IDs.
func WithIDPrefix(prefix string) Option {
	return func(e *Engine) { e.prefix = prefix }
}

// New creates an engine over store. dir answers membership and ownership
// questions and must not be nil.
func New(store storage.Storage, dir identity.Directory, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		dir:    dir,
		locks:  newIssueLocks(),
		clock:  clock.Real(),
		log:    logging.Discard(),
		prefix: idgen.DefaultPrefix,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.trail = audit.NewTrail(store)
	e.thread = comment.NewThread(e.trail, e.clock)
	return e
}

// Close closes the underlying store.
func (e *Engine) Close() error {
	return e.store.Close()
}

// mutate runs fn under issueID's lock inside one transaction and logs the
// outcome. op names the operation in log records.
func (e *Engine) mutate(ctx context.Context, op, issueID, actorID string, fn func(tx storage.Transaction) error) error {
	release, err := e.locks.acquire(ctx, issueID)
	if err != nil {
		return types.Wrap(types.ReasonStorageUnavailable, err, "%s %s", op, issueID)
	}
	defer release()

	err = e.store.RunInTransaction(ctx, fn)
	if err != nil {
		err = classify(err, "%s %s", op, issueID)
		e.log.Debug("mutation rejected", "op", op, "issue", issueID, "actor", actorID,
			"reason", string(types.ReasonOf(err)), "error", err)
		return err
	}
	e.log.Debug("mutation committed", "op", op, "issue", issueID, "actor", actorID)
	return nil
}

// loadIssue reads a live issue inside tx. Missing and tombstoned issues are
// both NOT_FOUND.
func loadIssue(ctx context.Context, tx storage.Transaction, id string) (*types.Issue, error) {
	issue, err := tx.GetIssue(ctx, id)
	if err != nil {
		return nil, classify(err, "get issue %s", id)
	}
	if issue.IsTombstone() {
		return nil, types.Errorf(types.ReasonNotFound, "issue %s not found", id)
	}
	return issue, nil
}

// classify leaves classified errors alone, maps storage.ErrNotFound to
// NOT_FOUND and everything else to STORAGE_UNAVAILABLE.
func classify(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	var te *types.Error
	if errors.As(err, &te) {
		return err
	}
	if storage.IsNotFound(err) {
		return types.Wrap(types.ReasonNotFound, err, format, args...)
	}
	return types.Wrap(types.ReasonStorageUnavailable, err, format, args...)
}
