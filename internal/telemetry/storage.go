package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/andreisalomia/mini-jira/internal/storage"
	"github.com/andreisalomia/mini-jira/internal/types"
)

const storageScopeName = "github.com/andreisalomia/mini-jira/storage"

// Verify the decorators implement the storage contracts at compile time
var (
	_ storage.Storage     = (*InstrumentedStorage)(nil)
	_ storage.Transaction = (*instrumentedTx)(nil)
)

// InstrumentedStorage wraps storage.Storage with OTel tracing and metrics.
// Every method gets a span and is counted in mj.storage.* metrics.
// Use WrapStorage to create one; it returns the original store unchanged when
// telemetry is disabled.
type InstrumentedStorage struct {
	inner  storage.Storage
	tracer trace.Tracer
	ops    metric.Int64Counter
	dur    metric.Float64Histogram
	errs   metric.Int64Counter
}

// WrapStorage returns s decorated with OTel instrumentation.
// When telemetry is disabled, s is returned as-is.
func WrapStorage(s storage.Storage) storage.Storage {
	if !Enabled() {
		return s
	}
	return newInstrumented(s, Tracer(storageScopeName), Meter(storageScopeName))
}

func newInstrumented(s storage.Storage, tracer trace.Tracer, m metric.Meter) *InstrumentedStorage {
	ops, _ := m.Int64Counter("mj.storage.operations",
		metric.WithDescription("Total storage operations executed"),
	)
	dur, _ := m.Float64Histogram("mj.storage.operation.duration",
		metric.WithDescription("Storage operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("mj.storage.errors",
		metric.WithDescription("Total storage operation errors"),
	)
	return &InstrumentedStorage{inner: s, tracer: tracer, ops: ops, dur: dur, errs: errs}
}

// op starts a span and records a metric for the named storage operation.
func (s *InstrumentedStorage) op(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	all := append([]attribute.KeyValue{attribute.String("db.operation", name)}, attrs...)
	ctx, span := s.tracer.Start(ctx, "storage."+name,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	s.ops.Add(ctx, 1, metric.WithAttributes(all...))
	return ctx, span, time.Now()
}

// done ends the span, records duration and optional error.
// A not-found lookup is an answer, not a failure.
func (s *InstrumentedStorage) done(ctx context.Context, span trace.Span, start time.Time, err error, attrs ...attribute.KeyValue) {
	ms := float64(time.Since(start).Milliseconds())
	s.dur.Record(ctx, ms, metric.WithAttributes(attrs...))
	if err != nil && !storage.IsNotFound(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.errs.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	span.End()
}

// ── Reads ───────────────────────────────────────────────────────────────────

func (s *InstrumentedStorage) GetIssue(ctx context.Context, id string) (*types.Issue, error) {
	attrs := []attribute.KeyValue{attribute.String("mj.issue.id", id)}
	ctx, span, t := s.op(ctx, "GetIssue", attrs...)
	v, err := s.inner.GetIssue(ctx, id)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) ListIssues(ctx context.Context, projectID string) ([]*types.Issue, error) {
	attrs := []attribute.KeyValue{attribute.String("mj.project.id", projectID)}
	ctx, span, t := s.op(ctx, "ListIssues", attrs...)
	v, err := s.inner.ListIssues(ctx, projectID)
	span.SetAttributes(attribute.Int("mj.result.count", len(v)))
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) GetComment(ctx context.Context, id string) (*types.Comment, error) {
	attrs := []attribute.KeyValue{attribute.String("mj.comment.id", id)}
	ctx, span, t := s.op(ctx, "GetComment", attrs...)
	v, err := s.inner.GetComment(ctx, id)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) ListComments(ctx context.Context, issueID string) ([]*types.Comment, error) {
	attrs := []attribute.KeyValue{attribute.String("mj.issue.id", issueID)}
	ctx, span, t := s.op(ctx, "ListComments", attrs...)
	v, err := s.inner.ListComments(ctx, issueID)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) ListAudit(ctx context.Context, issueID string) ([]*types.AuditEntry, error) {
	attrs := []attribute.KeyValue{attribute.String("mj.issue.id", issueID)}
	ctx, span, t := s.op(ctx, "ListAudit", attrs...)
	v, err := s.inner.ListAudit(ctx, issueID)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

// ── Transactions ────────────────────────────────────────────────────────────

// RunInTransaction spans the whole transaction; operations inside it become
// child spans whatever ctx fn hands them.
func (s *InstrumentedStorage) RunInTransaction(ctx context.Context, fn func(tx storage.Transaction) error) error {
	ctx, span, t := s.op(ctx, "RunInTransaction")
	err := s.inner.RunInTransaction(ctx, func(tx storage.Transaction) error {
		return fn(&instrumentedTx{inner: tx, s: s, span: span})
	})
	s.done(ctx, span, t, err)
	return err
}

func (s *InstrumentedStorage) Close() error {
	return s.inner.Close()
}

// instrumentedTx forwards to the wrapped transaction, parenting every span
// on the transaction span.
type instrumentedTx struct {
	inner storage.Transaction
	s     *InstrumentedStorage
	span  trace.Span
}

func (tx *instrumentedTx) op(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	return tx.s.op(trace.ContextWithSpan(ctx, tx.span), name, attrs...)
}

func (tx *instrumentedTx) GetIssue(ctx context.Context, id string) (*types.Issue, error) {
	attrs := []attribute.KeyValue{attribute.String("mj.issue.id", id)}
	ctx, span, t := tx.op(ctx, "tx.GetIssue", attrs...)
	v, err := tx.inner.GetIssue(ctx, id)
	tx.s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (tx *instrumentedTx) PutIssue(ctx context.Context, issue *types.Issue) error {
	attrs := []attribute.KeyValue{
		attribute.String("mj.issue.id", issue.ID),
		attribute.String("mj.issue.status", string(issue.Status)),
	}
	ctx, span, t := tx.op(ctx, "tx.PutIssue", attrs...)
	err := tx.inner.PutIssue(ctx, issue)
	tx.s.done(ctx, span, t, err, attrs...)
	return err
}

func (tx *instrumentedTx) GetComment(ctx context.Context, id string) (*types.Comment, error) {
	attrs := []attribute.KeyValue{attribute.String("mj.comment.id", id)}
	ctx, span, t := tx.op(ctx, "tx.GetComment", attrs...)
	v, err := tx.inner.GetComment(ctx, id)
	tx.s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (tx *instrumentedTx) PutComment(ctx context.Context, comment *types.Comment) error {
	attrs := []attribute.KeyValue{attribute.String("mj.comment.id", comment.ID)}
	ctx, span, t := tx.op(ctx, "tx.PutComment", attrs...)
	err := tx.inner.PutComment(ctx, comment)
	tx.s.done(ctx, span, t, err, attrs...)
	return err
}

func (tx *instrumentedTx) LastAudit(ctx context.Context, issueID string) (*types.AuditEntry, error) {
	attrs := []attribute.KeyValue{attribute.String("mj.issue.id", issueID)}
	ctx, span, t := tx.op(ctx, "tx.LastAudit", attrs...)
	v, err := tx.inner.LastAudit(ctx, issueID)
	tx.s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (tx *instrumentedTx) AppendAudit(ctx context.Context, entries ...*types.AuditEntry) error {
	attrs := []attribute.KeyValue{attribute.Int("mj.audit.count", len(entries))}
	ctx, span, t := tx.op(ctx, "tx.AppendAudit", attrs...)
	err := tx.inner.AppendAudit(ctx, entries...)
	tx.s.done(ctx, span, t, err, attrs...)
	return err
}
