package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/andreisalomia/mini-jira/internal/storage"
	"github.com/andreisalomia/mini-jira/internal/storage/memory"
	"github.com/andreisalomia/mini-jira/internal/testutil/teststore"
)

type harness struct {
	store  *InstrumentedStorage
	spans  *tracetest.SpanRecorder
	reader *sdkmetric.ManualReader
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})
	return &harness{
		store:  newInstrumented(memory.New(), tp.Tracer(storageScopeName), mp.Meter(storageScopeName)),
		spans:  spans,
		reader: reader,
	}
}

func (h *harness) counter(t *testing.T, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, h.reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func (h *harness) spanNames() []string {
	var names []string
	for _, s := range h.spans.Ended() {
		names = append(names, s.Name())
	}
	return names
}

func TestWrapStorageDisabledReturnsInner(t *testing.T) {
	t.Setenv("MJ_OTEL_ENABLED", "")
	inner := memory.New()
	assert.Same(t, inner, WrapStorage(inner))
}

func TestInstrumentedStorageConformance(t *testing.T) {
	teststore.Run(t, func(t *testing.T) storage.Storage {
		return newHarness(t).store
	})
}

func TestTransactionOperationsAreSpanned(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	err := h.store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		return tx.PutIssue(ctx, teststore.Issue("mj-1", "p1"))
	})
	require.NoError(t, err)
	_, err = h.store.GetIssue(ctx, "mj-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"storage.tx.PutIssue", "storage.RunInTransaction", "storage.GetIssue"}, h.spanNames())
	ended := h.spans.Ended()
	assert.Equal(t, ended[1].SpanContext().SpanID(), ended[0].Parent().SpanID(),
		"tx spans are children of the transaction span even when fn uses the outer ctx")
	assert.Equal(t, ended[1].SpanContext().TraceID(), ended[0].SpanContext().TraceID())
	assert.False(t, ended[2].Parent().IsValid(), "reads outside a transaction are roots")
	assert.Equal(t, int64(3), h.counter(t, "mj.storage.operations"))
	assert.Zero(t, h.counter(t, "mj.storage.errors"))
}

func TestErrorsAreRecorded(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := h.store.RunInTransaction(ctx, func(storage.Transaction) error { return boom })
	require.ErrorIs(t, err, boom)

	ended := h.spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, int64(1), h.counter(t, "mj.storage.errors"))
}

func TestNotFoundIsNotAnError(t *testing.T) {
	h := newHarness(t)
	_, err := h.store.GetIssue(context.Background(), "mj-404")
	require.True(t, storage.IsNotFound(err))

	ended := h.spans.Ended()
	require.Len(t, ended, 1)
	assert.NotEqual(t, codes.Error, ended[0].Status().Code)
	assert.Zero(t, h.counter(t, "mj.storage.errors"))
}

func TestInitDisabledIsNoop(t *testing.T) {
	t.Setenv("MJ_OTEL_ENABLED", "")
	require.NoError(t, Init(context.Background(), "mj", "test"))
	assert.Empty(t, shutdownFns)
	Shutdown(context.Background())
}
