package journal

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// TraceInfo holds the OTel identifiers extracted from a context.
type TraceInfo struct {
	// TraceID is the W3C trace ID, 32 lowercase hex chars. Empty when the
	// context carries no valid span.
	TraceID string
	SpanID  string
}

// ExtractTraceInfo reads the active span from ctx. Without one (unit tests,
// tracing disabled) both IDs come back empty.
func ExtractTraceInfo(ctx context.Context) TraceInfo {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return TraceInfo{}
	}
	return TraceInfo{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
	}
}

// NewEntry builds an entry stamped with the trace info found in ctx.
//
//	entry := journal.NewEntry(ctx, id, journal.StatusStageDone, "COMMIT_STOCK")
//	_ = repo.Save(ctx, entry)
func NewEntry(ctx context.Context, checkoutID string, status Status, stage string) *Entry {
	ti := ExtractTraceInfo(ctx)
	return &Entry{
		CheckoutID: checkoutID,
		Status:     status,
		Stage:      stage,
		TraceID:    ti.TraceID,
		SpanID:     ti.SpanID,
		RecordedAt: time.Now().UTC(),
	}
}
