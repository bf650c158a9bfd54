package telemetry

import (
	"context"

	"github.com/vellumgfx/bufferqueue"
)

// QueueTracer adapts this package's span helpers to bufferqueue.Tracer,
// wiring SPEC_FULL.md §4.1's span-per-operation requirement into the core.
// Queue/producer/consumer construction in cmd/bufqueue-demo installs it via
// bufferqueue.WithTracer so every operation produces a real OTel span
// instead of running under the package's noopTracer default.
type QueueTracer struct{}

// NewQueueTracer returns a bufferqueue.Tracer backed by this package's OTel
// wiring.
func NewQueueTracer() QueueTracer { return QueueTracer{} }

// Start implements bufferqueue.Tracer.
func (QueueTracer) Start(ctx context.Context, op, queueID string) (context.Context, func(string)) {
	ctx, span := StartQueueSpan(ctx, "bufferqueue."+op, queueID)
	return ctx, func(errKind string) {
		FinishWithErrorKind(ctx, errKind)
		span.End()
	}
}
