package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context for a single producer or
// consumer operation against a BufferQueue.
type LogContext struct {
	TraceID     string    // OpenTelemetry trace ID
	SpanID      string    // OpenTelemetry span ID
	QueueID     string    // BufferQueue instance identifier
	ConnID      string    // Producer/consumer connection id
	Op          string    // Operation name (RequestBuffer, FlushBuffer, etc.)
	ProducerPid uint32    // Connected producer's pid
	ConsumerPid uint32    // Connected consumer's pid
	StartTime   time.Time // For duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext scoped to the given queue.
func NewLogContext(queueID string) *LogContext {
	return &LogContext{
		QueueID:   queueID,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	return &LogContext{
		TraceID:     lc.TraceID,
		SpanID:      lc.SpanID,
		QueueID:     lc.QueueID,
		ConnID:      lc.ConnID,
		Op:          lc.Op,
		ProducerPid: lc.ProducerPid,
		ConsumerPid: lc.ConsumerPid,
		StartTime:   lc.StartTime,
	}
}

// WithOp returns a copy with the operation name set
func (lc *LogContext) WithOp(op string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Op = op
	}
	return clone
}

// WithConn returns a copy with the connection id set
func (lc *LogContext) WithConn(connID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.ConnID = connID
	}
	return clone
}

// WithPids returns a copy with the connected producer/consumer pids set
func (lc *LogContext) WithPids(producerPid, consumerPid uint32) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.ProducerPid = producerPid
		clone.ConsumerPid = consumerPid
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
