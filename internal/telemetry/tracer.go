package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for buffer-queue operations.
// These follow OpenTelemetry semantic conventions where applicable.
const (
	// ========================================================================
	// Queue identity attributes
	// ========================================================================
	AttrQueueID     = "bq.queue_id"
	AttrConnID      = "bq.conn_id"
	AttrConsumerPid = "bq.consumer_pid"
	AttrProducerPid = "bq.producer_pid"

	// ========================================================================
	// Slot / buffer attributes
	// ========================================================================
	AttrSlot       = "bq.slot"
	AttrSeq        = "bq.seq"
	AttrSlotState  = "bq.slot_state"
	AttrBufWidth   = "bq.buffer.width"
	AttrBufHeight  = "bq.buffer.height"
	AttrBufFormat  = "bq.buffer.format"
	AttrBufUsage   = "bq.buffer.usage"
	AttrGenID      = "bq.generation_id"
	AttrAutoTS     = "bq.auto_timestamp"
	AttrAsync      = "bq.async"

	// ========================================================================
	// Queue/cache depth attributes
	// ========================================================================
	AttrFreeListLen    = "bq.free_list_len"
	AttrDirtyListLen    = "bq.dirty_list_len"
	AttrCacheSize      = "bq.cache_size"
	AttrQueueSize      = "bq.queue_size"
	AttrMaxQueueSize   = "bq.max_queue_size"

	// ========================================================================
	// Fence attributes
	// ========================================================================
	AttrFenceSignalled = "bq.fence.signalled"
	AttrFenceOrigin    = "bq.fence.origin"

	// ========================================================================
	// Error / result attributes
	// ========================================================================
	AttrErrorKind = "bq.error_kind"

	// ========================================================================
	// Transport attributes
	// ========================================================================
	AttrOpcode = "bq.rpc.opcode"

	// ========================================================================
	// Listener attributes
	// ========================================================================
	AttrListenerKind = "bq.listener_kind"
)

// Span names for queue operations.
// Format: <component>.<operation>
const (
	SpanRequestBuffer      = "bufferqueue.RequestBuffer"
	SpanFlushBuffer        = "bufferqueue.FlushBuffer"
	SpanAcquireBuffer      = "bufferqueue.AcquireBuffer"
	SpanReleaseBuffer      = "bufferqueue.ReleaseBuffer"
	SpanCancelBuffer       = "bufferqueue.CancelBuffer"
	SpanAttachBuffer       = "bufferqueue.AttachBufferToQueue"
	SpanDetachBuffer       = "bufferqueue.DetachBufferFromQueue"
	SpanGetLastFlushed     = "bufferqueue.GetLastFlushedBuffer"
	SpanAcquireLastFlushed = "bufferqueue.AcquireLastFlushedBuffer"
	SpanReleaseLastFlushed = "bufferqueue.ReleaseLastFlushedBuffer"
	SpanSetQueueSize       = "bufferqueue.SetQueueSize"
	SpanSetMaxQueueSize    = "bufferqueue.SetMaxQueueSize"
	SpanCleanCache         = "bufferqueue.CleanCache"
	SpanGoBackground       = "bufferqueue.GoBackground"
	SpanOnConsumerDied     = "bufferqueue.OnConsumerDied"

	SpanProducerConnect    = "producer.Connect"
	SpanProducerDisconnect = "producer.Disconnect"

	SpanConsumerConnect = "consumer.Connect"

	SpanTransportDispatch = "transport.Dispatch"

	SpanLPPWrite = "lpp.Write"
	SpanLPPRead  = "lpp.Read"
)

// QueueID returns an attribute identifying the queue instance.
func QueueID(id string) attribute.KeyValue {
	return attribute.String(AttrQueueID, id)
}

// ConnID returns an attribute identifying a producer/consumer connection.
func ConnID(id string) attribute.KeyValue {
	return attribute.String(AttrConnID, id)
}

// ConsumerPid returns an attribute for the connected consumer's pid.
func ConsumerPid(pid int) attribute.KeyValue {
	return attribute.Int(AttrConsumerPid, pid)
}

// ProducerPid returns an attribute for the connected producer's pid.
func ProducerPid(pid int) attribute.KeyValue {
	return attribute.Int(AttrProducerPid, pid)
}

// Slot returns an attribute for the slot index a buffer occupies.
func Slot(slot int) attribute.KeyValue {
	return attribute.Int(AttrSlot, slot)
}

// Seq returns an attribute for a buffer's monotonic sequence number.
func Seq(seq uint64) attribute.KeyValue {
	return attribute.Int64(AttrSeq, int64(seq))
}

// SlotState returns an attribute for a slot's state-machine state name.
func SlotState(state string) attribute.KeyValue {
	return attribute.String(AttrSlotState, state)
}

// BufferDims returns width/height/format attributes for a requested or
// allocated buffer.
func BufferDims(width, height, format int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrBufWidth, width),
		attribute.Int(AttrBufHeight, height),
		attribute.Int(AttrBufFormat, format),
	}
}

// BufferUsage returns an attribute for the GPU/allocator usage flags.
func BufferUsage(usage uint64) attribute.KeyValue {
	return attribute.Int64(AttrBufUsage, int64(usage))
}

// GenerationID returns an attribute for a slot's allocator generation id.
func GenerationID(gen uint32) attribute.KeyValue {
	return attribute.Int64(AttrGenID, int64(gen))
}

// AutoTimestamp returns an attribute for whether a flush used an
// auto-generated timestamp.
func AutoTimestamp(auto bool) attribute.KeyValue {
	return attribute.Bool(AttrAutoTS, auto)
}

// Async returns an attribute for whether an acquire/release call ran in
// asynchronous (non-blocking) mode.
func Async(async bool) attribute.KeyValue {
	return attribute.Bool(AttrAsync, async)
}

// FreeListLen returns an attribute for the current free-list depth.
func FreeListLen(n int) attribute.KeyValue {
	return attribute.Int(AttrFreeListLen, n)
}

// DirtyListLen returns an attribute for the current dirty-list depth.
func DirtyListLen(n int) attribute.KeyValue {
	return attribute.Int(AttrDirtyListLen, n)
}

// CacheSize returns an attribute for the number of slots currently cached.
func CacheSize(n int) attribute.KeyValue {
	return attribute.Int(AttrCacheSize, n)
}

// QueueSize returns an attribute for the configured queue size.
func QueueSize(n int) attribute.KeyValue {
	return attribute.Int(AttrQueueSize, n)
}

// MaxQueueSize returns an attribute for the configured max queue size.
func MaxQueueSize(n int) attribute.KeyValue {
	return attribute.Int(AttrMaxQueueSize, n)
}

// FenceSignalled returns an attribute for whether a fence has signalled.
func FenceSignalled(signalled bool) attribute.KeyValue {
	return attribute.Bool(AttrFenceSignalled, signalled)
}

// FenceOrigin returns an attribute for a fence's origin tag.
func FenceOrigin(origin string) attribute.KeyValue {
	return attribute.String(AttrFenceOrigin, origin)
}

// ErrorKind returns an attribute for the closed ErrorKind set, set once the
// operation's outcome is known (empty string for success).
func ErrorKind(kind string) attribute.KeyValue {
	return attribute.String(AttrErrorKind, kind)
}

// Opcode returns an attribute for the RPC opcode dispatched over the
// Transport capability.
func Opcode(op uint32) attribute.KeyValue {
	return attribute.Int64(AttrOpcode, int64(op))
}

// ListenerKind returns an attribute for which listener registry fired.
func ListenerKind(kind string) attribute.KeyValue {
	return attribute.String(AttrListenerKind, kind)
}

// StartQueueSpan starts a span for a BufferQueue core operation, setting the
// queue id and slot/seq attributes that are already known at call time.
// Callers set AttrErrorKind via SetAttributes once the operation's outcome
// is known, per SPEC_FULL.md's span-wrapping convention.
func StartQueueSpan(ctx context.Context, spanName, queueID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{QueueID(queueID)}, attrs...)
	return StartSpan(ctx, spanName, trace.WithAttributes(allAttrs...))
}

// StartProducerSpan starts a span for a producer-facade operation.
func StartProducerSpan(ctx context.Context, spanName, connID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{ConnID(connID)}, attrs...)
	return StartSpan(ctx, spanName, trace.WithAttributes(allAttrs...))
}

// StartConsumerSpan starts a span for a consumer-facade operation.
func StartConsumerSpan(ctx context.Context, spanName, connID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{ConnID(connID)}, attrs...)
	return StartSpan(ctx, spanName, trace.WithAttributes(allAttrs...))
}

// StartTransportSpan starts a span for an RPC dispatch over the Transport
// capability.
func StartTransportSpan(ctx context.Context, opcode uint32, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{Opcode(opcode)}, attrs...)
	return StartSpan(ctx, SpanTransportDispatch, trace.WithAttributes(allAttrs...))
}

// FinishWithErrorKind sets the final error-kind attribute on a span and, for
// a non-empty kind, records it as an error-flavored event without failing
// the span's own status (queue errors like NoBuffer are expected outcomes,
// not span failures).
func FinishWithErrorKind(ctx context.Context, kind string) {
	if kind == "" {
		SetAttributes(ctx, ErrorKind(""))
		return
	}
	SetAttributes(ctx, ErrorKind(kind))
	AddEvent(ctx, "bq.error", ErrorKind(kind))
}

// DebugString renders a byte slice as a hex string for span attributes that
// carry opaque handle-shaped payloads (LPP ring entries, XDR parcels).
func DebugString(b []byte) string {
	return fmt.Sprintf("%x", b)
}
