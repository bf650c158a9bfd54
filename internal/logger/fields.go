package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys for structured logging across the core, the
// producer/consumer facades, and the transport layer. Use these keys
// consistently so log aggregation/querying lines up with the equivalent
// OTel span attributes in internal/telemetry.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Queue / connection identity
	// ========================================================================
	KeyQueueID      = "queue_id"      // BufferQueue instance identifier
	KeyConnID       = "conn_id"       // Producer/consumer connection id
	KeyOp           = "op"            // Operation name: RequestBuffer, FlushBuffer, etc.
	KeyProducerPid  = "producer_pid"  // Connected producer's pid
	KeyConsumerPid  = "consumer_pid"  // Connected consumer's pid

	// ========================================================================
	// Slot / buffer attributes
	// ========================================================================
	KeySlot       = "slot"       // Slot index
	KeySeq        = "seq"        // Monotonic buffer sequence number
	KeySlotState  = "slot_state" // Slot state-machine state name
	KeyBufWidth   = "buf_width"
	KeyBufHeight  = "buf_height"
	KeyBufFormat  = "buf_format"
	KeyBufUsage   = "buf_usage"
	KeyGenID      = "generation_id" // Allocator generation id
	KeyAutoTS     = "auto_timestamp"
	KeyAsync      = "async"

	// ========================================================================
	// Queue/cache depth attributes
	// ========================================================================
	KeyFreeListLen  = "free_list_len"
	KeyDirtyListLen = "dirty_list_len"
	KeyCacheSize    = "cache_size"
	KeyQueueSize    = "queue_size"
	KeyMaxQueueSize = "max_queue_size"

	// ========================================================================
	// Fence attributes
	// ========================================================================
	KeyFenceSignalled = "fence_signalled"
	KeyFenceOrigin    = "fence_origin"

	// ========================================================================
	// Error / result attributes
	// ========================================================================
	KeyErrorKind = "error_kind"
	KeyError     = "error"
	KeyErrorCode = "error_code"

	// ========================================================================
	// Transport attributes
	// ========================================================================
	KeyOpcode = "opcode"

	// ========================================================================
	// Listener attributes
	// ========================================================================
	KeyListenerKind = "listener_kind"

	// ========================================================================
	// Operation metadata
	// ========================================================================
	KeyDurationMs  = "duration_ms"
	KeyAttempt     = "attempt"
	KeyMaxRetries  = "max_retries"
)

// ----------------------------------------------------------------------------
// Distributed Tracing
// ----------------------------------------------------------------------------

// TraceID returns a slog.Attr for the OpenTelemetry trace ID.
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for the OpenTelemetry span ID.
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// ----------------------------------------------------------------------------
// Queue / connection identity
// ----------------------------------------------------------------------------

// QueueID returns a slog.Attr identifying the queue instance.
func QueueID(id string) slog.Attr {
	return slog.String(KeyQueueID, id)
}

// ConnID returns a slog.Attr identifying a producer/consumer connection.
func ConnID(id string) slog.Attr {
	return slog.String(KeyConnID, id)
}

// Op returns a slog.Attr for the operation name.
func Op(name string) slog.Attr {
	return slog.String(KeyOp, name)
}

// ProducerPid returns a slog.Attr for the connected producer's pid.
func ProducerPid(pid uint32) slog.Attr {
	return slog.Any(KeyProducerPid, pid)
}

// ConsumerPid returns a slog.Attr for the connected consumer's pid.
func ConsumerPid(pid uint32) slog.Attr {
	return slog.Any(KeyConsumerPid, pid)
}

// ----------------------------------------------------------------------------
// Slot / buffer attributes
// ----------------------------------------------------------------------------

// Slot returns a slog.Attr for a slot index.
func Slot(slot int) slog.Attr {
	return slog.Int(KeySlot, slot)
}

// Seq returns a slog.Attr for a buffer's monotonic sequence number.
func Seq(seq uint32) slog.Attr {
	return slog.Any(KeySeq, seq)
}

// SlotState returns a slog.Attr for a slot's state-machine state name.
func SlotState(state string) slog.Attr {
	return slog.String(KeySlotState, state)
}

// BufWidth returns a slog.Attr for a buffer's width.
func BufWidth(w int32) slog.Attr {
	return slog.Any(KeyBufWidth, w)
}

// BufHeight returns a slog.Attr for a buffer's height.
func BufHeight(h int32) slog.Attr {
	return slog.Any(KeyBufHeight, h)
}

// BufFormat returns a slog.Attr for a buffer's pixel format.
func BufFormat(format int) slog.Attr {
	return slog.Int(KeyBufFormat, format)
}

// BufUsage returns a slog.Attr for the GPU/allocator usage flags.
func BufUsage(usage uint64) slog.Attr {
	return slog.Uint64(KeyBufUsage, usage)
}

// GenID returns a slog.Attr for a slot's allocator generation id.
func GenID(gen uint32) slog.Attr {
	return slog.Any(KeyGenID, gen)
}

// AutoTimestamp returns a slog.Attr for whether a flush used an
// auto-generated timestamp.
func AutoTimestamp(auto bool) slog.Attr {
	return slog.Bool(KeyAutoTS, auto)
}

// Async returns a slog.Attr for whether an acquire/release call ran in
// asynchronous (non-blocking) mode.
func Async(async bool) slog.Attr {
	return slog.Bool(KeyAsync, async)
}

// ----------------------------------------------------------------------------
// Queue/cache depth attributes
// ----------------------------------------------------------------------------

// FreeListLen returns a slog.Attr for the current free-list depth.
func FreeListLen(n int) slog.Attr {
	return slog.Int(KeyFreeListLen, n)
}

// DirtyListLen returns a slog.Attr for the current dirty-list depth.
func DirtyListLen(n int) slog.Attr {
	return slog.Int(KeyDirtyListLen, n)
}

// CacheSize returns a slog.Attr for the number of slots currently cached.
func CacheSize(n int) slog.Attr {
	return slog.Int(KeyCacheSize, n)
}

// QueueSize returns a slog.Attr for the configured queue size.
func QueueSize(n int) slog.Attr {
	return slog.Int(KeyQueueSize, n)
}

// MaxQueueSize returns a slog.Attr for the configured max queue size.
func MaxQueueSize(n int) slog.Attr {
	return slog.Int(KeyMaxQueueSize, n)
}

// ----------------------------------------------------------------------------
// Fence attributes
// ----------------------------------------------------------------------------

// FenceSignalled returns a slog.Attr for whether a fence has signalled.
func FenceSignalled(signalled bool) slog.Attr {
	return slog.Bool(KeyFenceSignalled, signalled)
}

// FenceOrigin returns a slog.Attr for a fence's origin tag.
func FenceOrigin(origin string) slog.Attr {
	return slog.String(KeyFenceOrigin, origin)
}

// ----------------------------------------------------------------------------
// Error / result attributes
// ----------------------------------------------------------------------------

// ErrorKind returns a slog.Attr for the closed ErrorKind set.
func ErrorKind(kind string) slog.Attr {
	return slog.String(KeyErrorKind, kind)
}

// Err returns a slog.Attr for an error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a numeric error code.
func ErrorCode(code int) slog.Attr {
	return slog.Int(KeyErrorCode, code)
}

// ----------------------------------------------------------------------------
// Transport attributes
// ----------------------------------------------------------------------------

// Opcode returns a slog.Attr for the RPC opcode dispatched over the
// Transport capability.
func Opcode(op uint32) slog.Attr {
	return slog.Any(KeyOpcode, op)
}

// ----------------------------------------------------------------------------
// Listener attributes
// ----------------------------------------------------------------------------

// ListenerKind returns a slog.Attr for which listener registry fired.
func ListenerKind(kind string) slog.Attr {
	return slog.String(KeyListenerKind, kind)
}

// ----------------------------------------------------------------------------
// Operation metadata
// ----------------------------------------------------------------------------

// DurationMs returns a slog.Attr for duration in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Attempt returns a slog.Attr for a retry attempt number (allocator realloc
// waits, OTLP exporter retries).
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// MaxRetries returns a slog.Attr for the maximum retry attempts.
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}

// HandleHex formats an opaque byte handle (LPP ring entry, XDR parcel) as a
// hex string field, keyed by the caller-supplied name.
func HandleHex(key string, b []byte) slog.Attr {
	return slog.String(key, fmt.Sprintf("%x", b))
}
