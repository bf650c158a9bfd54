package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
)

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Enabled: false}

	shutdown, err := Init(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	err = shutdown(ctx)
	assert.NoError(t, err)

	assert.False(t, IsEnabled())
}

func TestTracerReturnsNoOp(t *testing.T) {
	tracer = nil
	enabled = false

	tr := Tracer()
	require.NotNil(t, tr)
}

func TestStartSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartSpan(ctx, "test.operation")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()
}

func TestSpanFromContext(t *testing.T) {
	ctx := context.Background()

	span := SpanFromContext(ctx)
	require.NotNil(t, span)
}

func TestAddEvent(t *testing.T) {
	ctx := context.Background()

	require.NotPanics(t, func() {
		AddEvent(ctx, "test.event")
	})
}

func TestRecordError(t *testing.T) {
	ctx := context.Background()

	require.NotPanics(t, func() {
		RecordError(ctx, nil)
	})
	require.NotPanics(t, func() {
		RecordError(ctx, errors.New("test error"))
	})
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()

	require.NotPanics(t, func() {
		SetStatus(ctx, codes.Ok, "success")
	})
	require.NotPanics(t, func() {
		SetStatus(ctx, codes.Error, "failed")
	})
}

func TestSetAttributes(t *testing.T) {
	ctx := context.Background()

	require.NotPanics(t, func() {
		SetAttributes(ctx, QueueID("test-queue"))
	})
}

func TestTraceID(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, "", TraceID(ctx))
}

func TestSpanID(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, "", SpanID(ctx))
}

func TestAttributeHelpers(t *testing.T) {
	t.Run("QueueID", func(t *testing.T) {
		attr := QueueID("q1")
		assert.Equal(t, AttrQueueID, string(attr.Key))
		assert.Equal(t, "q1", attr.Value.AsString())
	})

	t.Run("ConnID", func(t *testing.T) {
		attr := ConnID("conn-1")
		assert.Equal(t, AttrConnID, string(attr.Key))
		assert.Equal(t, "conn-1", attr.Value.AsString())
	})

	t.Run("ConsumerPid", func(t *testing.T) {
		attr := ConsumerPid(42)
		assert.Equal(t, AttrConsumerPid, string(attr.Key))
		assert.Equal(t, int64(42), attr.Value.AsInt64())
	})

	t.Run("ProducerPid", func(t *testing.T) {
		attr := ProducerPid(43)
		assert.Equal(t, AttrProducerPid, string(attr.Key))
		assert.Equal(t, int64(43), attr.Value.AsInt64())
	})

	t.Run("Slot", func(t *testing.T) {
		attr := Slot(3)
		assert.Equal(t, AttrSlot, string(attr.Key))
		assert.Equal(t, int64(3), attr.Value.AsInt64())
	})

	t.Run("Seq", func(t *testing.T) {
		attr := Seq(7)
		assert.Equal(t, AttrSeq, string(attr.Key))
		assert.Equal(t, int64(7), attr.Value.AsInt64())
	})

	t.Run("SlotState", func(t *testing.T) {
		attr := SlotState("Acquired")
		assert.Equal(t, AttrSlotState, string(attr.Key))
		assert.Equal(t, "Acquired", attr.Value.AsString())
	})

	t.Run("BufferDims", func(t *testing.T) {
		attrs := BufferDims(640, 480, 1)
		require.Len(t, attrs, 3)
		assert.Equal(t, AttrBufWidth, string(attrs[0].Key))
		assert.Equal(t, AttrBufHeight, string(attrs[1].Key))
		assert.Equal(t, AttrBufFormat, string(attrs[2].Key))
	})

	t.Run("BufferUsage", func(t *testing.T) {
		attr := BufferUsage(0xFF)
		assert.Equal(t, AttrBufUsage, string(attr.Key))
		assert.Equal(t, int64(0xFF), attr.Value.AsInt64())
	})

	t.Run("GenerationID", func(t *testing.T) {
		attr := GenerationID(9)
		assert.Equal(t, AttrGenID, string(attr.Key))
		assert.Equal(t, int64(9), attr.Value.AsInt64())
	})

	t.Run("AutoTimestamp", func(t *testing.T) {
		attr := AutoTimestamp(true)
		assert.Equal(t, AttrAutoTS, string(attr.Key))
		assert.True(t, attr.Value.AsBool())
	})

	t.Run("Async", func(t *testing.T) {
		attr := Async(false)
		assert.Equal(t, AttrAsync, string(attr.Key))
		assert.False(t, attr.Value.AsBool())
	})

	t.Run("FreeListLen", func(t *testing.T) {
		attr := FreeListLen(2)
		assert.Equal(t, AttrFreeListLen, string(attr.Key))
		assert.Equal(t, int64(2), attr.Value.AsInt64())
	})

	t.Run("DirtyListLen", func(t *testing.T) {
		attr := DirtyListLen(1)
		assert.Equal(t, AttrDirtyListLen, string(attr.Key))
		assert.Equal(t, int64(1), attr.Value.AsInt64())
	})

	t.Run("CacheSize", func(t *testing.T) {
		attr := CacheSize(3)
		assert.Equal(t, AttrCacheSize, string(attr.Key))
		assert.Equal(t, int64(3), attr.Value.AsInt64())
	})

	t.Run("QueueSize", func(t *testing.T) {
		attr := QueueSize(4)
		assert.Equal(t, AttrQueueSize, string(attr.Key))
		assert.Equal(t, int64(4), attr.Value.AsInt64())
	})

	t.Run("MaxQueueSize", func(t *testing.T) {
		attr := MaxQueueSize(8)
		assert.Equal(t, AttrMaxQueueSize, string(attr.Key))
		assert.Equal(t, int64(8), attr.Value.AsInt64())
	})

	t.Run("FenceSignalled", func(t *testing.T) {
		attr := FenceSignalled(true)
		assert.Equal(t, AttrFenceSignalled, string(attr.Key))
		assert.True(t, attr.Value.AsBool())
	})

	t.Run("FenceOrigin", func(t *testing.T) {
		attr := FenceOrigin("producer")
		assert.Equal(t, AttrFenceOrigin, string(attr.Key))
		assert.Equal(t, "producer", attr.Value.AsString())
	})

	t.Run("ErrorKind", func(t *testing.T) {
		attr := ErrorKind("NoBuffer")
		assert.Equal(t, AttrErrorKind, string(attr.Key))
		assert.Equal(t, "NoBuffer", attr.Value.AsString())
	})

	t.Run("Opcode", func(t *testing.T) {
		attr := Opcode(5)
		assert.Equal(t, AttrOpcode, string(attr.Key))
		assert.Equal(t, int64(5), attr.Value.AsInt64())
	})

	t.Run("ListenerKind", func(t *testing.T) {
		attr := ListenerKind("release")
		assert.Equal(t, AttrListenerKind, string(attr.Key))
		assert.Equal(t, "release", attr.Value.AsString())
	})
}

func TestStartQueueSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartQueueSpan(ctx, SpanRequestBuffer, "q1")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()

	newCtx2, span2 := StartQueueSpan(ctx, SpanFlushBuffer, "q1", Seq(1))
	require.NotNil(t, newCtx2)
	require.NotNil(t, span2)
	span2.End()
}

func TestStartProducerSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartProducerSpan(ctx, SpanProducerConnect, "conn-1")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()
}

func TestStartConsumerSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartConsumerSpan(ctx, SpanConsumerConnect, "conn-1")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()
}

func TestStartTransportSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartTransportSpan(ctx, 1)
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()
}

func TestFinishWithErrorKind(t *testing.T) {
	ctx := context.Background()

	require.NotPanics(t, func() {
		FinishWithErrorKind(ctx, "")
	})
	require.NotPanics(t, func() {
		FinishWithErrorKind(ctx, "NoBuffer")
	})
}

func TestDebugString(t *testing.T) {
	assert.Equal(t, "0102ff", DebugString([]byte{0x01, 0x02, 0xff}))
}

func TestQueueTracerStart(t *testing.T) {
	ctx := context.Background()
	tr := NewQueueTracer()

	newCtx, finish := tr.Start(ctx, "RequestBuffer", "q1")
	require.NotNil(t, newCtx)
	require.NotNil(t, finish)
	require.NotPanics(t, func() {
		finish("")
	})
}
