package bufferqueue

import (
	"context"

	"github.com/vellumgfx/bufferqueue/fence"
)

// ConsumerListener receives flush/cache-lifecycle/property notifications.
// Dispatched on the producer's calling goroutine after the queue mutex is
// released (spec.md §4.4).
type ConsumerListener interface {
	OnBufferAvailable(ctx context.Context, seq uint32)
	OnCleanCache(ctx context.Context, seq uint32, isPreCache bool)
	OnGoBackground(ctx context.Context)
	OnTransformChange(ctx context.Context, t Transform)
	OnTunnelHandleChange(ctx context.Context, fd int)
}

// SeqFencePair is one (sequence, release fence) tuple handed to a
// seq-and-fence producer listener during the pre-hand-out fast path
// (spec.md §4.1.4 step 6).
type SeqFencePair struct {
	Sequence uint32
	Fence    fence.Fence
}

// ProducerReleaseListener is notified whenever a buffer is released back
// to the free list. Dispatched on the consumer's calling goroutine after
// the queue mutex is released.
type ProducerReleaseListener interface {
	OnBufferRelease(ctx context.Context, seq uint32, f fence.Fence)
}

// SeqFenceListener is the "seq-and-fence" flavor of ProducerReleaseListener
// (spec.md §4.1.4 step 6): when the releasing pid matches the connected
// producer pid, the queue additionally pre-hands-out any free slots whose
// config the producer is likely to re-request.
type SeqFenceListener interface {
	ProducerReleaseListener
	OnBuffersAvailable(ctx context.Context, pairs []SeqFencePair)
}

// PropertyChangeListener receives transform-hint change notifications.
// Registered per producer id; the setter's own id is excluded from fanout
// (spec.md §4.4).
type PropertyChangeListener interface {
	OnTransformHintChanged(ctx context.Context, producerID string, hint Transform)
}

// DeleteBufferListener is invoked from inside the queue mutex during cache
// eviction (spec.md §4.3) — implementations must be side-effect-free with
// respect to the queue: no calling back into any BufferQueue method.
type DeleteBufferListener interface {
	OnBufferDelete(seq uint32)
}
