package bufferqueue

import (
	"context"

	"github.com/vellumgfx/bufferqueue/fence"
)

// FlushConfig carries the damage rectangles and presentation-timestamp
// inputs to FlushBuffer.
type FlushConfig struct {
	Damage                  []DamageRect
	DesiredPresentTimestamp int64
	UITimestamp             int64
	HasUITimestamp          bool
}

// FlushBuffer implements spec.md §4.1.2: transitions a Requested (or
// Attached-treated-as-Requested) slot to Flushed.
func (q *Queue) FlushBuffer(ctx context.Context, seq uint32, extraData map[string][]byte, flushFence fence.Fence, cfg FlushConfig) error {
	const op = "FlushBuffer"
	ctx, finish := q.tracer.Start(ctx, op, q.id)
	var outErr error
	defer func() { finish(KindOf(outErr)) }()

	for _, d := range cfg.Damage {
		if !d.Valid() {
			outErr = newErrSeq(op, InvalidArguments, seq)
			return outErr
		}
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.alive {
		outErr = newErrSeq(op, NoConsumer, seq)
		return outErr
	}

	slot := q.cache[seq]
	if slot == nil {
		outErr = newErrSeq(op, BufferNotInCache, seq)
		return outErr
	}
	if slot.State != Requested && slot.State != Attached {
		outErr = newErrSeq(op, BufferStateInvalid, seq)
		return outErr
	}

	if slot.IsDeleting {
		delete(q.cache, seq)
		q.deletingList = append(q.deletingList, seq)
		q.dispatchDeleteListenersLocked(seq)
		q.recordDepthsLocked()
		return nil
	}

	slot.ExtraData = extraData
	slot.FlushTimestamp = q.clock()
	slot.FlushFence = flushFence
	slot.Damage = cfg.Damage
	slot.LastFlushedTransform = q.currentTransform

	switch {
	case cfg.DesiredPresentTimestamp > 0:
		slot.DesiredPresentTimestamp = cfg.DesiredPresentTimestamp
		slot.IsAutoTimestamp = false
	case cfg.DesiredPresentTimestamp == 0 && cfg.HasUITimestamp:
		slot.DesiredPresentTimestamp = cfg.UITimestamp
		slot.IsAutoTimestamp = false
	default:
		slot.DesiredPresentTimestamp = q.clock().UnixNano()
		slot.IsAutoTimestamp = true
	}

	if slot.Config.Usage&UsageCPUWrite != 0 && q.allocator != nil {
		// FlushCache: cache-line flush of CPU writes before the consumer
		// reads the buffer. Modeled as a Realloc-free no-data-change call
		// through the allocator's Realloc with needRealloc=false so a real
		// allocator can issue the underlying cache-flush ioctl.
		_, _ = q.allocator.Realloc(ctx, slot.Buffer, AllocRequest{Config: slot.Config, ConnectedPid: q.connectedProducerPid}, false)
	}

	slot.State = Flushed
	q.dirtyList = append(q.dirtyList, seq)
	q.lastFlushedSequence = seq
	q.lastFlushedFence = flushFence
	q.lastFlushedDesiredPresentTimeStamp = slot.DesiredPresentTimestamp

	q.recordDepthsLocked()

	q.mu.Unlock()
	q.consumerListener.Invoke(func(l ConsumerListener) {
		l.OnBufferAvailable(ctx, seq)
	})
	q.mu.Lock()

	return nil
}

// dispatchDeleteListenersLocked invokes every registered delete-buffer
// listener from inside the queue mutex, per spec.md §4.3 — these
// listeners must be side-effect-free w.r.t. the queue.
func (q *Queue) dispatchDeleteListenersLocked(seq uint32) {
	for _, l := range q.deleteListeners {
		l.OnBufferDelete(seq)
	}
}
