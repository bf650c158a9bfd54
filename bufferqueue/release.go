package bufferqueue

import (
	"context"

	"github.com/vellumgfx/bufferqueue/fence"
)

// ReleaseBuffer implements spec.md §4.1.4 with releaserPid unset (0) — the
// ordinary consumer-driven release path. The drop paths in AcquireBuffer
// release through here too, with pid 0. Only a caller of ReleaseBufferAs
// that passes the connected producer's pid reaches the seq-and-fence
// pre-hand-out check in step 6.
func (q *Queue) ReleaseBuffer(ctx context.Context, seq uint32, releaseFence fence.Fence) error {
	return q.ReleaseBufferAs(ctx, seq, releaseFence, 0)
}

// ReleaseBufferAs is ReleaseBuffer parameterized by the releasing pid, used
// internally to drive the seq-and-fence pre-hand-out fast path.
func (q *Queue) ReleaseBufferAs(ctx context.Context, seq uint32, releaseFence fence.Fence, releaserPid int) error {
	const op = "ReleaseBuffer"
	ctx, finish := q.tracer.Start(ctx, op, q.id)
	var outErr error
	defer func() { finish(KindOf(outErr)) }()

	q.mu.Lock()

	slot := q.cache[seq]
	if slot == nil {
		q.mu.Unlock()
		outErr = newErrSeq(op, BufferNotInCache, seq)
		return outErr
	}
	if slot.State != Acquired && slot.State != Attached {
		q.mu.Unlock()
		outErr = newErrSeq(op, BufferStateInvalid, seq)
		return outErr
	}

	slot.ReleaseFence = fence.Merge(slot.ReleaseFence, releaseFence)

	isDeleting := slot.IsDeleting
	if isDeleting {
		delete(q.cache, seq)
		q.deletingList = append(q.deletingList, seq)
		q.dispatchDeleteListenersLocked(seq)
	} else {
		slot.State = Released
		q.freeList = append(q.freeList, seq)
	}

	q.recordDepthsLocked()
	q.waitReq.Broadcast()
	q.waitAttach.Broadcast()

	mergedFence := slot.ReleaseFence
	preHandOut := !isDeleting && releaserPid != 0 && releaserPid == q.connectedProducerPid

	q.mu.Unlock()

	q.releaseListener.Invoke(func(l ProducerReleaseListener) {
		l.OnBufferRelease(ctx, seq, mergedFence)
		q.metrics.RecordListenerDispatch("producer_release")

		if !preHandOut {
			return
		}
		sfl, ok := l.(SeqFenceListener)
		if !ok {
			return
		}
		pairs := q.preHandOutFreeSlots(ctx)
		if len(pairs) > 0 {
			sfl.OnBuffersAvailable(ctx, pairs)
			q.metrics.RecordListenerDispatch("seq_and_fence_prehandout")
		}
	})

	return nil
}

// preHandOutFreeSlots implements spec.md §4.1.4 step 6: for each distinct
// cached config among free slots, attempt one request-under-lock and
// collect the resulting (sequence, fence) pairs for the seq-and-fence
// listener.
func (q *Queue) preHandOutFreeSlots(ctx context.Context) []SeqFencePair {
	q.mu.Lock()
	defer q.mu.Unlock()

	seen := make(map[Config]bool)
	var pairs []SeqFencePair
	for _, seq := range append([]uint32(nil), q.freeList...) {
		if seq == q.acquireLastFlushedBufSequence {
			continue
		}
		slot := q.cache[seq]
		if slot == nil || seen[slot.Config] {
			continue
		}
		seen[slot.Config] = true

		if matched, ok := q.popMatchingFreeSlot(slot.Config); ok {
			m := q.cache[matched]
			m.State = Requested
			pairs = append(pairs, SeqFencePair{Sequence: matched, Fence: m.ReleaseFence})
		}
	}
	q.recordDepthsLocked()
	return pairs
}
