package bufferqueue

import (
	"context"
	"time"
)

// AttachBufferToQueue implements the producer-side half of spec.md §4.1.6:
// installs a Requested slot around an externally-allocated buffer, for
// surface migration between queues without copying pixel data. A cached
// Released slot under seq is taken over at once; if seq is cached in any
// other state, the caller waits on waitAttach (up to timeoutMs) for it to
// be released or removed, and fails BufferIsInCache at the deadline.
func (q *Queue) AttachBufferToQueue(ctx context.Context, seq uint32, buf SurfaceBuffer, cfg Config, timeoutMs int32) error {
	const op = "AttachBufferToQueue"
	_, finish := q.tracer.Start(ctx, op, q.id)
	var outErr error
	defer func() { finish(KindOf(outErr)) }()

	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.awaitAttachTargetLocked(seq, timeoutMs); err != nil {
		outErr = err
		return outErr
	}
	if err := q.roomForAttachLocked(); err != nil {
		outErr = err
		return outErr
	}

	q.cache[seq] = &Slot{Sequence: seq, Buffer: buf, Config: cfg, State: Requested}
	if q.detachReserveSlotNum > 0 {
		q.detachReserveSlotNum--
	}
	q.recordDepthsLocked()
	return nil
}

// AttachConsumerBuffer installs an Acquired slot around an
// externally-allocated buffer on the consumer side, decrementing
// detachReserveSlotNum if a prior consumer detach reserved capacity.
func (q *Queue) AttachConsumerBuffer(ctx context.Context, seq uint32, buf SurfaceBuffer, cfg Config, timeoutMs int32) error {
	const op = "AttachBufferToQueue"
	_, finish := q.tracer.Start(ctx, op, q.id)
	var outErr error
	defer func() { finish(KindOf(outErr)) }()

	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.awaitAttachTargetLocked(seq, timeoutMs); err != nil {
		outErr = err
		return outErr
	}
	if err := q.roomForAttachLocked(); err != nil {
		outErr = err
		return outErr
	}

	q.cache[seq] = &Slot{Sequence: seq, Buffer: buf, Config: cfg, State: Acquired}
	if q.detachReserveSlotNum > 0 {
		q.detachReserveSlotNum--
	}
	q.recordDepthsLocked()
	return nil
}

// awaitAttachTargetLocked waits on waitAttach, up to timeoutMs, for seq to
// either be absent from the cache or sitting Released, per spec.md §5's
// waitAttach suspension point. Caller holds q.mu.
func (q *Queue) awaitAttachTargetLocked(seq uint32, timeoutMs int32) error {
	deadline := time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)
	for {
		existing, exists := q.cache[seq]
		if !exists {
			return nil
		}
		if existing.State == Released {
			q.freeList = removeFromList(q.freeList, seq)
			return nil
		}
		if !time.Now().Before(deadline) {
			return newErrSeq("AttachBufferToQueue", BufferIsInCache, seq)
		}
		q.waitCondDeadline(q.waitAttach, deadline)
	}
}

// roomForAttachLocked enforces BufferQueueFull unless a prior detach
// reservation already accounts for the new entry.
func (q *Queue) roomForAttachLocked() error {
	if q.cacheSizeLocked() >= q.queueSize && q.detachReserveSlotNum == 0 {
		return newErr("AttachBufferToQueue", BufferQueueFull)
	}
	return nil
}

// DetachProducerBuffer implements the producer-side half of spec.md
// §4.1.6: removes a Requested (or Attached) slot from the cache so it can
// be migrated to another queue. The core guarantees the buffer never
// appears in two queues simultaneously by removing it here before the
// caller attaches it elsewhere.
func (q *Queue) DetachProducerBuffer(ctx context.Context, seq uint32) (SurfaceBuffer, error) {
	const op = "DetachBufferFromQueue"
	_, finish := q.tracer.Start(ctx, op, q.id)
	var outErr error
	defer func() { finish(KindOf(outErr)) }()

	q.mu.Lock()
	defer q.mu.Unlock()

	slot := q.cache[seq]
	if slot == nil {
		outErr = newErrSeq(op, BufferNotInCache, seq)
		return SurfaceBuffer{}, outErr
	}
	if slot.State != Requested && slot.State != Attached {
		outErr = newErrSeq(op, BufferStateInvalid, seq)
		return SurfaceBuffer{}, outErr
	}

	buf := slot.Buffer
	delete(q.cache, seq)
	q.dispatchDeleteListenersLocked(seq)
	q.recordDepthsLocked()
	q.waitReq.Broadcast()
	q.waitAttach.Broadcast()
	return buf, nil
}

// DetachConsumerBuffer implements the consumer-side half of spec.md
// §4.1.6. When reserve is true, the freed capacity is held out of
// freeList/new-allocation reach (detachReserveSlotNum) until a future
// attach or shrink consumes the reservation — so the producer cannot
// race-fill it.
func (q *Queue) DetachConsumerBuffer(ctx context.Context, seq uint32, reserve bool) (SurfaceBuffer, error) {
	const op = "DetachBufferFromQueue"
	_, finish := q.tracer.Start(ctx, op, q.id)
	var outErr error
	defer func() { finish(KindOf(outErr)) }()

	q.mu.Lock()
	defer q.mu.Unlock()

	slot := q.cache[seq]
	if slot == nil {
		outErr = newErrSeq(op, BufferNotInCache, seq)
		return SurfaceBuffer{}, outErr
	}
	if slot.State != Acquired && slot.State != Attached {
		outErr = newErrSeq(op, BufferStateInvalid, seq)
		return SurfaceBuffer{}, outErr
	}

	buf := slot.Buffer
	delete(q.cache, seq)
	q.dispatchDeleteListenersLocked(seq)
	if reserve {
		q.detachReserveSlotNum++
	}
	q.recordDepthsLocked()
	q.waitReq.Broadcast()
	q.waitAttach.Broadcast()
	return buf, nil
}
