package bufferqueue

import (
	"context"
	"time"

	"github.com/vellumgfx/bufferqueue/fence"
	"github.com/vellumgfx/bufferqueue/metrics"
)

// reallocWaitTimeout bounds the wait inside the realloc path when a
// free slot's buffer has gone stale (its data dropped by a concurrent
// detach) and must be re-populated by the allocator before reuse.
//
// Open question resolution (spec.md §9 / SPEC_FULL.md §9.1): the source's
// 3-second Wait() silently continues on expiry; we instead surface
// NoBuffer, since silent continuation with a still-empty buffer would hand
// the producer an unusable slot and violate the size-bound invariant if
// the caller then requests a second buffer believing the first failed.
const reallocWaitTimeout = 3 * time.Second

// RequestResult is RequestBuffer's reply: sequence, buffer (nil when the
// producer already caches the handle), release fence to await before CPU
// access, and the deleting-list vector drained for this reply.
type RequestResult struct {
	Sequence     uint32
	Buffer       *SurfaceBuffer
	ReleaseFence fence.Fence
	Deleting     []uint32
}

// RequestBuffer implements spec.md §4.1.1.
func (q *Queue) RequestBuffer(ctx context.Context, cfg Config, extraData map[string][]byte) (RequestResult, error) {
	const op = "RequestBuffer"
	ctx, finish := q.tracer.Start(ctx, op, q.id)
	var outErr error
	defer func() { finish(KindOf(outErr)) }()

	if !cfg.ColorGamut.Valid() || !cfg.Transform.Valid() {
		outErr = newErr(op, InvalidArguments)
		q.metrics.RequestOutcome(metrics.OutcomeError)
		return RequestResult{}, outErr
	}
	cfg.Usage |= DefaultUsage

	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.alive {
		outErr = newErr(op, NoConsumer)
		q.metrics.RequestOutcome(metrics.OutcomeError)
		return RequestResult{}, outErr
	}
	if !q.consumerListener.IsSet() {
		outErr = newErr(op, ConsumerUnregisteredListener)
		q.metrics.RequestOutcome(metrics.OutcomeError)
		return RequestResult{}, outErr
	}

	deadline := time.Now().Add(time.Duration(cfg.TimeoutMS) * time.Millisecond)

	for {
		q.waitAllocationLocked()
		if !q.alive {
			outErr = newErr(op, NoConsumer)
			return RequestResult{}, outErr
		}

		// Step 4: exact config match in freeList, not pinned.
		if seq, ok := q.popMatchingFreeSlot(cfg); ok {
			slot := q.cache[seq]
			slot.State = Requested
			slot.ExtraData = extraData
			q.metrics.RequestOutcome(metrics.OutcomeConfigReuse)
			result := RequestResult{Sequence: seq, ReleaseFence: slot.ReleaseFence, Deleting: q.drainDeletingListLocked()}
			q.recordDepthsLocked()
			return result, nil
		}

		// Step 5: any free slot — realloc it.
		if len(q.freeList) > 0 {
			seq, ok := q.popOldestFreeSlotSkippingPinned()
			if ok {
				buf, err := q.reallocSlotLocked(ctx, seq, cfg)
				if err != nil {
					outErr = err
					return RequestResult{}, outErr
				}
				slot := q.cache[seq]
				slot.State = Requested
				slot.Config = cfg
				slot.ExtraData = extraData
				q.metrics.RequestOutcome(metrics.OutcomeFreeListPop)
				result := RequestResult{Sequence: seq, Buffer: &buf, ReleaseFence: fence.Invalid, Deleting: q.drainDeletingListLocked()}
				q.recordDepthsLocked()
				return result, nil
			}
		}

		// Step 6: room to allocate fresh.
		if q.cacheSizeLocked() < q.queueSize-q.detachReserveSlotNum {
			seq, buf, err := q.allocateNewSlotLocked(ctx, cfg, extraData)
			if err != nil {
				outErr = err
				return RequestResult{}, outErr
			}
			q.metrics.RequestOutcome(metrics.OutcomeAllocated)
			result := RequestResult{Sequence: seq, Buffer: &buf, ReleaseFence: fence.Invalid, Deleting: q.drainDeletingListLocked()}
			q.recordDepthsLocked()
			return result, nil
		}

		// Step 7: cache full, nothing free.
		if q.requestNonBlocking {
			seq, rest, ok := popFront(q.dirtyList)
			if !ok {
				outErr = newErr(op, NoBuffer)
				q.metrics.RequestOutcome(metrics.OutcomeTimeout)
				return RequestResult{}, outErr
			}
			q.dirtyList = rest
			q.metrics.RecordDroppedFrame("nonblocking_request")
			buf, err := q.reallocSlotLocked(ctx, seq, cfg)
			if err != nil {
				outErr = err
				return RequestResult{}, outErr
			}
			slot := q.cache[seq]
			slot.State = Requested
			slot.Config = cfg
			slot.ExtraData = extraData
			q.metrics.RequestOutcome(metrics.OutcomeDropDirty)
			result := RequestResult{Sequence: seq, Buffer: &buf, ReleaseFence: fence.Invalid, Deleting: q.drainDeletingListLocked()}
			q.recordDepthsLocked()
			return result, nil
		}

		if !time.Now().Before(deadline) {
			outErr = newErr(op, NoBuffer)
			q.metrics.RequestOutcome(metrics.OutcomeTimeout)
			return RequestResult{}, outErr
		}
		q.waitCondDeadline(q.waitReq, deadline)
	}
}

// isPinnedLocked reports whether seq is excluded from reuse: either the
// acquired-last-flushed pin, or the CleanCache pre-cache pin (the latter
// only while the cache hasn't yet regrown to 2 or more entries — spec.md
// §8 scenario 5's "the pre-cache reference is dropped only once cache
// size ≥ 2").
func (q *Queue) isPinnedLocked(seq uint32) bool {
	if seq == q.acquireLastFlushedBufSequence {
		return true
	}
	return q.preCacheBuffer != nil && *q.preCacheBuffer == seq && q.cacheSizeLocked() < 2
}

// popMatchingFreeSlot implements step 4: search freeList for a slot whose
// cached config equals cfg's reuse key, skipping any pinned slot.
func (q *Queue) popMatchingFreeSlot(cfg Config) (uint32, bool) {
	for i, seq := range q.freeList {
		if q.isPinnedLocked(seq) {
			continue
		}
		slot := q.cache[seq]
		if slot != nil && slot.Config.EqualKey(cfg) {
			q.freeList = append(q.freeList[:i:i], q.freeList[i+1:]...)
			return seq, true
		}
	}
	return 0, false
}

// popOldestFreeSlotSkippingPinned implements step 5's "pop the oldest free
// slot (skipping the pinned slot, which is rotated to the back)".
func (q *Queue) popOldestFreeSlotSkippingPinned() (uint32, bool) {
	for len(q.freeList) > 0 {
		seq := q.freeList[0]
		if q.isPinnedLocked(seq) {
			// rotate pinned slot to the back and keep scanning
			q.freeList = append(q.freeList[1:], seq)
			if len(q.freeList) == 1 {
				// only the pinned slot remains
				return 0, false
			}
			continue
		}
		q.freeList = q.freeList[1:]
		return seq, true
	}
	return 0, false
}

// reallocSlotLocked reuses seq's existing buffer via the realloc path
// (spec.md §4.1.1 step 5): the allocator call runs with q.mu released. If
// the slot's buffer has gone stale (dropped by a concurrent detach), it
// waits up to reallocWaitTimeout for re-population before failing
// NoBuffer (Open Question #1 resolution above).
func (q *Queue) reallocSlotLocked(ctx context.Context, seq uint32, cfg Config) (SurfaceBuffer, error) {
	slot := q.cache[seq]
	if slot.Buffer.IsZero() {
		deadline := time.Now().Add(reallocWaitTimeout)
		for slot.Buffer.IsZero() && time.Now().Before(deadline) {
			q.waitCondDeadline(q.isAllocatingBufferCon, deadline)
			slot = q.cache[seq]
			if slot == nil {
				return SurfaceBuffer{}, newErrSeq("RequestBuffer", BufferNotInCache, seq)
			}
		}
		if slot.Buffer.IsZero() {
			return SurfaceBuffer{}, newErrSeq("RequestBuffer", NoBuffer, seq)
		}
	}

	if q.allocator == nil {
		return slot.Buffer, nil
	}

	var buf SurfaceBuffer
	var err error
	q.withAllocationUnlocked(func() {
		buf, err = q.allocator.Realloc(ctx, slot.Buffer, AllocRequest{Config: cfg, ConnectedPid: q.connectedProducerPid}, slot.IsBufferNeedRealloc)
	})
	if err != nil {
		return SurfaceBuffer{}, newErrWrap("RequestBuffer", Unknown, seq, err)
	}
	q.cache[seq].Buffer = buf
	if q.connectedProducerPid != 0 {
		_ = q.allocator.TagFd(buf, q.connectedProducerPid)
	}
	return buf, nil
}

// allocateNewSlotLocked implements step 6 and spec.md §4.1.9 (AllocBuffer):
// the allocator call runs with q.mu released, guarded by
// isAllocatingBuffer so concurrent requests park on isAllocatingBufferCon
// rather than observe a half-built cache entry.
func (q *Queue) allocateNewSlotLocked(ctx context.Context, cfg Config, extraData map[string][]byte) (uint32, SurfaceBuffer, error) {
	q.nextSequence++
	seq := q.nextSequence

	if q.allocator == nil {
		buf := SurfaceBuffer{Handle: syntheticHandle(seq), Width: cfg.Width, Height: cfg.Height, Format: cfg.Format, Usage: cfg.Usage}
		q.installSlot(seq, buf, cfg, extraData)
		return seq, buf, nil
	}

	var buf SurfaceBuffer
	var err error
	q.withAllocationUnlocked(func() {
		buf, err = q.allocator.Allocate(ctx, AllocRequest{Config: cfg, ConnectedPid: q.connectedProducerPid})
	})
	if err != nil {
		return 0, SurfaceBuffer{}, newErrWrap("RequestBuffer", Unknown, seq, err)
	}
	if q.connectedProducerPid != 0 {
		_ = q.allocator.TagFd(buf, q.connectedProducerPid)
	}
	q.installSlot(seq, buf, cfg, extraData)
	return seq, buf, nil
}

func (q *Queue) installSlot(seq uint32, buf SurfaceBuffer, cfg Config, extraData map[string][]byte) {
	q.cache[seq] = &Slot{
		Sequence:  seq,
		Buffer:    buf,
		State:     Requested,
		Config:    cfg,
		ExtraData: extraData,
	}
}

func syntheticHandle(seq uint32) string {
	return "bq-buf-" + itoa(seq)
}

func itoa(n uint32) string {
	if n == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
