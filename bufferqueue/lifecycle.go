package bufferqueue

import "context"

// SetQueueSize implements spec.md §4.1.8: clamps to [1,64] and to
// maxQueueSize if set. Shrinking reaps buffers via deleteBuffersLocked;
// growing wakes parked requesters.
func (q *Queue) SetQueueSize(ctx context.Context, n int) error {
	const op = "SetQueueSize"
	_, finish := q.tracer.Start(ctx, op, q.id)
	defer finish("")

	q.mu.Lock()
	defer q.mu.Unlock()

	newSize := clampQueueSize(n, q.maxQueueSize)
	if newSize < q.queueSize {
		q.deleteBuffersLocked(q.queueSize - newSize)
	}
	grow := newSize > q.queueSize
	q.queueSize = newSize
	if grow {
		q.waitReq.Broadcast()
	}
	q.recordDepthsLocked()
	return nil
}

// SetMaxQueueSize sets the hard ceiling queueSize may never exceed, and
// immediately re-clamps the current queueSize against it.
func (q *Queue) SetMaxQueueSize(ctx context.Context, n int) error {
	const op = "SetMaxQueueSize"
	_, finish := q.tracer.Start(ctx, op, q.id)
	defer finish("")

	q.mu.Lock()
	defer q.mu.Unlock()

	q.maxQueueSize = n
	newSize := clampQueueSize(q.queueSize, n)
	if newSize < q.queueSize {
		q.deleteBuffersLocked(q.queueSize - newSize)
	}
	q.queueSize = newSize
	q.recordDepthsLocked()
	return nil
}

// deleteBuffersLocked reaps n cache entries for a queue-size shrink:
// freeList first, then dirtyList, then marks any remaining entries
// isDeleting so they are reaped as they return through Flush/Release.
// Each shrink also consumes one pending consumer-detach reservation
// (detachReserveSlotNum). Caller holds q.mu.
func (q *Queue) deleteBuffersLocked(n int) {
	if q.detachReserveSlotNum > 0 {
		q.detachReserveSlotNum--
	}
	for n > 0 && len(q.freeList) > 0 {
		seq := q.freeList[0]
		q.freeList = q.freeList[1:]
		delete(q.cache, seq)
		q.deletingList = append(q.deletingList, seq)
		q.dispatchDeleteListenersLocked(seq)
		n--
	}
	for n > 0 && len(q.dirtyList) > 0 {
		seq := q.dirtyList[0]
		q.dirtyList = q.dirtyList[1:]
		delete(q.cache, seq)
		q.deletingList = append(q.deletingList, seq)
		q.dispatchDeleteListenersLocked(seq)
		n--
	}
	if n <= 0 {
		return
	}
	marked := 0
	for _, slot := range q.cache {
		if marked >= n {
			break
		}
		if !slot.IsDeleting {
			slot.IsDeleting = true
			marked++
		}
	}
}

// CleanCache implements spec.md §4.1.8: drops every cache entry except
// the last-flushed slot, queueing the dropped sequences on deletingList.
// That slot, if still cached, is kept alone as a Released free slot and
// marked as the pre-cache buffer. OnCleanCache (or OnGoBackground when
// cleanAll) fires after q.mu is released.
//
// Open question resolution (spec.md §9 / SPEC_FULL.md §9.3): cleanAll
// clears preCacheBuffer too, reading "clean all" as including the
// pre-cache pin; the cleanAll=false path (driven by
// GetLastFlushedBuffer's keep-alive use) is the one that preserves it.
func (q *Queue) CleanCache(ctx context.Context, cleanAll bool) (outSeq uint32, err error) {
	const op = "CleanCache"
	ctx, finish := q.tracer.Start(ctx, op, q.id)
	defer func() { finish(KindOf(err)) }()

	q.mu.Lock()

	if q.lastFlushedSequence != 0 {
		if _, ok := q.cache[q.lastFlushedSequence]; ok {
			outSeq = q.lastFlushedSequence
			q.preCacheBuffer = &outSeq
		}
	}

	for seq := range q.cache {
		if seq != outSeq {
			q.deletingList = append(q.deletingList, seq)
		}
	}
	q.cache = make(map[uint32]*Slot)
	if outSeq != 0 {
		// Re-insert the pre-cache pin alone so a future cache-size≥2
		// check (spec.md §3's ownership note) can detect and drop it.
		q.cache[outSeq] = &Slot{Sequence: outSeq, State: Released}
		q.freeList = []uint32{outSeq}
	} else {
		q.freeList = nil
	}
	q.dirtyList = nil

	if cleanAll {
		q.preCacheBuffer = nil
	}

	q.recordDepthsLocked()
	q.mu.Unlock()

	q.consumerListener.Invoke(func(l ConsumerListener) {
		if cleanAll {
			l.OnGoBackground(ctx)
		} else {
			l.OnCleanCache(ctx, outSeq, q.preCacheBuffer != nil)
		}
	})

	return outSeq, nil
}

// GoBackground is CleanCache(cleanAll=true): the consumer side is expected
// to detach all its references once this returns.
func (q *Queue) GoBackground(ctx context.Context) error {
	_, err := q.CleanCache(ctx, true)
	return err
}

// OnConsumerDied wipes all queue state without firing listener callbacks
// and wakes every waiter with the status flipped to dead.
func (q *Queue) OnConsumerDied(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.alive = false
	q.cache = make(map[uint32]*Slot)
	q.freeList = nil
	q.dirtyList = nil
	q.deletingList = nil
	q.preCacheBuffer = nil
	q.acquireLastFlushedBufSequence = 0
	q.consumerListener.Clear()
	q.releaseListener.Clear()

	q.recordDepthsLocked()
	q.waitReq.Broadcast()
	q.waitAttach.Broadcast()
	q.isAllocatingBufferCon.Broadcast()
}

// SetStatus flips the queue's alive flag. Setting it false wakes every
// waiter so in-flight calls fail cleanly with NoConsumer instead of
// blocking until their timeout.
func (q *Queue) SetStatus(alive bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.alive = alive
	if !alive {
		q.waitReq.Broadcast()
		q.waitAttach.Broadcast()
		q.isAllocatingBufferCon.Broadcast()
	}
}

// SetTransform updates the queue's current transform, applied to future
// flushes. Fires the PropertyChangeListener fanout (excluding excludeID)
// only when the value actually changes.
//
// Open question resolution (spec.md §9 / SPEC_FULL.md §9.2):
// short-circuit on equality, matching the teacher's general aversion to
// notifying on no-op setters.
func (q *Queue) SetTransform(ctx context.Context, excludeID string, t Transform) error {
	const op = "SetTransform"
	_, finish := q.tracer.Start(ctx, op, q.id)
	defer finish("")

	q.mu.Lock()
	changed := q.currentTransform != t
	if changed {
		q.currentTransform = t
	}
	q.mu.Unlock()

	if !changed {
		return nil
	}

	q.consumerListener.Invoke(func(l ConsumerListener) {
		l.OnTransformChange(ctx, t)
	})
	q.propertyChange.Fanout(excludeID, func(id string, l PropertyChangeListener) {
		l.OnTransformHintChanged(ctx, id, t)
	})
	return nil
}

// GetTransform returns the queue's current transform.
func (q *Queue) GetTransform() Transform {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.currentTransform
}
