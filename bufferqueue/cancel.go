package bufferqueue

import "context"

// CancelBuffer implements spec.md §4.1.5.
func (q *Queue) CancelBuffer(ctx context.Context, seq uint32, extraData map[string][]byte) error {
	const op = "CancelBuffer"
	_, finish := q.tracer.Start(ctx, op, q.id)
	var outErr error
	defer func() { finish(KindOf(outErr)) }()

	q.mu.Lock()
	defer q.mu.Unlock()

	slot := q.cache[seq]
	if slot == nil {
		outErr = newErrSeq(op, BufferNotInCache, seq)
		return outErr
	}
	if slot.State != Requested && slot.State != Attached {
		outErr = newErrSeq(op, BufferStateInvalid, seq)
		return outErr
	}

	slot.State = Released
	q.freeList = append(q.freeList, seq)
	slot.ExtraData = extraData
	slot.ListenerClientPid = 0

	q.recordDepthsLocked()
	q.waitReq.Broadcast()
	q.waitAttach.Broadcast()

	return nil
}
