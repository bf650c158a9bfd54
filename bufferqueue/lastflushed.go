package bufferqueue

import "context"

// TransformMatrix is a row-major 4x4 transform matrix, as handed to the
// compositor alongside the last-flushed buffer.
type TransformMatrix [16]float64

// identityMatrix is the 4x4 identity.
var identityMatrix = TransformMatrix{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// applyTransform folds a Transform bitmask's flip/rotate bits into an
// existing 4x4 matrix's upper-left 2x2 block, composing m' = R * m.
func applyTransform(m TransformMatrix, t Transform) TransformMatrix {
	a00, a01 := m[0], m[1]
	a10, a11 := m[4], m[5]

	if t&TransformFlipH != 0 {
		a00, a01 = -a00, -a01
	}
	if t&TransformFlipV != 0 {
		a10, a11 = -a10, -a11
	}
	if t&TransformRotate90 != 0 {
		a00, a10 = a10, -a00
		a01, a11 = a11, -a01
	}

	m[0], m[1] = a00, a01
	m[4], m[5] = a10, a11
	return m
}

// ComputeTransformMatrix is the legacy transform computation: slot
// transform applied first, then the queue's current transform.
func ComputeTransformMatrix(slotTransform, queueTransform Transform) TransformMatrix {
	m := applyTransform(identityMatrix, slotTransform)
	return applyTransform(m, queueTransform)
}

// ComputeTransformMatrixV2 is the new transform computation: the queue's
// current transform applied first, then the slot's own transform —
// the opposite composition order from the legacy path.
func ComputeTransformMatrixV2(slotTransform, queueTransform Transform) TransformMatrix {
	m := applyTransform(identityMatrix, queueTransform)
	return applyTransform(m, slotTransform)
}

// LastFlushedResult is the reply shared by GetLastFlushedBuffer and
// AcquireLastFlushedBuffer.
type LastFlushedResult struct {
	Sequence  uint32
	Buffer    SurfaceBuffer
	Transform TransformMatrix
}

// GetLastFlushedBuffer implements spec.md §4.1.7. When needRecordSequence
// is true, the call pins the slot (invariant 4): it becomes unreachable by
// RequestBuffer until ReleaseLastFlushedBuffer unpins it.
func (q *Queue) GetLastFlushedBuffer(ctx context.Context, useV2 bool, needRecordSequence bool) (LastFlushedResult, error) {
	const op = "GetLastFlushedBuffer"
	_, finish := q.tracer.Start(ctx, op, q.id)
	var outErr error
	defer func() { finish(KindOf(outErr)) }()

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.lastFlushedSequence == 0 {
		outErr = newErr(op, NoBuffer)
		return LastFlushedResult{}, outErr
	}
	slot := q.cache[q.lastFlushedSequence]
	if slot == nil {
		outErr = newErrSeq(op, BufferNotInCache, q.lastFlushedSequence)
		return LastFlushedResult{}, outErr
	}
	if slot.Buffer.Usage&UsageProtected != 0 {
		outErr = newErrSeq(op, NotSupport, slot.Sequence)
		return LastFlushedResult{}, outErr
	}

	var matrix TransformMatrix
	if useV2 {
		matrix = ComputeTransformMatrixV2(slot.LastFlushedTransform, q.currentTransform)
	} else {
		matrix = ComputeTransformMatrix(slot.LastFlushedTransform, q.currentTransform)
	}

	if needRecordSequence {
		q.acquireLastFlushedBufSequence = slot.Sequence
	}

	return LastFlushedResult{Sequence: slot.Sequence, Buffer: slot.Buffer, Transform: matrix}, nil
}

// AcquireLastFlushedBuffer is GetLastFlushedBuffer with needRecordSequence
// always true — the pinning entry point.
func (q *Queue) AcquireLastFlushedBuffer(ctx context.Context, useV2 bool) (LastFlushedResult, error) {
	return q.GetLastFlushedBuffer(ctx, useV2, true)
}

// ReleaseLastFlushedBuffer unpins seq, allowing RequestBuffer to reach it
// again, and wakes any parked requesters.
func (q *Queue) ReleaseLastFlushedBuffer(ctx context.Context, seq uint32) error {
	const op = "ReleaseLastFlushedBuffer"
	_, finish := q.tracer.Start(ctx, op, q.id)
	var outErr error
	defer func() { finish(KindOf(outErr)) }()

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.acquireLastFlushedBufSequence != seq {
		outErr = newErrSeq(op, BufferStateInvalid, seq)
		return outErr
	}
	q.acquireLastFlushedBufSequence = 0
	q.waitReq.Broadcast()
	return nil
}
