package bufferqueue

import (
	"context"
	"time"

	"github.com/vellumgfx/bufferqueue/fence"
)

const oneSecondNanos = int64(time.Second)

// AcquireResult is AcquireBuffer's reply.
type AcquireResult struct {
	Sequence  uint32
	Buffer    SurfaceBuffer
	Fence     fence.Fence
	Timestamp int64
	Damage    []DamageRect
}

// AcquireBuffer implements spec.md §4.1.3's no-timestamp variant: pop the
// dirtyList front unconditionally.
func (q *Queue) AcquireBuffer(ctx context.Context) (AcquireResult, error) {
	const op = "AcquireBuffer"
	_, finish := q.tracer.Start(ctx, op, q.id)
	var outErr error
	defer func() { finish(KindOf(outErr)) }()

	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.alive {
		outErr = newErr(op, NoConsumer)
		return AcquireResult{}, outErr
	}
	seq, rest, ok := popFront(q.dirtyList)
	if !ok {
		outErr = newErr(op, NoBuffer)
		return AcquireResult{}, outErr
	}
	q.dirtyList = rest

	slot := q.cache[seq]
	slot.State = Acquired
	slot.LastAcquireTime = q.clock()
	q.recordDepthsLocked()

	return AcquireResult{
		Sequence:  seq,
		Buffer:    slot.Buffer,
		Fence:     slot.FlushFence,
		Timestamp: slot.DesiredPresentTimestamp,
		Damage:    slot.Damage,
	}, nil
}

// AcquireBufferWithTimestamp implements spec.md §4.1.3's
// expected-present-timestamp variant: drop-by-level first, then
// drop-by-timestamp, matching "Tests in §8.4 verify both are applied ...
// without double-counting" — each dropped slot transitions through
// Acquired and is released exactly once via the normal ReleaseBuffer path
// after the queue mutex is released.
func (q *Queue) AcquireBufferWithTimestamp(ctx context.Context, expectPresentTimestamp int64, isUsingAutoTimestamp bool) (AcquireResult, error) {
	const op = "AcquireBuffer"
	ctx, finish := q.tracer.Start(ctx, op, q.id)
	var outErr error
	defer func() { finish(KindOf(outErr)) }()

	q.mu.Lock()

	if !q.alive {
		q.mu.Unlock()
		outErr = newErr(op, NoConsumer)
		return AcquireResult{}, outErr
	}
	if len(q.dirtyList) == 0 {
		q.mu.Unlock()
		outErr = newErr(op, NoBuffer)
		return AcquireResult{}, outErr
	}

	var dropped []uint32

	// Drop-by-level: bound the backlog to dropFrameLevel before consulting
	// presentation timestamps.
	if q.dropFrameLevel > 0 && len(q.dirtyList) > q.dropFrameLevel {
		n := len(q.dirtyList) - q.dropFrameLevel
		for i := 0; i < n; i++ {
			seq := q.dirtyList[0]
			q.dirtyList = q.dirtyList[1:]
			slot := q.cache[seq]
			slot.State = Acquired
			slot.LastAcquireTime = q.clock()
			dropped = append(dropped, seq)
			q.metrics.RecordDroppedFrame("level")
		}
	}

	if len(q.dirtyList) == 0 {
		q.recordDepthsLocked()
		q.mu.Unlock()
		q.releaseDropped(ctx, dropped)
		outErr = newErr(op, NoBuffer)
		return AcquireResult{}, outErr
	}

	// Drop-by-timestamp: respects intent by skipping ahead to the newest
	// slot whose desired-present-timestamp is not yet past T_exp.
	ignoreAuto := !isUsingAutoTimestamp
	for len(q.dirtyList) > 1 {
		next := q.cache[q.dirtyList[1]]
		if next.DesiredPresentTimestamp <= expectPresentTimestamp && !(ignoreAuto && next.IsAutoTimestamp) {
			seq := q.dirtyList[0]
			q.dirtyList = q.dirtyList[1:]
			slot := q.cache[seq]
			slot.State = Acquired
			slot.LastAcquireTime = q.clock()
			dropped = append(dropped, seq)
			q.metrics.RecordDroppedFrame("timestamp")
			continue
		}
		break
	}

	front := q.cache[q.dirtyList[0]]
	if !front.IsAutoTimestamp && front.DesiredPresentTimestamp > expectPresentTimestamp &&
		front.DesiredPresentTimestamp-expectPresentTimestamp <= oneSecondNanos {
		q.recordDepthsLocked()
		q.mu.Unlock()
		q.releaseDropped(ctx, dropped)
		outErr = newErr(op, NoBufferReady)
		return AcquireResult{}, outErr
	}

	seq := q.dirtyList[0]
	q.dirtyList = q.dirtyList[1:]
	front.State = Acquired
	front.LastAcquireTime = q.clock()

	result := AcquireResult{
		Sequence:  seq,
		Buffer:    front.Buffer,
		Fence:     front.FlushFence,
		Timestamp: front.DesiredPresentTimestamp,
		Damage:    front.Damage,
	}
	q.recordDepthsLocked()
	q.mu.Unlock()

	q.releaseDropped(ctx, dropped)
	return result, nil
}

// releaseDropped runs the normal ReleaseBuffer path (with an invalid
// release fence) for every buffer dropped during acquire, once the queue
// mutex has been released — spec.md §4.1.3's "released via the normal
// ReleaseBuffer path so that free-list bookkeeping and listener
// notifications fire exactly once per buffer".
func (q *Queue) releaseDropped(ctx context.Context, dropped []uint32) {
	for _, seq := range dropped {
		_ = q.ReleaseBuffer(ctx, seq, fence.Invalid)
	}
}
