package bufferqueue

import (
	"context"

	"github.com/vellumgfx/bufferqueue/fence"
)

// LppResult is AcquireLppBuffer's reply: the ring slot descriptor plus
// enough queue-cache context to present it like a normal acquire.
type LppResult struct {
	RingIndex int
	SeqID     uint32
	Timestamp int64
	Crop      DamageRect
	Buffer    SurfaceBuffer
}

// AcquireLppBuffer implements spec.md §4.1.10's direct-draw acquire path:
// when the queue's source type is LowPowerVideo, the consumer reads
// buffer descriptors straight out of the LPP shared-memory ring instead
// of popping dirtyList. Returns NotSupport if the queue wasn't
// constructed with WithSourceType(SourceTypeLowPowerVideo) and
// WithLPPMirror, and passes through lpp.ErrNoBuffer as NoBuffer when more
// than two LPP slots are already in flight.
func (q *Queue) AcquireLppBuffer(ctx context.Context) (LppResult, error) {
	const op = "AcquireLppBuffer"
	_, finish := q.tracer.Start(ctx, op, q.id)
	var outErr error
	defer func() { finish(KindOf(outErr)) }()

	q.mu.Lock()
	mirror := q.lppMirror
	sourceType := q.sourceType
	q.mu.Unlock()

	if sourceType != SourceTypeLowPowerVideo || mirror == nil {
		outErr = newErr(op, NotSupport)
		return LppResult{}, outErr
	}

	entry, idx, err := mirror.AcquireLppBuffer()
	if err != nil {
		outErr = newErr(op, NoBuffer)
		return LppResult{}, outErr
	}

	q.mu.Lock()
	var buf SurfaceBuffer
	if slot, ok := q.cache[entry.SeqID]; ok {
		buf = slot.Buffer
	}
	q.mu.Unlock()

	return LppResult{
		RingIndex: idx,
		SeqID:     entry.SeqID,
		Timestamp: entry.Timestamp,
		Crop:      DamageRect{Left: entry.Crop[0], Top: entry.Crop[1], Right: entry.Crop[2], Bottom: entry.Crop[3]},
		Buffer:    buf,
	}, nil
}

// ReleaseLppBuffer records the release fence for an LPP ring slot
// previously returned by AcquireLppBuffer.
func (q *Queue) ReleaseLppBuffer(ctx context.Context, ringIndex int, f fence.Fence) error {
	const op = "ReleaseLppBuffer"
	_, finish := q.tracer.Start(ctx, op, q.id)
	var outErr error
	defer func() { finish(KindOf(outErr)) }()

	q.mu.Lock()
	mirror := q.lppMirror
	q.mu.Unlock()

	if mirror == nil {
		outErr = newErr(op, NotSupport)
		return outErr
	}
	mirror.ReleaseLppSlot(ringIndex, f)
	return nil
}
