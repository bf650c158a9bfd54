// Package lpp implements the low-power-playback shared-memory slot
// mirror: a 12 KiB mmap'd region holding an 8-entry ring of buffer slot
// descriptors, read directly by the direct-draw composition path instead
// of going through the BufferQueue's dirty-list FIFO.
//
// Layout (bit-exact, little-endian, all fields atomic-load/store):
//
//	Header (16 bytes):
//	  - readOffset:  int32 @0
//	  - writeOffset: int32 @4
//	  - isStopShbDraw: int32 (0/1) @8
//	  - reserved: 4 bytes @12
//
//	Ring (8 entries of 32 bytes, starting at offset 16):
//	  - seqId:     uint32 @0
//	  - timestamp: int64  @4
//	  - crop:      [4]int32 @12
//	  - isRsUsing: int32 (0/1) @28
package lpp

import (
	"errors"
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/vellumgfx/bufferqueue/fence"
)

const (
	// RegionSize is the fixed mmap region size.
	RegionSize = 12 * 1024

	ringEntryCount = 8
	entrySize      = 32
	headerSize     = 16

	offReadOffset  = 0
	offWriteOffset = 4
	offStopShbDraw = 8
	offEntries     = headerSize

	// maxInFlight caps concurrently acquired LPP slots per spec.md §4.1.10.
	maxInFlight = 2
	// cooldownFrames is the two-frame cooldown observed before tearing
	// down the fence map on a composite/direct draw path switch.
	cooldownFrames = 2
)

// ErrNoBuffer is returned when acquiring would exceed maxInFlight.
var ErrNoBuffer = errors.New("lpp: no buffer available")

// Entry is one ring slot descriptor.
type Entry struct {
	SeqID     uint32
	Timestamp int64
	Crop      [4]int32
	IsRsUsing bool
}

// Region wraps the mmap'd shared-memory ring.
type Region struct {
	data   []byte
	fd     int
	ownsFd bool
}

// Create allocates an anonymous memfd-backed region, the producer side's
// entry point: the returned fd is handed to the consumer over the
// transport (the LPP share-fd opcode) for it to Open.
func Create() (*Region, error) {
	fd, err := unix.MemfdCreate("bufferqueue-lpp", 0)
	if err != nil {
		return nil, err
	}
	if err := unix.Ftruncate(fd, RegionSize); err != nil {
		unix.Close(fd)
		return nil, err
	}
	data, err := unix.Mmap(fd, 0, RegionSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	return &Region{data: data, fd: fd, ownsFd: true}, nil
}

// Open mmaps an existing fd received from the producer side.
func Open(fd int) (*Region, error) {
	data, err := unix.Mmap(fd, 0, RegionSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	return &Region{data: data, fd: fd}, nil
}

// Fd returns the region's backing file descriptor, for handing to a peer
// process over the transport.
func (r *Region) Fd() int { return r.fd }

// Close unmaps the region. If the region owns its fd (was Create'd, not
// Open'd), the fd is closed too.
func (r *Region) Close() error {
	err := unix.Munmap(r.data)
	if r.ownsFd {
		if cerr := unix.Close(r.fd); err == nil {
			err = cerr
		}
	}
	return err
}

func (r *Region) int32At(off int) *int32 { return (*int32)(unsafe.Pointer(&r.data[off])) }
func (r *Region) int64At(off int) *int64 { return (*int64)(unsafe.Pointer(&r.data[off])) }
func (r *Region) uint32At(off int) *uint32 { return (*uint32)(unsafe.Pointer(&r.data[off])) }

// ReadOffset atomically loads the consumer read cursor.
func (r *Region) ReadOffset() int32 { return atomic.LoadInt32(r.int32At(offReadOffset)) }

// SetReadOffset atomically stores the consumer read cursor.
func (r *Region) SetReadOffset(v int32) { atomic.StoreInt32(r.int32At(offReadOffset), v) }

// WriteOffset atomically loads the producer write cursor.
func (r *Region) WriteOffset() int32 { return atomic.LoadInt32(r.int32At(offWriteOffset)) }

// SetWriteOffset atomically stores the producer write cursor.
func (r *Region) SetWriteOffset(v int32) { atomic.StoreInt32(r.int32At(offWriteOffset), v) }

// IsStopShbDraw atomically loads the stop-shared-buffer-draw flag.
func (r *Region) IsStopShbDraw() bool { return atomic.LoadInt32(r.int32At(offStopShbDraw)) != 0 }

// SetStopShbDraw atomically stores the stop-shared-buffer-draw flag.
func (r *Region) SetStopShbDraw(v bool) {
	var i int32
	if v {
		i = 1
	}
	atomic.StoreInt32(r.int32At(offStopShbDraw), i)
}

func entryBase(i int) int { return offEntries + (i%ringEntryCount)*entrySize }

// WriteEntry atomically stores ring slot i, the producer side's publish
// path.
func (r *Region) WriteEntry(i int, e Entry) {
	base := entryBase(i)
	atomic.StoreUint32(r.uint32At(base), e.SeqID)
	atomic.StoreInt64(r.int64At(base+4), e.Timestamp)
	for j, c := range e.Crop {
		atomic.StoreInt32(r.int32At(base+12+j*4), c)
	}
	var using int32
	if e.IsRsUsing {
		using = 1
	}
	atomic.StoreInt32(r.int32At(base+28), using)
}

// ReadEntry atomically loads ring slot i.
func (r *Region) ReadEntry(i int) Entry {
	base := entryBase(i)
	var e Entry
	e.SeqID = atomic.LoadUint32(r.uint32At(base))
	e.Timestamp = atomic.LoadInt64(r.int64At(base + 4))
	for j := range e.Crop {
		e.Crop[j] = atomic.LoadInt32(r.int32At(base + 12 + j*4))
	}
	e.IsRsUsing = atomic.LoadInt32(r.int32At(base+28)) != 0
	return e
}

// SetRsUsing atomically flips ring slot i's isRsUsing flag.
func (r *Region) SetRsUsing(i int, using bool) {
	var v int32
	if using {
		v = 1
	}
	atomic.StoreInt32(r.int32At(entryBase(i)+28), v)
}

// inFlight tracks one LPP slot acquired by the consumer and not yet
// released, keyed by ring index, so Mirror can enforce maxInFlight and
// resolve release fences without going back through the queue.
type inFlight struct {
	seqID    uint32
	f        fence.Fence
	released bool
}

// Mirror is the consumer-side tracker layered over a Region: it
// implements the claim-previous-slot acquire algorithm, the acquired-slot
// fence map, and the two-frame draw-path-switch cooldown from spec.md
// §4.1.10.
type Mirror struct {
	mu       sync.Mutex
	region   *Region
	acquired map[int]inFlight

	directDraw    bool
	framesInState int
}

// NewMirror wraps region for consumer-side acquire/release tracking.
func NewMirror(region *Region) *Mirror {
	return &Mirror{region: region, acquired: make(map[int]inFlight)}
}

// reapReleasedLocked drops any tracked slot that has been released through
// ReleaseLppSlot with a signalled or invalid fence, per spec.md §4.1.10's
// "unmarked on every acquire" rule. Caller holds m.mu.
func (m *Mirror) reapReleasedLocked() {
	for idx, s := range m.acquired {
		if s.released && (!s.f.IsValid() || s.f.IsSignalled()) {
			m.region.SetRsUsing(idx, false)
			delete(m.acquired, idx)
		}
	}
}

// AcquireLppBuffer claims the slot immediately behind the write cursor,
// marks it in-use, and returns its descriptor. Returns ErrNoBuffer if
// maxInFlight slots are already acquired.
func (m *Mirror) AcquireLppBuffer() (Entry, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reapReleasedLocked()
	if len(m.acquired) >= maxInFlight {
		return Entry{}, 0, ErrNoBuffer
	}

	wi := int(m.region.WriteOffset())
	claim := (wi - 1 + ringEntryCount) % ringEntryCount

	m.region.SetRsUsing(claim, true)
	e := m.region.ReadEntry(claim)
	m.acquired[claim] = inFlight{seqID: e.SeqID}
	return e, claim, nil
}

// ReleaseLppSlot records the release fence for a previously-acquired
// slot; the slot is reaped on the next AcquireLppBuffer once the fence
// signals.
func (m *Mirror) ReleaseLppSlot(idx int, f fence.Fence) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.acquired[idx]; ok {
		s.f = f
		s.released = true
		m.acquired[idx] = s
	}
}

// EnterDirectDraw and EnterCompositeDraw track draw-path switches. The
// fence map is only torn down once cooldownFrames consecutive frames
// have observed the new path, per spec.md §4.1.10's two-frame cooldown.
func (m *Mirror) EnterDirectDraw()    { m.enterPath(true) }
func (m *Mirror) EnterCompositeDraw() { m.enterPath(false) }

func (m *Mirror) enterPath(direct bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.directDraw == direct {
		m.framesInState++
	} else {
		m.directDraw = direct
		m.framesInState = 1
	}

	if m.framesInState >= cooldownFrames {
		for idx := range m.acquired {
			m.region.SetRsUsing(idx, false)
		}
		m.acquired = make(map[int]inFlight)
	}
}
