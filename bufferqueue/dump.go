package bufferqueue

import (
	"fmt"
	"sort"
	"strings"
)

// SlotSnapshot is a read-only copy of one cached slot, safe to hold and
// inspect after the queue mutex has been released.
type SlotSnapshot struct {
	Sequence uint32
	State    SlotState
	Config   Config
	Buffer   SurfaceBuffer
}

// Snapshot is a point-in-time copy of a Queue's cache and lists, returned
// by Dump for introspection (the debug API's /debug/queue and
// /debug/queue/table routes read this).
type Snapshot struct {
	ID                  string
	QueueSize           int
	MaxQueueSize        int
	Alive               bool
	CurrentTransform    Transform
	LastFlushedSequence uint32
	FreeList            []uint32
	DirtyList           []uint32
	DeletingList        []uint32
	Slots               []SlotSnapshot
	TotalMemBytes       int64
}

// approxBufferBytes estimates a SurfaceBuffer's footprint for the dump
// total. Real DMA-BUF sizes are allocator-reported; this is a stand-in
// sized off the nominal RGBA8888 byte count for the buffer's dimensions.
func approxBufferBytes(b SurfaceBuffer) int64 {
	if b.IsZero() {
		return 0
	}
	return int64(b.Width) * int64(b.Height) * 4
}

// Dump returns a consistent snapshot of the queue's cache and lists.
//
// The teacher's equivalent cache dump (pkg/cache/cache.go's DumpStats)
// accumulates a total size into a package-level mutable counter
// (allSurfacesMemSize) shared across every cache instance, which this
// queue deliberately does not reproduce: each call here totals into a
// local variable scoped to the snapshot, so concurrent Dump calls on
// different queues (or the same queue) never interleave writes to
// shared state. String() below renders the snapshot as plain fields and
// writes no sentinel string.
func (q *Queue) Dump() Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()

	var total int64
	slots := make([]SlotSnapshot, 0, len(q.cache))
	for _, s := range q.cache {
		total += approxBufferBytes(s.Buffer)
		slots = append(slots, SlotSnapshot{
			Sequence: s.Sequence,
			State:    s.State,
			Config:   s.Config,
			Buffer:   s.Buffer,
		})
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Sequence < slots[j].Sequence })

	return Snapshot{
		ID:                  q.id,
		QueueSize:           q.queueSize,
		MaxQueueSize:        q.maxQueueSize,
		Alive:               q.alive,
		CurrentTransform:    q.currentTransform,
		LastFlushedSequence: q.lastFlushedSequence,
		FreeList:            append([]uint32(nil), q.freeList...),
		DirtyList:           append([]uint32(nil), q.dirtyList...),
		DeletingList:        append([]uint32(nil), q.deletingList...),
		Slots:               slots,
		TotalMemBytes:       total,
	}
}

// String renders the snapshot as one terse dump line of space-separated
// key=value fields, with a " | "-separated group per slot.
func (s Snapshot) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "queue=%s size=%d/%d alive=%t transform=%d lastFlushed=%d mem=%dB",
		s.ID, s.QueueSize, s.MaxQueueSize, s.Alive, s.CurrentTransform, s.LastFlushedSequence, s.TotalMemBytes)
	fmt.Fprintf(&b, " free=%v dirty=%v deleting=%v", s.FreeList, s.DirtyList, s.DeletingList)
	for _, sl := range s.Slots {
		fmt.Fprintf(&b, " | seq=%d state=%s cfg=%dx%d", sl.Sequence, sl.State, sl.Config.Width, sl.Config.Height)
	}
	return b.String()
}
