package bufferqueue

import (
	"sync"
	"time"

	"github.com/vellumgfx/bufferqueue/fence"
	"github.com/vellumgfx/bufferqueue/listener"
	"github.com/vellumgfx/bufferqueue/lpp"
	"github.com/vellumgfx/bufferqueue/metrics"
)

const (
	minQueueSize     = 1
	hardMaxQueueSize = 64
)

// Queue is the single owner of buffer-queue state: one mutex guards the
// cache map and both FIFO lanes; three condition variables on that same
// mutex implement the suspension points in spec.md §5.
type Queue struct {
	id string

	mu sync.Mutex

	// waitReq wakes on slot release, detach, queue-size grow, and status
	// flip.
	waitReq *sync.Cond
	// waitAttach wakes on release of an explicitly-attached target slot.
	waitAttach *sync.Cond
	// isAllocatingBufferCon wakes when the in-flight allocator call
	// returns, so no cache-mutating operation observes a half-inserted
	// slot.
	isAllocatingBufferCon *sync.Cond
	isAllocatingBuffer    bool

	cache        map[uint32]*Slot
	freeList     []uint32
	dirtyList    []uint32
	deletingList []uint32

	nextSequence uint32

	queueSize             int
	maxQueueSize          int
	detachReserveSlotNum  int
	dropFrameLevel        int
	requestNonBlocking    bool
	currentTransform      Transform
	alive                 bool
	connectedProducerPid  int
	connectedConsumerPid  int

	lastFlushedSequence                uint32
	lastFlushedFence                   fence.Fence
	lastFlushedDesiredPresentTimeStamp int64

	acquireLastFlushedBufSequence uint32

	preCacheBuffer *uint32

	consumerListener listener.Slot[ConsumerListener]
	releaseListener  listener.Slot[ProducerReleaseListener]
	deleteListeners  []DeleteBufferListener
	propertyChange   *listener.Registry[PropertyChangeListener]

	allocator Allocator
	tracer    Tracer
	metrics   metrics.Recorder
	clock     func() time.Time

	sourceType SourceType
	lppMirror  *lpp.Mirror
}

// Option configures a Queue at construction time.
type Option func(*Queue)

// WithAllocator installs the Allocator capability.
func WithAllocator(a Allocator) Option { return func(q *Queue) { q.allocator = a } }

// WithTracer installs the Tracer capability.
func WithTracer(t Tracer) Option { return func(q *Queue) { q.tracer = t } }

// WithMetrics installs the metrics Recorder.
func WithMetrics(m metrics.Recorder) Option { return func(q *Queue) { q.metrics = m } }

// WithQueueSize sets the initial queue size (clamped to [1,64]).
func WithQueueSize(n int) Option { return func(q *Queue) { q.queueSize = clampQueueSize(n, 0) } }

// WithMaxQueueSize sets the hard ceiling queue size may never exceed.
func WithMaxQueueSize(n int) Option { return func(q *Queue) { q.maxQueueSize = n } }

// WithDropFrameLevel sets the drop-by-level cap applied during
// AcquireBuffer's timestamp variant.
func WithDropFrameLevel(n int) Option { return func(q *Queue) { q.dropFrameLevel = n } }

// WithClock overrides the queue's time source, for deterministic tests.
func WithClock(fn func() time.Time) Option { return func(q *Queue) { q.clock = fn } }

// WithNonBlockingMode sets the request mode used when the cache is full
// and no free slot exists (spec.md §4.1.1 step 7).
func WithNonBlockingMode(nonBlocking bool) Option {
	return func(q *Queue) { q.requestNonBlocking = nonBlocking }
}

// WithSourceType sets the producer's content class. SourceTypeLowPowerVideo
// enables AcquireLppBuffer, which reads the LPP mirror set by
// WithLPPMirror; AcquireBuffer serves the dirty-list FIFO for every
// source type.
func WithSourceType(t SourceType) Option { return func(q *Queue) { q.sourceType = t } }

// WithLPPMirror installs the low-power-playback shared-memory slot mirror
// consulted by AcquireLppBuffer.
func WithLPPMirror(m *lpp.Mirror) Option { return func(q *Queue) { q.lppMirror = m } }

// New constructs a Queue identified by id, with queue size defaulting to
// 2 and no maximum unless overridden by options.
func New(id string, opts ...Option) *Queue {
	q := &Queue{
		id:         id,
		cache:      make(map[uint32]*Slot),
		queueSize:  2,
		alive:      true,
		clock:      time.Now,
		allocator:  nil,
		tracer:     noopTracer{},
		metrics:    metrics.Nop,
		propertyChange: listener.NewRegistry[PropertyChangeListener](),
	}
	q.waitReq = sync.NewCond(&q.mu)
	q.waitAttach = sync.NewCond(&q.mu)
	q.isAllocatingBufferCon = sync.NewCond(&q.mu)

	for _, opt := range opts {
		opt(q)
	}
	if q.tracer == nil {
		q.tracer = noopTracer{}
	}
	return q
}

func clampQueueSize(n, max int) int {
	if n < minQueueSize {
		n = minQueueSize
	}
	if n > hardMaxQueueSize {
		n = hardMaxQueueSize
	}
	if max > 0 && n > max {
		n = max
	}
	return n
}

// --- list helpers (caller must hold q.mu) ---

func popFront(list []uint32) (uint32, []uint32, bool) {
	if len(list) == 0 {
		return 0, list, false
	}
	return list[0], list[1:], true
}

func removeFromList(list []uint32, seq uint32) []uint32 {
	for i, s := range list {
		if s == seq {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}

func containsSeq(list []uint32, seq uint32) bool {
	for _, s := range list {
		if s == seq {
			return true
		}
	}
	return false
}

// cacheSizeLocked returns the number of cached slots (unlocked helper — caller
// holds q.mu).
func (q *Queue) cacheSizeLocked() int { return len(q.cache) }

// recordDepthsLocked reports the current list/cache depths to the metrics
// Recorder. Called at the end of every mutating operation, still holding
// q.mu (Recorder methods are cheap, nil-safe gauge sets).
func (q *Queue) recordDepthsLocked() {
	q.metrics.RecordFreeListLen(len(q.freeList))
	q.metrics.RecordDirtyListLen(len(q.dirtyList))
	q.metrics.RecordCacheSize(len(q.cache))
}

// waitAllocationLocked blocks until no allocation is in progress on another
// goroutine. Caller holds q.mu.
func (q *Queue) waitAllocationLocked() {
	for q.isAllocatingBuffer {
		q.isAllocatingBufferCon.Wait()
	}
}

// withAllocationUnlocked marks an allocation in progress and releases q.mu
// for the duration of fn, matching spec.md §4.1.9's "mutex is released
// around the allocator call". It re-acquires q.mu before returning and
// clears the flag, waking any waiters on isAllocatingBufferCon.
func (q *Queue) withAllocationUnlocked(fn func()) {
	q.isAllocatingBuffer = true
	q.mu.Unlock()
	fn()
	q.mu.Lock()
	q.isAllocatingBuffer = false
	q.isAllocatingBufferCon.Broadcast()
}

// drainDeletingListLocked pops the entire deletingList for inclusion in a
// RequestBuffer reply (spec.md §4.1.1's "observable side effects").
func (q *Queue) drainDeletingListLocked() []uint32 {
	out := q.deletingList
	q.deletingList = nil
	return out
}

// waitCondDeadline waits on cond, which is broadcast either by a state
// change or by an internal timer once deadline passes — sync.Cond has no
// native timeout, so a one-shot timer drives the deadline wakeup. Caller
// holds q.mu; cond must be one of q.waitReq/q.waitAttach/
// q.isAllocatingBufferCon (all parked on q.mu).
func (q *Queue) waitCondDeadline(cond *sync.Cond, deadline time.Time) {
	timer := time.AfterFunc(time.Until(deadline), func() {
		q.mu.Lock()
		cond.Broadcast()
		q.mu.Unlock()
	})
	defer timer.Stop()
	cond.Wait()
}
