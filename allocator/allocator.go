// Package allocator provides an in-memory reference implementation of
// bufferqueue.Allocator, standing in for the concrete DMA-BUF/gralloc
// allocator spec.md §1 puts out of scope. It hands out synthetic
// SurfaceBuffer handles backed by plain Go byte slices rather than real
// GPU memory, which is enough to exercise every queue code path that
// depends on the Allocator capability.
package allocator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vellumgfx/bufferqueue"
)

// InMemory is a bufferqueue.Allocator that tracks live handles in a map
// (Free removes a handle from it; freeing an unknown handle is a no-op)
// and lets TagFd record the tagging pid for test assertions.
type InMemory struct {
	mu      sync.Mutex
	live    map[string][]byte
	tags    map[string]int
	nextFd  int32
	counter uint64
}

// New constructs an empty in-memory allocator.
func New() *InMemory {
	return &InMemory{
		live: make(map[string][]byte),
		tags: make(map[string]int),
	}
}

var _ bufferqueue.Allocator = (*InMemory)(nil)

func (a *InMemory) nextHandle() string {
	n := atomic.AddUint64(&a.counter, 1)
	return fmt.Sprintf("inmem-%d", n)
}

func (a *InMemory) nextFileDescriptor() int {
	return int(atomic.AddInt32(&a.nextFd, 1))
}

// bufferBytes returns the nominal RGBA8888-equivalent byte size for a
// config's dimensions — enough to make a real allocation that Free can
// account for, without claiming gralloc-accurate stride/plane packing.
func bufferBytes(cfg bufferqueue.Config) int {
	n := int(cfg.Width) * int(cfg.Height) * 4
	if n <= 0 {
		n = 4
	}
	return n
}

// Allocate produces a fresh SurfaceBuffer.
func (a *InMemory) Allocate(ctx context.Context, req bufferqueue.AllocRequest) (bufferqueue.SurfaceBuffer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	handle := a.nextHandle()
	a.live[handle] = make([]byte, bufferBytes(req.Config))

	return bufferqueue.SurfaceBuffer{
		Handle: handle,
		Width:  req.Config.Width,
		Height: req.Config.Height,
		Format: req.Config.Format,
		Usage:  req.Config.Usage,
		Fd:     a.nextFileDescriptor(),
	}, nil
}

// Realloc reuses or resizes existing's backing storage. When needRealloc
// is false (the FlushBuffer cache-flush stand-in, or a config match that
// only differs in non-reuse-key fields) the existing handle and data are
// kept and only the dimension/format/usage fields are refreshed.
func (a *InMemory) Realloc(ctx context.Context, existing bufferqueue.SurfaceBuffer, req bufferqueue.AllocRequest, needRealloc bool) (bufferqueue.SurfaceBuffer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if existing.IsZero() {
		handle := a.nextHandle()
		a.live[handle] = make([]byte, bufferBytes(req.Config))
		return bufferqueue.SurfaceBuffer{
			Handle: handle,
			Width:  req.Config.Width,
			Height: req.Config.Height,
			Format: req.Config.Format,
			Usage:  req.Config.Usage,
			Fd:     a.nextFileDescriptor(),
		}, nil
	}

	out := existing
	out.Width, out.Height, out.Format, out.Usage = req.Config.Width, req.Config.Height, req.Config.Format, req.Config.Usage

	if needRealloc {
		delete(a.live, existing.Handle)
		out.Handle = a.nextHandle()
		out.Fd = a.nextFileDescriptor()
		a.live[out.Handle] = make([]byte, bufferBytes(req.Config))
	} else if _, ok := a.live[out.Handle]; !ok {
		a.live[out.Handle] = make([]byte, bufferBytes(req.Config))
	}
	return out, nil
}

// Free releases buf's backing storage. Freeing an unknown or
// already-freed handle is a no-op, matching the teacher's idempotent
// eviction semantics rather than erroring on a cache-consistency bug
// that's already benign.
func (a *InMemory) Free(ctx context.Context, buf bufferqueue.SurfaceBuffer) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.live, buf.Handle)
	delete(a.tags, buf.Handle)
	return nil
}

// TagFd records pid as the buffer's connected owner, standing in for the
// real ioctl that tags a DMA-BUF fd with its consuming process for
// kernel-side accounting.
func (a *InMemory) TagFd(buf bufferqueue.SurfaceBuffer, pid int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tags[buf.Handle] = pid
	return nil
}

// TaggedPid returns the pid last tagged against handle, for test
// assertions.
func (a *InMemory) TaggedPid(handle string) (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	pid, ok := a.tags[handle]
	return pid, ok
}

// LiveCount returns the number of handles the allocator currently
// considers live, for leak assertions in tests.
func (a *InMemory) LiveCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}
