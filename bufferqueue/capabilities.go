package bufferqueue

import (
	"context"
	"time"

	"github.com/vellumgfx/bufferqueue/fence"
)

// AllocRequest carries everything the Allocator capability needs to
// produce or resize a SurfaceBuffer.
type AllocRequest struct {
	Config       Config
	ConnectedPid int
}

// Allocator is the capability modeling the concrete DMA-BUF/gralloc
// allocator (out of scope per spec.md §1). The queue invokes it with its
// own mutex released (spec.md §4.1.9): the call may take tens of
// milliseconds for DMA pinning.
type Allocator interface {
	// Allocate produces a fresh SurfaceBuffer for req.
	Allocate(ctx context.Context, req AllocRequest) (SurfaceBuffer, error)
	// Realloc reuses or resizes existing for req. When needRealloc is
	// false the implementation may keep the underlying handle unchanged
	// (spec.md §4.1.1 step 5's "may keep the underlying handle" realloc
	// path).
	Realloc(ctx context.Context, existing SurfaceBuffer, req AllocRequest, needRealloc bool) (SurfaceBuffer, error)
	// Free releases buf's backing storage.
	Free(ctx context.Context, buf SurfaceBuffer) error
	// TagFd tags buf's file descriptor with pid for cgroup DMA accounting
	// (spec.md §4.1.9's ioctl tagging, modeled as a plain call).
	TagFd(buf SurfaceBuffer, pid int) error
}

// Tracer is the capability wrapping an operation body in a trace span. The
// returned finish func records the operation's resulting ErrorKind (empty
// string for success) and ends the span. A nil Tracer is never invoked —
// callers go through the queue's noop default instead.
type Tracer interface {
	Start(ctx context.Context, op, queueID string) (context.Context, func(errKind string))
}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, op, queueID string) (context.Context, func(string)) {
	return ctx, func(string) {}
}

// FenceWaiter is the capability wrapping a CPU-side wait for a release or
// flush fence to signal (the kernel sync-fence await call in a real
// allocator).
type FenceWaiter interface {
	Wait(f fence.Fence, timeout time.Duration) error
}
