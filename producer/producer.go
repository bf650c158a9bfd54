// Package producer implements the BufferQueue producer facade: a
// connection-gated proxy in front of bufferqueue.Queue that maintains a
// local bit-for-bit cache of buffer handles so the wire (or, in-process,
// the queue mutex) never re-serializes a handle the caller already has.
package producer

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/vellumgfx/bufferqueue"
	"github.com/vellumgfx/bufferqueue/fence"
)

// UpscaleProcessor rewrites a request's dimensions before it reaches the
// queue — the adaptive-super-resolution client hook from spec.md §4.2.
type UpscaleProcessor func(cfg bufferqueue.Config) bufferqueue.Config

// Producer is the connection-gated facade. ConnID identifies this
// facade instance for property-change listener fanout exclusion.
type Producer struct {
	ConnID string

	mu           sync.Mutex
	queue        *bufferqueue.Queue
	connectedPid int
	strict       bool
	disconnected bool
	localCache   map[uint32]bufferqueue.SurfaceBuffer
	bufferName   string
	upscale      UpscaleProcessor
}

// New wraps queue with a fresh, unconnected Producer facade.
func New(queue *bufferqueue.Queue) *Producer {
	return &Producer{
		ConnID:     uuid.NewString(),
		queue:      queue,
		localCache: make(map[uint32]bufferqueue.SurfaceBuffer),
	}
}

// SetUpscaleProcessor installs the game-upscale hook.
func (p *Producer) SetUpscaleProcessor(fn UpscaleProcessor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.upscale = fn
}

// SetBufferName sets the DMA fd tag label used by the fd-tagging stub
// when no source-type/leak-type label is configured.
func (p *Producer) SetBufferName(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bufferName = name
}

// Connect implements spec.md §4.2's Connect: fails ConsumerDisconnected
// while strict-disconnected mode is latched, otherwise forwards to the
// core so a second pid already connected is rejected with
// ConsumerIsConnected.
func (p *Producer) Connect(ctx context.Context, pid int) error {
	p.mu.Lock()
	if p.strict && p.disconnected {
		p.mu.Unlock()
		return &bufferqueue.QueueError{Kind: bufferqueue.ConsumerDisconnected, Op: "Connect"}
	}
	p.mu.Unlock()

	if err := p.queue.Connect(ctx, pid); err != nil {
		return err
	}

	p.mu.Lock()
	p.connectedPid = pid
	p.disconnected = false
	p.mu.Unlock()
	return nil
}

// ConnectStrictly is Connect with strict-disconnect tracking enabled:
// once Disconnect runs, a future Connect fails ConsumerDisconnected
// until DisconnectStrictly's counterpart clears it.
func (p *Producer) ConnectStrictly(ctx context.Context, pid int) error {
	p.mu.Lock()
	p.strict = true
	p.mu.Unlock()
	return p.Connect(ctx, pid)
}

// Disconnect implements spec.md §4.2's Disconnect: drops every locally
// cached buffer except the one sequence the queue pins as its pre-cache
// buffer.
func (p *Producer) Disconnect(ctx context.Context) error {
	outSeq, err := p.queue.CleanCache(ctx, false)
	if err != nil {
		return err
	}
	if err := p.queue.Disconnect(ctx); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for seq := range p.localCache {
		if seq != outSeq {
			delete(p.localCache, seq)
		}
	}
	p.connectedPid = 0
	p.disconnected = true
	return nil
}

// DisconnectStrictly is Disconnect plus latching strict-disconnected
// mode so the next Connect fails until this call's effect is reset.
func (p *Producer) DisconnectStrictly(ctx context.Context) error {
	p.mu.Lock()
	p.strict = true
	p.mu.Unlock()
	return p.Disconnect(ctx)
}

func (p *Producer) tagFd(buf bufferqueue.SurfaceBuffer) {
	// DMA fd tagging stub: a real allocator ioctl tags buf.Fd with
	// whichever label is configured (buffer name, source type, or a
	// leak-type fallback). The in-memory reference allocator has no
	// kernel fd to tag, so this does nothing.
	_ = buf
}

// RequestBuffer implements spec.md §4.2's remote-path RequestBuffer:
// applies the upscale hook, calls the core, evicts deleted sequences
// from the local cache, and installs the returned buffer (if any) into
// the local cache.
func (p *Producer) RequestBuffer(ctx context.Context, cfg bufferqueue.Config, extraData map[string][]byte) (bufferqueue.RequestResult, error) {
	p.mu.Lock()
	if p.upscale != nil {
		cfg = p.upscale(cfg)
	}
	p.mu.Unlock()

	result, err := p.queue.RequestBuffer(ctx, cfg, extraData)
	if err != nil {
		return result, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, seq := range result.Deleting {
		delete(p.localCache, seq)
	}
	if result.Buffer != nil {
		p.localCache[result.Sequence] = *result.Buffer
		p.tagFd(*result.Buffer)
	}
	return result, nil
}

// RequestBuffers is the batch variant: calls RequestBuffer up to
// queueSize times until the core returns anything other than nil,
// installing every returned buffer into the local cache.
func (p *Producer) RequestBuffers(ctx context.Context, cfg bufferqueue.Config, queueSize int) ([]bufferqueue.RequestResult, error) {
	results := make([]bufferqueue.RequestResult, 0, queueSize)
	for i := 0; i < queueSize; i++ {
		r, err := p.RequestBuffer(ctx, cfg, nil)
		if err != nil {
			if i == 0 {
				return nil, err
			}
			break
		}
		results = append(results, r)
	}
	return results, nil
}

// Flush forwards to the core's FlushBuffer, clearing the local cache on a
// NoConsumer reply per spec.md §4.2.
func (p *Producer) Flush(ctx context.Context, seq uint32, extraData map[string][]byte, flushFence fence.Fence, cfg bufferqueue.FlushConfig) error {
	err := p.queue.FlushBuffer(ctx, seq, extraData, flushFence, cfg)
	if bufferqueue.KindOf(err) == bufferqueue.NoConsumer {
		p.mu.Lock()
		p.localCache = make(map[uint32]bufferqueue.SurfaceBuffer)
		p.mu.Unlock()
	}
	return err
}

// CancelBuffer forwards to the core.
func (p *Producer) CancelBuffer(ctx context.Context, seq uint32, extraData map[string][]byte) error {
	return p.queue.CancelBuffer(ctx, seq, extraData)
}

// AttachToQueue forwards to the core's producer-side attach.
func (p *Producer) AttachToQueue(ctx context.Context, seq uint32, buf bufferqueue.SurfaceBuffer, cfg bufferqueue.Config, timeoutMs int32) error {
	return p.queue.AttachBufferToQueue(ctx, seq, buf, cfg, timeoutMs)
}

// DetachFromQueue forwards to the core's producer-side detach, dropping
// the sequence from the local cache on success.
func (p *Producer) DetachFromQueue(ctx context.Context, seq uint32) (bufferqueue.SurfaceBuffer, error) {
	buf, err := p.queue.DetachProducerBuffer(ctx, seq)
	if err == nil {
		p.mu.Lock()
		delete(p.localCache, seq)
		p.mu.Unlock()
	}
	return buf, err
}

// AttachAndFlush installs buf then immediately flushes it, in one
// logical round-trip per spec.md §4.2.
func (p *Producer) AttachAndFlush(ctx context.Context, seq uint32, buf bufferqueue.SurfaceBuffer, cfg bufferqueue.Config, timeoutMs int32, extraData map[string][]byte, flushFence fence.Fence, flushCfg bufferqueue.FlushConfig) error {
	if err := p.queue.AttachBufferToQueue(ctx, seq, buf, cfg, timeoutMs); err != nil {
		return err
	}
	return p.Flush(ctx, seq, extraData, flushFence, flushCfg)
}

// RequestAndDetach requests a fresh buffer then immediately detaches it
// for cross-queue migration, per spec.md §6's RequestAndDetach opcode.
func (p *Producer) RequestAndDetach(ctx context.Context, cfg bufferqueue.Config) (bufferqueue.SurfaceBuffer, error) {
	result, err := p.RequestBuffer(ctx, cfg, nil)
	if err != nil {
		return bufferqueue.SurfaceBuffer{}, err
	}
	return p.DetachFromQueue(ctx, result.Sequence)
}

// SetQueueSize and GoBackground forward directly to the core; no
// producer-local state to maintain.
func (p *Producer) SetQueueSize(ctx context.Context, n int) error { return p.queue.SetQueueSize(ctx, n) }
func (p *Producer) GoBackground(ctx context.Context) error        { return p.queue.GoBackground(ctx) }

// LocalCacheLen reports the number of buffers currently cached locally,
// for tests and the debug API.
func (p *Producer) LocalCacheLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.localCache)
}
