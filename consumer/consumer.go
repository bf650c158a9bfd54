// Package consumer implements the BufferQueue consumer facade: a thin
// wrapper that holds the consumer-side listener registrations and
// forwards every operation to the queue, per spec.md §4.3.
package consumer

import (
	"context"
	"sync"

	"github.com/vellumgfx/bufferqueue"
	"github.com/vellumgfx/bufferqueue/fence"
)

// maxDeleteListeners caps delete-buffer listener registration at two: one
// for the main thread, one for the redraw thread, both latched-once.
const maxDeleteListeners = 2

// Consumer is the thin forwarding facade a compositor/renderer holds in
// front of a bufferqueue.Queue.
type Consumer struct {
	mu    sync.Mutex
	queue *bufferqueue.Queue
	pid   int

	deleteListenerCount int
}

// New wraps queue with a fresh Consumer facade.
func New(queue *bufferqueue.Queue) *Consumer {
	return &Consumer{queue: queue}
}

// RegisterConsumerListener installs l as the queue's consumer listener
// (flush/clean-cache/go-background/transform-change/tunnel-handle-change
// notifications).
func (c *Consumer) RegisterConsumerListener(l bufferqueue.ConsumerListener) {
	c.queue.RegisterConsumerListener(l)
}

// UnregisterConsumerListener removes the consumer listener.
func (c *Consumer) UnregisterConsumerListener() {
	c.queue.UnregisterConsumerListener()
}

// RegisterReleaseListener installs l as the producer-release listener and
// records pid as this consumer's calling pid. l may additionally
// implement bufferqueue.SeqFenceListener to receive the pre-hand-out fast
// path (spec.md §4.1.4 step 6).
func (c *Consumer) RegisterReleaseListener(l bufferqueue.ProducerReleaseListener, pid int) {
	c.mu.Lock()
	c.pid = pid
	c.mu.Unlock()
	c.queue.RegisterReleaseListener(l, pid)
}

// UnregisterReleaseListener removes the producer-release listener.
func (c *Consumer) UnregisterReleaseListener() {
	c.queue.UnregisterReleaseListener()
}

// RegisterDeleteBufferListener installs l as one of the (at most two)
// delete-buffer listeners — one for the main thread, one for the redraw
// thread, per spec.md §4.3. A third registration is rejected with
// BufferQueueFull since the core places no cap of its own to enforce at
// the facade boundary.
func (c *Consumer) RegisterDeleteBufferListener(l bufferqueue.DeleteBufferListener) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deleteListenerCount >= maxDeleteListeners {
		return &bufferqueue.QueueError{Kind: bufferqueue.BufferQueueFull, Op: "RegisterDeleteBufferListener"}
	}
	c.deleteListenerCount++
	c.queue.RegisterDeleteBufferListener(l)
	return nil
}

// AcquireBuffer forwards to the core's no-timestamp acquire variant.
func (c *Consumer) AcquireBuffer(ctx context.Context) (bufferqueue.AcquireResult, error) {
	return c.queue.AcquireBuffer(ctx)
}

// AcquireBufferWithTimestamp forwards to the core's expected-present-
// timestamp acquire variant, which applies both drop policies.
func (c *Consumer) AcquireBufferWithTimestamp(ctx context.Context, expectPresentTimestamp int64, isUsingAutoTimestamp bool) (bufferqueue.AcquireResult, error) {
	return c.queue.AcquireBufferWithTimestamp(ctx, expectPresentTimestamp, isUsingAutoTimestamp)
}

// ReleaseBuffer releases seq back to the queue with releaseFence. The
// consumer is never the connected producer, so this always takes the
// ordinary (non-pre-hand-out) release path.
func (c *Consumer) ReleaseBuffer(ctx context.Context, seq uint32, releaseFence fence.Fence) error {
	return c.queue.ReleaseBuffer(ctx, seq, releaseFence)
}

// AttachBuffer forwards to the core's consumer-side attach.
func (c *Consumer) AttachBuffer(ctx context.Context, seq uint32, buf bufferqueue.SurfaceBuffer, cfg bufferqueue.Config, timeoutMs int32) error {
	return c.queue.AttachConsumerBuffer(ctx, seq, buf, cfg, timeoutMs)
}

// DetachBuffer forwards to the core's consumer-side detach. reserve holds
// the freed capacity out of the producer's allocation reach until a later
// attach or queue shrink consumes the reservation.
func (c *Consumer) DetachBuffer(ctx context.Context, seq uint32, reserve bool) (bufferqueue.SurfaceBuffer, error) {
	return c.queue.DetachConsumerBuffer(ctx, seq, reserve)
}

// CleanCache forwards to the core.
func (c *Consumer) CleanCache(ctx context.Context, cleanAll bool) (uint32, error) {
	return c.queue.CleanCache(ctx, cleanAll)
}

// GoBackground forwards to the core.
func (c *Consumer) GoBackground(ctx context.Context) error {
	return c.queue.GoBackground(ctx)
}

// GetTransform forwards to the core.
func (c *Consumer) GetTransform() bufferqueue.Transform {
	return c.queue.GetTransform()
}

// GetLastFlushedBuffer forwards to the core.
func (c *Consumer) GetLastFlushedBuffer(ctx context.Context, useV2 bool, needRecordSequence bool) (bufferqueue.LastFlushedResult, error) {
	return c.queue.GetLastFlushedBuffer(ctx, useV2, needRecordSequence)
}

// AcquireLastFlushedBuffer forwards to the core.
func (c *Consumer) AcquireLastFlushedBuffer(ctx context.Context, useV2 bool) (bufferqueue.LastFlushedResult, error) {
	return c.queue.AcquireLastFlushedBuffer(ctx, useV2)
}

// ReleaseLastFlushedBuffer forwards to the core.
func (c *Consumer) ReleaseLastFlushedBuffer(ctx context.Context, seq uint32) error {
	return c.queue.ReleaseLastFlushedBuffer(ctx, seq)
}

// AcquireLppBuffer forwards to the core's low-power-playback ring
// acquire.
func (c *Consumer) AcquireLppBuffer(ctx context.Context) (bufferqueue.LppResult, error) {
	return c.queue.AcquireLppBuffer(ctx)
}

// ReleaseLppBuffer forwards to the core's low-power-playback ring
// release.
func (c *Consumer) ReleaseLppBuffer(ctx context.Context, ringIndex int, f fence.Fence) error {
	return c.queue.ReleaseLppBuffer(ctx, ringIndex, f)
}

// Pid reports the pid this consumer last registered a release listener
// with, or 0 if it never has.
func (c *Consumer) Pid() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pid
}
