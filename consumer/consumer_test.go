package consumer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vellumgfx/bufferqueue"
	"github.com/vellumgfx/bufferqueue/allocator"
	"github.com/vellumgfx/bufferqueue/fence"
)

func testConfig() bufferqueue.Config {
	return bufferqueue.Config{Width: 64, Height: 32, Format: bufferqueue.FormatRGBA8888, Usage: bufferqueue.DefaultUsage}
}

func newTestQueue() *bufferqueue.Queue {
	return bufferqueue.New("test", bufferqueue.WithAllocator(allocator.New()), bufferqueue.WithQueueSize(2))
}

type recordingReleaseListener struct {
	releases []uint32
}

func (r *recordingReleaseListener) OnBufferRelease(ctx context.Context, seq uint32, f fence.Fence) {
	r.releases = append(r.releases, seq)
}

type recordingDeleteListener struct {
	deleted []uint32
}

func (r *recordingDeleteListener) OnBufferDelete(seq uint32) {
	r.deleted = append(r.deleted, seq)
}

func TestConsumerAcquireReleaseRoundTrip(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue()
	c := New(q)

	result, err := q.RequestBuffer(ctx, testConfig(), nil)
	require.NoError(t, err)
	require.NoError(t, q.FlushBuffer(ctx, result.Sequence, nil, fence.New(fence.OriginProducer), bufferqueue.FlushConfig{}))

	acquired, err := c.AcquireBuffer(ctx)
	require.NoError(t, err)
	assert.Equal(t, result.Sequence, acquired.Sequence)

	require.NoError(t, c.ReleaseBuffer(ctx, acquired.Sequence, fence.New(fence.OriginProducer)))

	_, err = c.AcquireBuffer(ctx)
	assert.Equal(t, bufferqueue.NoBuffer, bufferqueue.KindOf(err))
}

func TestConsumerRegisterReleaseListenerRecordsPid(t *testing.T) {
	q := newTestQueue()
	c := New(q)

	l := &recordingReleaseListener{}
	c.RegisterReleaseListener(l, 99)

	assert.Equal(t, 99, c.Pid())
	assert.Equal(t, 99, q.ConnectedConsumerPid())
}

func TestConsumerDeleteBufferListenerCapsAtTwo(t *testing.T) {
	c := New(newTestQueue())

	require.NoError(t, c.RegisterDeleteBufferListener(&recordingDeleteListener{}))
	require.NoError(t, c.RegisterDeleteBufferListener(&recordingDeleteListener{}))

	err := c.RegisterDeleteBufferListener(&recordingDeleteListener{})
	assert.Equal(t, bufferqueue.BufferQueueFull, bufferqueue.KindOf(err))
}

func TestConsumerGoBackgroundForwardsToQueue(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue()
	c := New(q)

	result, err := q.RequestBuffer(ctx, testConfig(), nil)
	require.NoError(t, err)
	require.NoError(t, q.FlushBuffer(ctx, result.Sequence, nil, fence.New(fence.OriginProducer), bufferqueue.FlushConfig{}))

	require.NoError(t, c.GoBackground(ctx))

	dump := q.Dump()
	assert.Empty(t, dump.DirtyList)
}
