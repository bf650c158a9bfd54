package producer

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

type nopConsumerListener struct{}

func (nopConsumerListener) OnBufferAvailable(ctx context.Context, seq uint32)      {}
func (nopConsumerListener) OnCleanCache(ctx context.Context, seq uint32, pre bool) {}
func (nopConsumerListener) OnGoBackground(ctx context.Context)                     {}
func (nopConsumerListener) OnTransformChange(ctx context.Context, t bufferqueue.Transform) {
}
func (nopConsumerListener) OnTunnelHandleChange(ctx context.Context, fd int) {}

func newTestQueue() *bufferqueue.Queue {
	q := bufferqueue.New("test", bufferqueue.WithAllocator(allocator.New()), bufferqueue.WithQueueSize(2))
	q.RegisterConsumerListener(nopConsumerListener{})
	return q
}

func TestProducerConnectRejectsSecondDistinctPid(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue()
	p := New(q)

	require.NoError(t, p.Connect(ctx, 100))

	other := New(q)
	err := other.Connect(ctx, 200)
	assert.Equal(t, bufferqueue.ConsumerIsConnected, bufferqueue.KindOf(err))
}

func TestProducerStrictDisconnectRejectsReconnect(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue()
	p := New(q)

	require.NoError(t, p.ConnectStrictly(ctx, 1))
	require.NoError(t, p.DisconnectStrictly(ctx))

	err := p.Connect(ctx, 1)
	assert.Equal(t, bufferqueue.ConsumerDisconnected, bufferqueue.KindOf(err))
}

func TestProducerRequestBufferCachesHandleLocally(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue()
	p := New(q)
	require.NoError(t, p.Connect(ctx, 1))

	result, err := p.RequestBuffer(ctx, testConfig(), nil)
	require.NoError(t, err)
	require.NotNil(t, result.Buffer)
	assert.Equal(t, 1, p.LocalCacheLen())

	require.NoError(t, p.Flush(ctx, result.Sequence, nil, fence.New(fence.OriginProducer), bufferqueue.FlushConfig{}))

	acq, err := q.AcquireBuffer(ctx)
	require.NoError(t, err)
	require.NoError(t, q.ReleaseBuffer(ctx, acq.Sequence, fence.Invalid))

	reused, err := p.RequestBuffer(ctx, testConfig(), nil)
	require.NoError(t, err)
	assert.Nil(t, reused.Buffer, "config-reuse reply omits the buffer since the producer already caches it")
	assert.Equal(t, result.Sequence, reused.Sequence)
}

func TestProducerUpscaleProcessorRewritesConfig(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue()
	p := New(q)
	require.NoError(t, p.Connect(ctx, 1))

	p.SetUpscaleProcessor(func(cfg bufferqueue.Config) bufferqueue.Config {
		cfg.Width *= 2
		cfg.Height *= 2
		return cfg
	})

	result, err := p.RequestBuffer(ctx, testConfig(), nil)
	require.NoError(t, err)
	require.NotNil(t, result.Buffer)
	assert.Equal(t, int32(128), result.Buffer.Width)
	assert.Equal(t, int32(64), result.Buffer.Height)
}

func TestProducerDetachFromQueueDropsLocalCacheEntry(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue()
	p := New(q)
	require.NoError(t, p.Connect(ctx, 1))

	result, err := p.RequestBuffer(ctx, testConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, p.LocalCacheLen())

	_, err = p.DetachFromQueue(ctx, result.Sequence)
	require.NoError(t, err)
	assert.Equal(t, 0, p.LocalCacheLen())
}

func TestProducerRequestBuffersStopsAtFirstError(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue()
	p := New(q)
	require.NoError(t, p.Connect(ctx, 1))

	results, err := p.RequestBuffers(ctx, testConfig(), 5)
	require.NoError(t, err)
	assert.Len(t, results, 2, "queue size 2 caps the batch even though 5 were requested")
}
