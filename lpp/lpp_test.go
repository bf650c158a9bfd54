package lpp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vellumgfx/bufferqueue/fence"
)

func newTestRegion(t *testing.T) *Region {
	t.Helper()
	r, err := Create()
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRegionHeaderRoundTrip(t *testing.T) {
	r := newTestRegion(t)

	r.SetReadOffset(3)
	r.SetWriteOffset(5)
	r.SetStopShbDraw(true)

	assert.Equal(t, int32(3), r.ReadOffset())
	assert.Equal(t, int32(5), r.WriteOffset())
	assert.True(t, r.IsStopShbDraw())
}

func TestRegionEntryRoundTrip(t *testing.T) {
	r := newTestRegion(t)

	e := Entry{SeqID: 42, Timestamp: 123456, Crop: [4]int32{1, 2, 3, 4}, IsRsUsing: true}
	r.WriteEntry(2, e)

	got := r.ReadEntry(2)
	assert.Equal(t, e, got)
}

func TestMirrorAcquireClaimsPreviousSlot(t *testing.T) {
	r := newTestRegion(t)
	r.WriteEntry(4, Entry{SeqID: 99})
	r.SetWriteOffset(5)

	m := NewMirror(r)
	e, idx, err := m.AcquireLppBuffer()
	require.NoError(t, err)
	assert.Equal(t, 4, idx)
	assert.Equal(t, uint32(99), e.SeqID)
	assert.True(t, r.ReadEntry(4).IsRsUsing)
}

func TestMirrorEnforcesMaxInFlight(t *testing.T) {
	r := newTestRegion(t)
	m := NewMirror(r)

	r.SetWriteOffset(1)
	_, _, err := m.AcquireLppBuffer()
	require.NoError(t, err)

	r.SetWriteOffset(2)
	_, _, err = m.AcquireLppBuffer()
	require.NoError(t, err)

	r.SetWriteOffset(3)
	_, _, err = m.AcquireLppBuffer()
	assert.ErrorIs(t, err, ErrNoBuffer)
}

func TestMirrorReapsOnSignalledRelease(t *testing.T) {
	r := newTestRegion(t)
	m := NewMirror(r)

	r.SetWriteOffset(1)
	_, idx, err := m.AcquireLppBuffer()
	require.NoError(t, err)

	m.ReleaseLppSlot(idx, fence.Signalled(fence.OriginConsumer, time.Now()))

	r.SetWriteOffset(2)
	_, _, err = m.AcquireLppBuffer()
	require.NoError(t, err)
	r.SetWriteOffset(3)
	_, _, err = m.AcquireLppBuffer()
	require.NoError(t, err, "released slot should have been reaped, freeing capacity")
}

func TestMirrorCooldownTearsDownFenceMapAfterTwoFrames(t *testing.T) {
	r := newTestRegion(t)
	m := NewMirror(r)

	r.SetWriteOffset(1)
	_, idx, err := m.AcquireLppBuffer()
	require.NoError(t, err)

	m.EnterDirectDraw()
	assert.True(t, r.ReadEntry(idx).IsRsUsing, "single frame should not yet tear down the map")

	m.EnterDirectDraw()
	assert.False(t, r.ReadEntry(idx).IsRsUsing, "second consecutive frame tears down the fence map")
}
