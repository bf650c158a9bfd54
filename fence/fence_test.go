package fence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeAssociativityWithInvalid(t *testing.T) {
	f := Signalled(OriginProducer, time.Unix(100, 0))

	assert.Equal(t, f, Merge(Invalid, f))
	assert.Equal(t, f, Merge(f, Invalid))
	assert.Equal(t, Invalid, Merge(Invalid, Invalid))
}

func TestMergeTakesMaxSignalledTime(t *testing.T) {
	early := Signalled(OriginProducer, time.Unix(100, 0))
	late := Signalled(OriginConsumer, time.Unix(200, 0))

	merged := Merge(early, late)
	require.True(t, merged.IsSignalled())
	assert.Equal(t, time.Unix(200, 0), merged.SignalledAt())

	merged2 := Merge(late, early)
	assert.Equal(t, time.Unix(200, 0), merged2.SignalledAt())
}

func TestMergeUnsignalledStaysUnsignalled(t *testing.T) {
	a := New(OriginProducer)
	b := New(OriginConsumer)
	merged := Merge(a, b)
	assert.True(t, merged.IsValid())
	assert.False(t, merged.IsSignalled())
}

func TestClockWaiterReturnsImmediatelyForInvalidOrSignalled(t *testing.T) {
	w := ClockWaiter{}
	require.NoError(t, w.Wait(Invalid, time.Millisecond))
	require.NoError(t, w.Wait(Signalled(OriginProducer, time.Now()), time.Millisecond))
}

func TestClockWaiterTimesOutOnUnsignalledFence(t *testing.T) {
	w := ClockWaiter{}
	err := w.Wait(New(OriginProducer), 5*time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)
}
