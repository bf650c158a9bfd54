// Package metrics defines the nil-safe Recorder interface the BufferQueue
// core reports operation outcomes and depth gauges through, grounded on
// the teacher's CacheMetrics interface (pkg/cache/cache_metrics.go).
package metrics

import "time"

// RequestOutcome enumerates the distinct ways RequestBuffer can resolve,
// for the request-outcome counter.
type RequestOutcome string

const (
	OutcomeConfigReuse RequestOutcome = "config_reuse"
	OutcomeFreeListPop RequestOutcome = "free_list_pop"
	OutcomeAllocated   RequestOutcome = "allocated"
	OutcomeDropDirty   RequestOutcome = "drop_dirty"
	OutcomeTimeout     RequestOutcome = "timeout"
	OutcomeError       RequestOutcome = "error"
)

// Recorder is the nil-safe metrics capability. Every method must be safe
// to call on a nil Recorder (matching the teacher's CacheMetrics/
// prometheus.cacheMetrics nil-receiver pattern), so components can hold a
// Recorder field unconditionally and skip a nil-check at every call site.
type Recorder interface {
	RequestOutcome(outcome RequestOutcome)
	ObserveRequestToAcquireLatency(d time.Duration)
	RecordFreeListLen(n int)
	RecordDirtyListLen(n int)
	RecordCacheSize(n int)
	RecordDroppedFrame(reason string)
	RecordListenerDispatch(kind string)
}

// Nop is a Recorder whose every method is a no-op, used as the default
// when no Recorder is configured so call sites never need a nil check.
var Nop Recorder = nopRecorder{}

type nopRecorder struct{}

func (nopRecorder) RequestOutcome(RequestOutcome)            {}
func (nopRecorder) ObserveRequestToAcquireLatency(time.Duration) {}
func (nopRecorder) RecordFreeListLen(int)                    {}
func (nopRecorder) RecordDirtyListLen(int)                   {}
func (nopRecorder) RecordCacheSize(int)                      {}
func (nopRecorder) RecordDroppedFrame(string)                {}
func (nopRecorder) RecordListenerDispatch(string)             {}
