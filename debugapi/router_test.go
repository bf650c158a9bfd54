package debugapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vellumgfx/bufferqueue"
)

type fakeQueue struct {
	snapshot    bufferqueue.Snapshot
	cleanedSeq  uint32
	cleanCalled bool
}

func (f *fakeQueue) Dump() bufferqueue.Snapshot { return f.snapshot }

func (f *fakeQueue) CleanCache(ctx context.Context, cleanAll bool) (uint32, error) {
	f.cleanCalled = true
	return f.cleanedSeq, nil
}

func TestHealthzReturnsOK(t *testing.T) {
	r := NewRouter(&fakeQueue{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDebugQueueReturnsSnapshotJSON(t *testing.T) {
	fq := &fakeQueue{snapshot: bufferqueue.Snapshot{ID: "q1", QueueSize: 2}}
	r := NewRouter(fq, nil)
	req := httptest.NewRequest(http.MethodGet, "/debug/queue", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ID":"q1"`)
}

func TestDebugQueueTableRendersText(t *testing.T) {
	fq := &fakeQueue{snapshot: bufferqueue.Snapshot{
		ID: "q1",
		Slots: []bufferqueue.SlotSnapshot{
			{Sequence: 1, State: bufferqueue.Released},
		},
	}}
	r := NewRouter(fq, nil)
	req := httptest.NewRequest(http.MethodGet, "/debug/queue/table", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Released")
}

func TestDebugQueueCleanInvokesCleanCache(t *testing.T) {
	fq := &fakeQueue{cleanedSeq: 7}
	r := NewRouter(fq, nil)
	req := httptest.NewRequest(http.MethodPost, "/debug/queue/clean", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, fq.cleanCalled)
	assert.Contains(t, rec.Body.String(), "7")
}

func TestMetricsRouteAbsentWithoutRegistry(t *testing.T) {
	r := NewRouter(&fakeQueue{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
