package debugapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vellumgfx/bufferqueue"
	"github.com/vellumgfx/bufferqueue/internal/cliout"
)

// QueueProvider is the capability the debug API needs from a running
// bufferqueue.Queue: a read-only Dump plus the one destructive action
// (CleanCache) the API exposes behind a POST, not a GET, route.
type QueueProvider interface {
	Dump() bufferqueue.Snapshot
	CleanCache(ctx context.Context, cleanAll bool) (uint32, error)
}

// NewRouter builds the chi-based introspection API, grounded on the
// teacher's pkg/api/router.go middleware stack and route layout: request
// ID/recoverer/timeout middleware, a /healthz liveness route, and a
// /debug/queue tree exposing the queue snapshot as JSON or as a rendered
// table. reg may be nil, in which case /metrics is omitted.
func NewRouter(q QueueProvider, reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/healthz", http.StatusFound)
	})

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})

	r.Route("/debug/queue", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			JSON(w, http.StatusOK, q.Dump())
		})
		r.Get("/table", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			if err := cliout.PrintTable(w, snapshotTable(q.Dump())); err != nil {
				JSONError(w, http.StatusInternalServerError, err)
			}
		})
		r.Post("/clean", func(w http.ResponseWriter, req *http.Request) {
			cleanAll := req.URL.Query().Get("all") == "true"
			seq, err := q.CleanCache(req.Context(), cleanAll)
			if err != nil {
				JSONError(w, http.StatusInternalServerError, err)
				return
			}
			JSON(w, http.StatusOK, map[string]uint32{"cleaned_through_sequence": seq})
		})
	})

	if reg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	return r
}

// snapshotTable adapts a bufferqueue.Snapshot into cliout.TableRenderer for
// the /table endpoint's rendering.
func snapshotTable(s bufferqueue.Snapshot) cliout.TableRenderer {
	t := cliout.NewTableData("SEQ", "STATE", "WIDTH", "HEIGHT", "FORMAT")
	for _, slot := range s.Slots {
		t.AddRow(
			strconv.FormatUint(uint64(slot.Sequence), 10),
			slot.State.String(),
			strconv.Itoa(int(slot.Config.Width)),
			strconv.Itoa(int(slot.Config.Height)),
			fmt.Sprintf("%d", slot.Config.Format),
		)
	}
	return t
}
