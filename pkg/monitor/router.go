package monitor

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/fsmkit/pkg/logger"
	"github.com/dmitrymomot/fsmkit/pkg/statemachine"
)

// Router mounts the monitor endpoints:
//
//	GET /healthz          liveness, always "ALIVE"
//	GET /metrics          Prometheus exposition from gatherer (omitted when nil)
//	GET /machines         statuses of every registered machine
//	GET /machines/{name}  status of the first registered machine called name
func Router(reg *statemachine.Registry, tracker *Tracker, gatherer prometheus.Gatherer, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ALIVE"))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/machines", func(w http.ResponseWriter, req *http.Request) {
		machines := reg.Machines()
		out := make([]MachineStatus, 0, len(machines))
		for _, m := range machines {
			out = append(out, status(m, tracker))
		}
		writeJSON(w, req, log, http.StatusOK, out)
	})

	r.Get("/machines/{name}", func(w http.ResponseWriter, req *http.Request) {
		m, ok := reg.Find(chi.URLParam(req, "name"))
		if !ok {
			writeJSON(w, req, log, http.StatusNotFound, map[string]string{"error": "machine not found"})
			return
		}
		writeJSON(w, req, log, http.StatusOK, status(m, tracker))
	})

	return r
}

func status(m *statemachine.Machine, tracker *Tracker) MachineStatus {
	st := MachineStatus{
		Current:  statemachine.EmptyStateName,
		Previous: statemachine.EmptyStateName,
	}
	if tracker != nil {
		if tracked, ok := tracker.Status(m.Name()); ok {
			st = tracked
		}
	}
	st.Name = m.Name()
	st.Lifecycle = m.Lifecycle()
	return st
}

func writeJSON(w http.ResponseWriter, r *http.Request, log *slog.Logger, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.ErrorContext(r.Context(), "failed to encode monitor response",
			logger.Component("monitor"),
			logger.Error(err),
		)
	}
}
