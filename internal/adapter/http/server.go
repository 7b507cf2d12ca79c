package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/fishing-log-enrichment/internal/domain"
	"github.com/couchcryptid/fishing-log-enrichment/internal/enrich"
)

// Backfiller runs one backfill over stored records.
type Backfiller interface {
	Backfill(ctx context.Context, c domain.BackfillCriteria) (enrich.BackfillResult, error)
}

// Server exposes health, readiness and metrics endpoints, plus an admin
// trigger for backfill runs.
type Server struct {
	httpServer *http.Server
	backfill   Backfiller
	logger     *slog.Logger
}

// NewServer creates the HTTP server. POST /admin/backfill is registered only
// when backfill is non-nil.
func NewServer(addr string, ready sharedobs.ReadinessChecker, backfill Backfiller, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			// Backfill runs synchronously; the write deadline has to cover one.
			WriteTimeout: 10 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		backfill: backfill,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	if backfill != nil {
		mux.HandleFunc("POST /admin/backfill", s.handleBackfill)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type backfillResponse struct {
	RunID      string `json:"run_id"`
	Group      string `json:"group"`
	Scanned    int    `json:"scanned"`
	Updated    int    `json:"updated"`
	Skipped    int    `json:"skipped"`
	DurationMs int64  `json:"duration_ms"`
}

// handleBackfill runs a backfill for ?group=, with optional reprocess=true
// and limit=N, and responds with the run summary.
func (s *Server) handleBackfill(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	group, ok := domain.ParseFieldGroup(q.Get("group"))
	if !ok {
		writeError(w, http.StatusBadRequest, "group must be one of astronomy, barometric, tide, weather")
		return
	}
	c := domain.BackfillCriteria{Group: group, Reprocess: q.Get("reprocess") == "true"}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		c.Limit = n
	}

	res, err := s.backfill.Backfill(r.Context(), c)
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Error("admin backfill failed", "group", group, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, backfillResponse{
		RunID:      res.RunID,
		Group:      string(res.Group),
		Scanned:    res.Scanned,
		Updated:    res.Updated,
		Skipped:    res.Skipped,
		DurationMs: res.Duration.Milliseconds(),
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
