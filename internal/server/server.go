// Package server exposes research runs over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"research-agent/internal/application/port/output"
	"research-agent/internal/domain/entity"
	"research-agent/internal/usecase/research"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const (
	defaultListLimit = 50
	shutdownTimeout  = 10 * time.Second
)

// RunService is the subset of research.Sessions the HTTP layer needs.
type RunService interface {
	Start(ctx context.Context, query string) (*entity.ResearchRun, error)
	Stop(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*entity.ResearchRun, error)
	List(ctx context.Context, limit int) ([]entity.ResearchRun, error)
	Report(ctx context.Context, id string) (string, error)
}

var _ RunService = (*research.Sessions)(nil)

type handler struct {
	runs   RunService
	logger output.LoggerPort
}

// NewRouter builds the chi router. gatherer backs /metrics.
func NewRouter(runs RunService, gatherer prometheus.Gatherer, logger output.LoggerPort) http.Handler {
	h := &handler{runs: runs, logger: logger}

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(httplog.NewLogger("research-agent", httplog.Options{JSON: true})))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.health)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/research", func(r chi.Router) {
		r.Post("/", h.start)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Post("/{id}/stop", h.stop)
		r.Get("/{id}/report", h.report)
	})

	return r
}

type startRequest struct {
	Query string `json:"query"`
}

type runResponse struct {
	ID         string    `json:"id"`
	Query      string    `json:"query"`
	Status     string    `json:"status"`
	ReportPath string    `json:"report_path,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toResponse(run *entity.ResearchRun) runResponse {
	return runResponse{
		ID:         run.ID,
		Query:      run.Query,
		Status:     string(run.Status),
		ReportPath: run.ReportPath,
		Error:      run.Error,
		CreatedAt:  run.CreatedAt,
		UpdatedAt:  run.UpdatedAt,
	}
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	run, err := h.runs.Start(r.Context(), req.Query)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.logger.Info("Research run started", "run_id", run.ID)
	writeJSON(w, http.StatusAccepted, toResponse(run))
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	runs, err := h.runs.List(r.Context(), limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	out := make([]runResponse, 0, len(runs))
	for i := range runs {
		out = append(out, toResponse(&runs[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	run, err := h.runs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(run))
}

func (h *handler) stop(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.runs.Stop(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"id": id, "status": "stopping"})
}

func (h *handler) report(w http.ResponseWriter, r *http.Request) {
	content, err := h.runs.Report(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(content))
}

func (h *handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, output.ErrRunNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, research.ErrNotRunning), errors.Is(err, research.ErrReportNotReady):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Serve runs an HTTP server on addr until ctx is cancelled, then shuts it
// down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler, logger output.LoggerPort) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		logger.Info("HTTP server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
