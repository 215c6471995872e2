// Package server exposes scans over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/FranksOps/seoscope/internal/metrics"
	"github.com/FranksOps/seoscope/internal/pipeline"
	"github.com/FranksOps/seoscope/internal/report"
	"github.com/FranksOps/seoscope/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Scanner runs one scan. *pipeline.Pipeline satisfies it.
type Scanner interface {
	Scan(ctx context.Context, req pipeline.Request) (*storage.ScanRecord, error)
}

// Server serves the scan API.
type Server struct {
	scanner Scanner
	store   storage.Backend
	logger  *slog.Logger
	timeout time.Duration
}

// New creates a Server. timeout bounds a single POST /scan; zero means no
// bound beyond the client's connection.
func New(scanner Scanner, store storage.Backend, timeout time.Duration, logger *slog.Logger) *Server {
	if store == nil {
		store = storage.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{scanner: scanner, store: store, logger: logger, timeout: timeout}
}

// Routes returns a chi.Router with every endpoint mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthz)
	r.Post("/scan", s.postScan)
	r.Get("/scans", s.listScans)
	r.Get("/scans/{id}", s.getScan)
	r.Handle("/metrics", metrics.Handler())
	return r
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) postScan(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	rec, err := s.scanner.Scan(ctx, req)
	switch {
	case errors.Is(err, pipeline.ErrInvalidURL):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil && rec == nil:
		s.logger.Warn("scan failed", "url", req.URL, "err", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	case err != nil:
		// The scan completed but was not persisted.
		s.logger.Error("scan not stored", "id", rec.ID, "err", err)
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) getScan(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "scan not found")
		return
	}
	if err != nil {
		s.logger.Error("get scan", "err", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		writeJSON(w, http.StatusOK, rec)
	case "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = report.WriteHTML(w, rec)
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_ = report.WriteText(w, rec)
	default:
		writeError(w, http.StatusBadRequest, "unknown format "+strconv.Quote(format))
	}
}

func (s *Server) listScans(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := storage.Filter{URL: q.Get("url"), Domain: q.Get("domain"), Limit: 50}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		f.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		f.Offset = n
	}

	recs, err := s.store.Query(r.Context(), f)
	if err != nil {
		s.logger.Error("query scans", "err", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	if recs == nil {
		recs = []*storage.ScanRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("server listening", "addr", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
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
