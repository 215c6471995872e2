package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ProviderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seoscope_provider_calls_total",
			Help: "Provider adapter calls by outcome (ok or a failure kind)",
		},
		[]string{"provider", "family", "outcome"},
	)

	ProviderCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seoscope_provider_call_duration_seconds",
			Help:    "Duration of provider adapter calls in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider", "family"},
	)

	CascadeSourceTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seoscope_cascade_source_total",
			Help: "Which cascade position resolved each metric family",
		},
		[]string{"family", "source"},
	)

	RankLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seoscope_rank_lookups_total",
			Help: "SERP rank lookups by outcome (ranked, unranked, error, skipped)",
		},
		[]string{"outcome"},
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "seoscope_scan_duration_seconds",
			Help:    "Duration of complete scans in seconds",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120},
		},
	)

	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seoscope_scans_total",
			Help: "Completed scans by status",
		},
		[]string{"status"},
	)

	PillarScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seoscope_pillar_score",
			Help:    "Distribution of pillar scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
		[]string{"pillar"},
	)
)

// RecordProviderCall counts one adapter call. outcome is "ok" or the provider
// error kind.
func RecordProviderCall(provider, family, outcome string, d time.Duration) {
	ProviderCallsTotal.WithLabelValues(provider, family, outcome).Inc()
	if d > 0 {
		ProviderCallDuration.WithLabelValues(provider, family).Observe(d.Seconds())
	}
}

// RecordCascade counts which source resolved a family.
func RecordCascade(family, source string) {
	CascadeSourceTotal.WithLabelValues(family, source).Inc()
}

// RecordRankLookup counts one keyword rank lookup.
func RecordRankLookup(outcome string) {
	RankLookupsTotal.WithLabelValues(outcome).Inc()
}

// RecordScan observes a finished scan and its pillar scores.
func RecordScan(status string, d time.Duration, pillars map[string]float64) {
	ScansTotal.WithLabelValues(status).Inc()
	ScanDuration.Observe(d.Seconds())
	for name, score := range pillars {
		PillarScore.WithLabelValues(name).Observe(score)
	}
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
}

// Start begins listening on the specified port and exposes /metrics.
func Start(port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "err", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
