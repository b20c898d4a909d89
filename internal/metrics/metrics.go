// Package metrics exposes recursord's Prometheus counters and
// histograms, grounded on the teacher's api/grpc/middleware metrics.
// The resolver and server packages report into these on the resolution
// path; nothing outside this package reads them back except /metrics.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "recursord_queries_total", Help: "Total client queries received"},
		[]string{"outcome"},
	)

	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "recursord_cache_lookups_total", Help: "Cache lookups by result"},
		[]string{"result"},
	)

	ResolutionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recursord_resolution_duration_seconds",
			Help:    "Time spent resolving a client query end to end",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(QueriesTotal, CacheLookups, ResolutionDuration)
}

// Outcome labels for QueriesTotal.
const (
	OutcomeAnswered = "answered"
	OutcomeNXDomain = "nxdomain"
	OutcomeServFail = "servfail"
	OutcomeFormErr  = "formerr"
	OutcomeNotImp   = "notimp"
)

// ObserveResolution records one query's terminal outcome and latency.
func ObserveResolution(outcome string, start time.Time) {
	QueriesTotal.WithLabelValues(outcome).Inc()
	ResolutionDuration.Observe(time.Since(start).Seconds())
}

// Serve serves the /metrics endpoint on addr until ctx is canceled.
// A blank addr disables metrics entirely; Serve returns nil immediately.
func Serve(ctx context.Context, addr string) error {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return srv.Close()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
