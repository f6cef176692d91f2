package node

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Metrics is the node's ambient observability surface: chain height,
// mempool size and a validation-error counter, registered against a private
// registry rather than the global default one so multiple nodes can run
// in-process (as tests do) without collector name collisions. Grounded on
// Synnergy's own gauge-plus-registry HealthLogger shape, narrowed to the
// three counters this spec's node actually needs.
type Metrics struct {
	registry *prometheus.Registry

	heightGauge       prometheus.Gauge
	mempoolSizeGauge  prometheus.Gauge
	validationErrors  prometheus.Counter
}

// NewMetrics builds and registers a fresh metrics set.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		heightGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "zhtp_chain_height",
			Help: "Current height of the local chain tip.",
		}),
		mempoolSizeGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "zhtp_mempool_size",
			Help: "Number of transactions currently pending in the mempool.",
		}),
		validationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zhtp_validation_errors_total",
			Help: "Total number of transaction or block validation failures observed.",
		}),
	}
	reg.MustRegister(m.heightGauge, m.mempoolSizeGauge, m.validationErrors)
	return m
}

func (m *Metrics) SetHeight(height uint64)    { m.heightGauge.Set(float64(height)) }
func (m *Metrics) SetMempoolSize(n int)       { m.mempoolSizeGauge.Set(float64(n)) }
func (m *Metrics) IncValidationError()        { m.validationErrors.Inc() }

// Collector reports the values Metrics needs to poll periodically;
// cmd/zhtpnode adapts chain.Engine to it (engineCollector).
type Collector interface {
	Height() uint64
	PendingCount() int
}

// Run polls c on interval and updates the gauges until ctx is canceled.
func (m *Metrics) Run(ctx context.Context, c Collector, interval time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.SetHeight(c.Height())
			m.SetMempoolSize(c.PendingCount())
		case <-ctx.Done():
			log.Debug().Msg("metrics collector stopped")
			return
		}
	}
}

// StartServer exposes the registry's metrics over HTTP at /metrics, returning
// the *http.Server so the caller manages its shutdown.
func (m *Metrics) StartServer(addr string, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server stopped unexpectedly")
		}
	}()
	return srv
}
