package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusExporter mirrors the JSON /v1/ops/metrics view as Prometheus
// gauges, refreshed on a fixed interval so a scraper sees the same
// numbers the operator endpoint reports.
type PrometheusExporter struct {
	aggregator *Aggregator

	rps         prometheus.Gauge
	failureRate prometheus.Gauge
	p50         prometheus.Gauge
	p95         prometheus.Gauge
	p99         prometheus.Gauge
	dlqDepth    prometheus.Gauge
}

func NewPrometheusExporter(agg *Aggregator, registerer prometheus.Registerer) *PrometheusExporter {
	e := &PrometheusExporter{
		aggregator: agg,
		rps: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "inference", Name: "requests_per_second",
			Help: "Job submissions per second over the trailing window.",
		}),
		failureRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "inference", Name: "failure_rate",
			Help: "Fraction of terminal jobs in the trailing window that failed.",
		}),
		p50: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "inference", Name: "latency_p50_ms",
			Help: "Submit-to-persist latency, 50th percentile, milliseconds.",
		}),
		p95: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "inference", Name: "latency_p95_ms",
			Help: "Submit-to-persist latency, 95th percentile, milliseconds.",
		}),
		p99: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "inference", Name: "latency_p99_ms",
			Help: "Submit-to-persist latency, 99th percentile, milliseconds.",
		}),
		dlqDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "inference", Name: "dlq_depth",
			Help: "Current length of the dead-letter queue.",
		}),
	}

	registerer.MustRegister(e.rps, e.failureRate, e.p50, e.p95, e.p99, e.dlqDepth)
	return e
}

// Refresh pulls one Snapshot and updates every gauge.
func (e *PrometheusExporter) Refresh(ctx context.Context) error {
	snap, err := e.aggregator.Snapshot(ctx)
	if err != nil {
		return err
	}
	e.rps.Set(snap.RPS)
	e.failureRate.Set(snap.FailureRate)
	e.p50.Set(snap.P50Ms)
	e.p95.Set(snap.P95Ms)
	e.p99.Set(snap.P99Ms)
	e.dlqDepth.Set(float64(snap.DLQDepth))
	return nil
}

// Run refreshes the gauges on a fixed interval until ctx is cancelled.
func (e *PrometheusExporter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.Refresh(ctx); err != nil {
				slog.Error("prometheus metrics refresh failed", "error", err)
			}
		}
	}
}
