// Package prometheus exports featmap metrics through
// github.com/prometheus/client_golang.
//
// The CLI runs as a batch job, so the usual way to ship these metrics is a
// node-exporter textfile written at exit:
//
//	c := prometheus.NewCollector(reg, "featmap")
//	m := featmap.New(featmap.WithMetricsCollector(c))
//	...
//	_ = c.WriteTextfile("/var/lib/node_exporter/featmap.prom")
package prometheus

import (
	"time"

	"github.com/hupe1980/featmap"
	prom "github.com/prometheus/client_golang/prometheus"
)

// Collector implements featmap.MetricsCollector and the dataset transfer
// observer on top of Prometheus metrics.
type Collector struct {
	gatherer prom.Gatherer

	runs         *prom.CounterVec
	runDuration  prom.Histogram
	dropped      prom.Counter
	resolved     prom.Counter
	resolveTime  prom.Histogram
	removals     prom.Counter
	repaired     prom.Counter
	transfers    *prom.CounterVec
	transferred  *prom.CounterVec
	transferTime *prom.HistogramVec
}

var _ featmap.MetricsCollector = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics with a fresh
// registry. Use Gatherer to expose them.
func NewCollector(namespace string) *Collector {
	reg := prom.NewRegistry()
	c := newCollector(namespace)
	reg.MustRegister(c.collectors()...)
	c.gatherer = reg
	return c
}

// NewCollectorWith registers the metrics with reg instead. gatherer is used
// by WriteTextfile and may be nil if that is not needed.
func NewCollectorWith(reg prom.Registerer, gatherer prom.Gatherer, namespace string) (*Collector, error) {
	c := newCollector(namespace)
	for _, m := range c.collectors() {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	c.gatherer = gatherer
	return c, nil
}

func newCollector(ns string) *Collector {
	return &Collector{
		runs: prom.NewCounterVec(prom.CounterOpts{
			Namespace: ns,
			Name:      "remap_runs_total",
			Help:      "Remapping runs by outcome.",
		}, []string{"outcome"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: ns,
			Name:      "remap_duration_seconds",
			Help:      "Wall time of remapping runs.",
			Buckets:   prom.ExponentialBuckets(0.001, 4, 10),
		}),
		dropped: prom.NewCounter(prom.CounterOpts{
			Namespace: ns,
			Name:      "dropped_diagnoses_total",
			Help:      "Diagnoses not covered by any selected feature.",
		}),
		resolved: prom.NewCounter(prom.CounterOpts{
			Namespace: ns,
			Name:      "resolved_observations_total",
			Help:      "Observations resolved by the initial pass.",
		}),
		resolveTime: prom.NewHistogram(prom.HistogramOpts{
			Namespace: ns,
			Name:      "resolve_pass_duration_seconds",
			Help:      "Wall time of the parallel resolution pass.",
			Buckets:   prom.ExponentialBuckets(0.001, 4, 10),
		}),
		removals: prom.NewCounter(prom.CounterOpts{
			Namespace: ns,
			Name:      "feature_removals_total",
			Help:      "Features removed by the minimum-support loop.",
		}),
		repaired: prom.NewCounter(prom.CounterOpts{
			Namespace: ns,
			Name:      "repaired_observations_total",
			Help:      "Observation re-resolutions performed by the minimum-support loop.",
		}),
		transfers: prom.NewCounterVec(prom.CounterOpts{
			Namespace: ns,
			Name:      "dataset_transfers_total",
			Help:      "Dataset loads and saves by operation and outcome.",
		}, []string{"op", "outcome"}),
		transferred: prom.NewCounterVec(prom.CounterOpts{
			Namespace: ns,
			Name:      "dataset_bytes_total",
			Help:      "Encoded bytes moved by dataset operations.",
		}, []string{"op"}),
		transferTime: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: ns,
			Name:      "dataset_transfer_duration_seconds",
			Help:      "Wall time of dataset loads and saves.",
			Buckets:   prom.DefBuckets,
		}, []string{"op"}),
	}
}

func (c *Collector) collectors() []prom.Collector {
	return []prom.Collector{
		c.runs, c.runDuration, c.dropped, c.resolved, c.resolveTime,
		c.removals, c.repaired, c.transfers, c.transferred, c.transferTime,
	}
}

// Gatherer returns the gatherer used by WriteTextfile.
func (c *Collector) Gatherer() prom.Gatherer {
	return c.gatherer
}

// RecordResolvePass implements featmap.MetricsCollector.
func (c *Collector) RecordResolvePass(observations int, d time.Duration) {
	c.resolved.Add(float64(observations))
	c.resolveTime.Observe(d.Seconds())
}

// RecordFeatureRemoval implements featmap.MetricsCollector.
func (c *Collector) RecordFeatureRemoval(repaired int) {
	c.removals.Inc()
	c.repaired.Add(float64(repaired))
}

// RecordRemap implements featmap.MetricsCollector.
func (c *Collector) RecordRemap(dropped int, d time.Duration, err error) {
	c.runs.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		return
	}
	c.runDuration.Observe(d.Seconds())
	c.dropped.Add(float64(dropped))
}

// RecordTransfer records one dataset load or save.
func (c *Collector) RecordTransfer(op string, bytes int64, d time.Duration, err error) {
	c.transfers.WithLabelValues(op, outcome(err)).Inc()
	if err != nil {
		return
	}
	c.transferred.WithLabelValues(op).Add(float64(bytes))
	c.transferTime.WithLabelValues(op).Observe(d.Seconds())
}

// WriteTextfile writes all gathered metrics in the text exposition format.
// The file is replaced atomically.
func (c *Collector) WriteTextfile(path string) error {
	return prom.WriteToTextfile(path, c.gatherer)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
