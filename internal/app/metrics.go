package app

import (
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/dshills/picorope/internal/engine/rope"
)

const namespace = "picorope"

// ropeCollector exports the process-wide node accounting.
type ropeCollector struct {
	allocated   *prometheus.Desc
	freed       *prometheus.Desc
	live        *prometheus.Desc
	flattens    *prometheus.Desc
	unitsCopied *prometheus.Desc
}

func newRopeCollector() *ropeCollector {
	return &ropeCollector{
		allocated: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "nodes", "allocated_total"),
			"Rope nodes allocated.", []string{"kind"}, nil),
		freed: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "nodes", "freed_total"),
			"Rope nodes freed.", []string{"kind"}, nil),
		live: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "live_nodes"),
			"Rope nodes allocated and not yet freed.", []string{"kind"}, nil),
		flattens: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "flattens_total"),
			"Flatten operations that copied data.", nil, nil),
		unitsCopied: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "units_copied_total"),
			"Storage units copied by flattens.", nil, nil),
	}
}

func (c *ropeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.allocated
	ch <- c.freed
	ch <- c.live
	ch <- c.flattens
	ch <- c.unitsCopied
}

func (c *ropeCollector) Collect(ch chan<- prometheus.Metric) {
	s := rope.ReadStats()
	ch <- prometheus.MustNewConstMetric(c.allocated, prometheus.CounterValue, float64(s.LeavesAllocated), "leaf")
	ch <- prometheus.MustNewConstMetric(c.allocated, prometheus.CounterValue, float64(s.LinksAllocated), "link")
	ch <- prometheus.MustNewConstMetric(c.freed, prometheus.CounterValue, float64(s.LeavesFreed), "leaf")
	ch <- prometheus.MustNewConstMetric(c.freed, prometheus.CounterValue, float64(s.LinksFreed), "link")
	ch <- prometheus.MustNewConstMetric(c.live, prometheus.GaugeValue, float64(s.LiveLeaves()), "leaf")
	ch <- prometheus.MustNewConstMetric(c.live, prometheus.GaugeValue, float64(s.LiveLinks()), "link")
	ch <- prometheus.MustNewConstMetric(c.flattens, prometheus.CounterValue, float64(s.Flattens))
	ch <- prometheus.MustNewConstMetric(c.unitsCopied, prometheus.CounterValue, float64(s.UnitsCopied))
}

// Metrics tracks command timings and rope statistics in a private registry.
type Metrics struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics creates a registry holding the rope collector and the
// operation metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Operations run, by result.",
		}, []string{"op", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Operation latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"op"}),
	}
	m.registry.MustRegister(newRopeCollector(), m.operations, m.duration)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Record counts one operation and its latency.
func (m *Metrics) Record(op string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(op, result).Inc()
	m.duration.WithLabelValues(op).Observe(d.Seconds())
}

// WriteMetrics writes every metric in the text exposition format.
func (m *Metrics) WriteMetrics(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
