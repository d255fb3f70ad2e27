// Package metrics exposes sync and retention results as Prometheus metrics
// on a private registry.
package metrics

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	rostersync "github.com/marcus/roster/internal/sync"
)

// Outcome label used when the local store failed before anything was sent.
const OutcomeStoreError = "store_error"

const gaugeTimeout = 2 * time.Second

type Metrics struct {
	registry *prometheus.Registry

	SyncAttempts  *prometheus.CounterVec
	RecordsPushed prometheus.Counter
	RecordsPurged prometheus.Counter
	PushDuration  prometheus.Histogram
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		SyncAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_sync_attempts_total",
			Help: "Synchronize calls by outcome",
		}, []string{"outcome"}),
		RecordsPushed: factory.NewCounter(prometheus.CounterOpts{
			Name: "roster_records_pushed_total",
			Help: "Records accepted by the remote sink",
		}),
		RecordsPurged: factory.NewCounter(prometheus.CounterOpts{
			Name: "roster_records_purged_total",
			Help: "Synchronized records deleted by purge",
		}),
		PushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "roster_push_duration_seconds",
			Help:    "Latency of batch pushes to the remote sink",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// WatchStore exports the pending and synchronized counts, read together
// from the store on every scrape. A failed read reports NaN for both.
func (m *Metrics) WatchStore(counts rostersync.Counter) {
	m.registry.MustRegister(&storeCollector{
		counts: counts,
		pending: prometheus.NewDesc("roster_records_pending",
			"Records waiting to be synchronized", nil, nil),
		synchronized: prometheus.NewDesc("roster_records_synchronized",
			"Synchronized records not yet purged", nil, nil),
	})
}

// storeCollector reads both counts in one call so a scrape never sees a
// record as pending and synchronized at once.
type storeCollector struct {
	counts       rostersync.Counter
	pending      *prometheus.Desc
	synchronized *prometheus.Desc
}

func (c *storeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.pending
	ch <- c.synchronized
}

func (c *storeCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), gaugeTimeout)
	defer cancel()

	pending, synced := math.NaN(), math.NaN()
	if p, s, err := c.counts.Counts(ctx); err == nil {
		pending, synced = float64(p), float64(s)
	}
	ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, pending)
	ch <- prometheus.MustNewConstMetric(c.synchronized, prometheus.GaugeValue, synced)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveSync(o rostersync.Outcome, push time.Duration) {
	m.SyncAttempts.WithLabelValues(o.Kind.String()).Inc()
	if o.Kind == rostersync.OutcomeSkipped {
		return
	}
	m.PushDuration.Observe(push.Seconds())
	if o.Kind == rostersync.OutcomeOK {
		m.RecordsPushed.Add(float64(o.Count))
	}
}

func (m *Metrics) ObserveSyncError(error) {
	m.SyncAttempts.WithLabelValues(OutcomeStoreError).Inc()
}

func (m *Metrics) ObservePurge(p rostersync.PurgeOutcome) {
	m.RecordsPurged.Add(float64(p.Count))
}

var _ rostersync.Recorder = (*Metrics)(nil)
