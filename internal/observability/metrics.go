package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fishing_enrich"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// enrichment service.
type Metrics struct {
	RecordsEnriched prometheus.Counter
	RecordsInserted prometheus.Counter
	EventsPublished prometheus.Counter
	PublishErrors   prometheus.Counter
	StationsLoaded  prometheus.Gauge

	// Upstream provider metrics.
	UpstreamRequests *prometheus.CounterVec   // labels: source, outcome={success,error,circuit_open}
	UpstreamDuration *prometheus.HistogramVec // labels: source

	// Backfill metrics.
	BatchCache       *prometheus.CounterVec   // labels: kind={astronomy,pressure,weather,tide}, result={hit,miss}
	BackfillRows     *prometheus.CounterVec   // labels: group, outcome={updated,skipped,unchanged}
	BackfillDuration *prometheus.HistogramVec // labels: group
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)

	prometheus.MustRegister(
		m.RecordsEnriched,
		m.RecordsInserted,
		m.EventsPublished,
		m.PublishErrors,
		m.StationsLoaded,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.BatchCache,
		m.BackfillRows,
		m.BackfillDuration,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}

	return &Metrics{
		RecordsEnriched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_enriched_total",
			Help:      help("Total records passed through single-record enrichment."),
		}),
		RecordsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_inserted_total",
			Help:      help("Total records written to the store by the insert path."),
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      help("Total enrichment events written to Kafka."),
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      help("Total enrichment events that could not be published."),
		}),
		StationsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stations_loaded",
			Help:      help("Number of tide stations in the geo index."),
		}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      help("Upstream provider requests by source and outcome."),
		}, []string{"source", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      help("Upstream provider request duration in seconds, retries included."),
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		BatchCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backfill_cache_total",
			Help:      help("Backfill per-run cache lookups by series kind and result."),
		}, []string{"kind", "result"}),
		BackfillRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backfill_rows_total",
			Help:      help("Rows visited by backfill runs by field group and outcome."),
		}, []string{"group", "outcome"}),
		BackfillDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backfill_duration_seconds",
			Help:      help("Duration of a complete backfill run."),
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300, 900},
		}, []string{"group"}),
	}
}
