package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var HistogramBuckets = []float64{
	// --- Fast responses (0 - 500ms) ---
	25, 50, 75, 100, 150, 200, 300, 400, 500,

	// --- Medium responses around 700ms (500ms - 2s) ---
	750, 1000, 1250, 1500, 1750, 2000,

	// --- Slow responses (2s - 15s) ---
	2500, 3000, 4000, 5000, 7500, 10000, 15000,

	// --- Extended range: covers 60000ms+ (15s - 75s) ---
	20000,  // 20s
	30000,  // 30s
	45000,  // 45s
	60000,  // 60s
	75000,  // 75s
	90000,  // 90s
	120000, // 120s
}

// Metric is a definition for the name, description, type, ID, and
// prometheus.Collector type (i.e. CounterVec, Summary, etc) of each metric
type Metric struct {
	MetricCollector prometheus.Collector
	ID              string
	Name            string
	Description     string
	Type            string
	Args            []string
}

// NewMetric associates prometheus.Collector based on Metric.Type
func NewMetric(m *Metric, subsystem string) prometheus.Collector {
	var metric prometheus.Collector
	switch m.Type {
	case "counter_vec":
		metric = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
			m.Args,
		)
	case "counter":
		metric = prometheus.NewCounter(
			prometheus.CounterOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
		)
	case "gauge_vec":
		metric = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
			m.Args,
		)
	case "gauge":
		metric = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
		)
	case "histogram_vec":
		metric = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
				Buckets:   HistogramBuckets,
			},
			m.Args,
		)
	case "histogram":
		metric = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
				Buckets:   HistogramBuckets,
			},
		)
	case "summary_vec":
		metric = prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
			m.Args,
		)
	case "summary":
		metric = prometheus.NewSummary(
			prometheus.SummaryOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
		)
	}
	return metric
}

var reconcileOutcome = &Metric{
	ID:          "reconcileOutcome",
	Name:        "reconcile_outcome_total",
	Description: "Reconciled notifications, partitioned by event kind and outcome.",
	Type:        "counter_vec",
	Args:        []string{"event", "outcome"},
}

var reconcileDur = &Metric{
	ID:          "reconcileDur",
	Name:        "reconcile_dur_ms",
	Description: "Reconciliation latency in milliseconds, guard wait included.",
	Type:        "histogram_vec",
	Args:        []string{"event"},
}

var guardWait = &Metric{
	ID:          "guardWait",
	Name:        "guard_wait_ms",
	Description: "Time spent waiting for an idempotency guard in milliseconds.",
	Type:        "histogram",
}

var notifyResult = &Metric{
	ID:          "notifyResult",
	Name:        "notify_total",
	Description: "Confirmation sends, partitioned by result.",
	Type:        "counter_vec",
	Args:        []string{"result"},
}

// ReconcileMetrics holds the business metrics of the reconciliation path.
// A nil *ReconcileMetrics is valid and records nothing.
type ReconcileMetrics struct {
	outcome   *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	guardWait prometheus.Histogram
	notify    *prometheus.CounterVec
}

func NewReconcileMetrics(reg prometheus.Registerer, logger Logger) *ReconcileMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &ReconcileMetrics{
		outcome:   register(reg, reconcileOutcome, Subsystem, logger).(*prometheus.CounterVec),
		duration:  register(reg, reconcileDur, Subsystem, logger).(*prometheus.HistogramVec),
		guardWait: register(reg, guardWait, Subsystem, logger).(prometheus.Histogram),
		notify:    register(reg, notifyResult, Subsystem, logger).(*prometheus.CounterVec),
	}
}

func (m *ReconcileMetrics) ObserveReconcile(event, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.outcome.WithLabelValues(event, outcome).Inc()
	m.duration.WithLabelValues(event).Observe(MillisecondsSince(start))
}

func (m *ReconcileMetrics) ObserveGuardWait(start time.Time) {
	if m == nil {
		return
	}
	m.guardWait.Observe(MillisecondsSince(start))
}

func (m *ReconcileMetrics) ObserveNotify(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.notify.WithLabelValues(result).Inc()
}

// Subsystem prefixes every metric this service exports.
const Subsystem = "payrecon"
