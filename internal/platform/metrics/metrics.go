package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

// Metrics holds the engine's Prometheus metrics: ledger throughput,
// recompute latency and document verdicts.
type Metrics struct {
	ReviewsCreated    prometheus.Counter
	ReviewsUpdated    prometheus.Counter
	ReviewsDeleted    prometheus.Counter
	ReviewsRejected   *prometheus.CounterVec
	RecomputeDuration *prometheus.HistogramVec
	DocumentVerdicts  *prometheus.CounterVec
	VerificationSyncs prometheus.Counter
	NotifyFailures    prometheus.Counter
}

// New registers all metrics with the default registry. Call once per process.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers all metrics with reg; tests pass a fresh
// prometheus.NewRegistry().
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ReviewsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "trustline_reviews_created_total",
			Help: "Total number of reviews accepted by the ledger",
		}),
		ReviewsUpdated: f.NewCounter(prometheus.CounterOpts{
			Name: "trustline_reviews_updated_total",
			Help: "Total number of review edits",
		}),
		ReviewsDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "trustline_reviews_deleted_total",
			Help: "Total number of reviews soft-deleted",
		}),
		ReviewsRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustline_reviews_rejected_total",
			Help: "Review submissions rejected before persistence, by reason",
		}, []string{"reason"}),
		RecomputeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trustline_recompute_duration_seconds",
			Help:    "Duration of score recomputes",
			Buckets: durationBuckets,
		}, []string{"target"}),
		DocumentVerdicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustline_document_verdicts_total",
			Help: "Document verdicts by path (auto, manual) and status",
		}, []string{"path", "status"}),
		VerificationSyncs: f.NewCounter(prometheus.CounterOpts{
			Name: "trustline_verification_syncs_total",
			Help: "Total number of verification percentage recomputes",
		}),
		NotifyFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "trustline_notification_failures_total",
			Help: "Notifications that could not be stored",
		}),
	}
}

func (m *Metrics) IncReviewsCreated() {
	if m == nil {
		return
	}
	m.ReviewsCreated.Inc()
}

func (m *Metrics) IncReviewsUpdated() {
	if m == nil {
		return
	}
	m.ReviewsUpdated.Inc()
}

func (m *Metrics) IncReviewsDeleted() {
	if m == nil {
		return
	}
	m.ReviewsDeleted.Inc()
}

// IncReviewsRejected records a rejected submission; reason is an error code.
func (m *Metrics) IncReviewsRejected(reason string) {
	if m == nil {
		return
	}
	m.ReviewsRejected.WithLabelValues(reason).Inc()
}

// ObserveRecompute records a recompute for target ("employee" or "company").
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveRecompute(target string, start time.Time) {
	if m == nil {
		return
	}
	m.RecomputeDuration.WithLabelValues(target).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncDocumentVerdict(path, status string) {
	if m == nil {
		return
	}
	m.DocumentVerdicts.WithLabelValues(path, status).Inc()
}

func (m *Metrics) IncVerificationSyncs() {
	if m == nil {
		return
	}
	m.VerificationSyncs.Inc()
}

func (m *Metrics) IncNotifyFailures() {
	if m == nil {
		return
	}
	m.NotifyFailures.Inc()
}
