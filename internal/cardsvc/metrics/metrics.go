package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "qrcard"

const (
	SourceGenerated = "generated"
	SourceRequested = "requested"

	ResultFound    = "found"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

var (
	cardsIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cards_issued_total",
			Help:      "Cards stored, by where the code came from.",
		},
		[]string{"source"},
	)

	issueFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "card_issue_failures_total",
			Help:      "Rejected or failed card submissions, by reason.",
		},
		[]string{"reason"},
	)

	cardLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "card_lookups_total",
			Help:      "Card lookups, by result.",
		},
		[]string{"result"},
	)

	renderDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time to build a card document including the QR code.",
			Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)
)

// Register adds the card collectors to reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(cardsIssued, issueFailures, cardLookups, renderDuration)
}

func RecordIssued(source string) {
	cardsIssued.WithLabelValues(source).Inc()
}

func RecordIssueFailure(reason string) {
	issueFailures.WithLabelValues(reason).Inc()
}

func RecordLookup(result string) {
	cardLookups.WithLabelValues(result).Inc()
}

func RecordRenderDuration(start time.Time) {
	renderDuration.Observe(time.Since(start).Seconds())
}
