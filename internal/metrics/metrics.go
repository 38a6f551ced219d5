package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes
const (
	OutcomeAccepted = "accepted"
	OutcomeSpam     = "spam"
	OutcomeInvalid  = "invalid"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_submissions_total",
			Help: "Total number of form submissions by outcome",
		},
		[]string{"outcome"},
	)

	SpamVerdictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_spam_verdicts_total",
			Help: "Total number of submissions flagged as spam by reason",
		},
		[]string{"reason"},
	)

	ContentCheckDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "form_content_check_duration_seconds",
			Help:    "Duration of content checks in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	NotificationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_notification_failures_total",
			Help: "Total number of owner notifications that could not be delivered",
		},
		[]string{"notifier"},
	)
)

// RecordSpam counts a rejected submission
func RecordSpam(reason string) {
	SubmissionsTotal.WithLabelValues(OutcomeSpam).Inc()
	SpamVerdictsTotal.WithLabelValues(reason).Inc()
}
