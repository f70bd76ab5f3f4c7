// Package metrics registers the Prometheus counters exposed on the health
// endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReportsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parkwatch_reports_accepted_total",
		Help: "Sighting reports accepted by the validator.",
	})
	ReportsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parkwatch_reports_rejected_total",
		Help: "Sighting reports rejected by the validator, by reason.",
	}, []string{"reason"})
	FeedbackVotes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parkwatch_feedback_votes_total",
		Help: "Feedback votes applied, by polarity.",
	}, []string{"polarity"})
	AlertsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parkwatch_alerts_delivered_total",
		Help: "Alert messages delivered to subscribers.",
	})
	AlertsPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parkwatch_alerts_pruned_total",
		Help: "Subscribers pruned after Telegram rejected delivery.",
	})
	UpdatesHandled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parkwatch_updates_handled_total",
		Help: "Telegram updates processed by the bot loop.",
	})
)
