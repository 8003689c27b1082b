// Package metrics exposes Prometheus instruments for the evaluation engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ScoresRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "competition",
		Name:      "scores_recorded_total",
		Help:      "Number of judge scores recorded (including upserts).",
	})

	ResultsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "competition",
		Name:      "results_published_total",
		Help:      "Number of publish-results operations performed.",
	})

	EmailsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "competition",
		Name:      "notification_emails_failed_total",
		Help:      "Number of notification emails that failed to send.",
	})

	LeaderboardDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "competition",
		Name:      "leaderboard_request_duration_seconds",
		Help:      "Time spent building competition leaderboards.",
		Buckets:   prometheus.DefBuckets,
	})
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
