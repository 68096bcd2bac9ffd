package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CheckinAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geoattend", Name: "checkin_attempts_total",
		Help: "Check-in attempts by outcome (accepted or the rejecting stage)",
	}, []string{"outcome"})
	CheckinDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "geoattend", Name: "checkin_duration_seconds",
		Help:    "Validation pipeline latency",
		Buckets: prometheus.DefBuckets,
	})
	SessionsSwept = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "geoattend", Name: "sessions_swept_total",
		Help: "Stale sessions closed by the expiry sweep",
	})
)

func init() {
	prometheus.MustRegister(CheckinAttempts, CheckinDuration, SessionsSwept)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveCheckin(outcome string, d time.Duration) {
	CheckinAttempts.WithLabelValues(outcome).Inc()
	CheckinDuration.Observe(d.Seconds())
}
