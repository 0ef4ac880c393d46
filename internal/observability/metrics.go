package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "exercise_tracker"

var (
	usersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "users",
		Name:      "created_total",
		Help:      "Number of users created.",
	})
	exercisesLogged = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "exercises",
		Name:      "logged_total",
		Help:      "Number of exercises logged.",
	})
	lastExerciseGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "exercises",
		Name:      "last_logged_timestamp_seconds",
		Help:      "Unix timestamp of the most recently logged exercise date.",
	})
	cascadeDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "exercises",
		Name:      "cascade_deleted_total",
		Help:      "Number of exercises removed together with their user.",
	})
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})
	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

func init() {
	prometheus.MustRegister(
		usersCreated,
		exercisesLogged,
		lastExerciseGauge,
		cascadeDeleted,
		httpRequests,
		httpDuration,
	)
}

// RecordUserCreated counts a newly stored user.
func RecordUserCreated() {
	usersCreated.Inc()
}

// RecordExerciseLogged counts a stored exercise and updates the date watermark.
func RecordExerciseLogged(date time.Time) {
	exercisesLogged.Inc()
	if date.IsZero() {
		return
	}
	lastExerciseGauge.Set(float64(date.Unix()))
}

// RecordCascadeDelete counts exercises removed by a user deletion.
func RecordCascadeDelete(removed int64) {
	if removed <= 0 {
		return
	}
	cascadeDeleted.Add(float64(removed))
}
