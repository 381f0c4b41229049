package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "facilitydesk"

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	StorageRecoveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "storage_recoveries_total", Help: "Collections reset to an empty array after failing to parse."},
		[]string{"kind"},
	)
	LoginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "login_attempts_total", Help: "Login attempts by outcome."},
		[]string{"result"},
	)
	MediaUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "media_uploads_total", Help: "Media uploads by outcome."},
		[]string{"result"},
	)
	OrphansRemoved = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "media_orphans_removed_total", Help: "Attachments removed by the orphan sweep."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(StorageRecoveries)
	reg.MustRegister(LoginAttempts)
	reg.MustRegister(MediaUploads)
	reg.MustRegister(OrphansRemoved)
}
