package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PublishesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "depository_publishes_total",
		Help: "Number of successful deposit publishes.",
	})

	PublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "depository_publish_failures_total",
		Help: "Number of failed deposit publishes by error kind.",
	}, []string{"kind"})

	RegistrarAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "depository_registrar_attempts_total",
		Help: "DOI registrar calls by outcome.",
	}, []string{"outcome"})

	OutboxBacklog = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "depository_outbox_backlog",
		Help: "Pending messages in the transactional outbox.",
	})

	IndexReconciled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "depository_index_reconciled_total",
		Help: "Records re-indexed by the staleness reconciler.",
	})

	UploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "depository_upload_bytes",
		Help:    "Size distribution of uploaded files.",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
	})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
