package outbox

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "marketplace"
	metricsSubsystem = "outbox"
)

type metrics struct {
	enqueueTotal  *prometheus.CounterVec
	dispatchTotal *prometheus.CounterVec
	deadTotal     *prometheus.CounterVec
	purgedTotal   *prometheus.CounterVec

	dispatchLatency  *prometheus.HistogramVec
	deliveryAttempts *prometheus.HistogramVec

	pending     *prometheus.GaugeVec
	locked      *prometheus.GaugeVec
	relayLeader *prometheus.GaugeVec
}

func counter(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func gauge(name, help string) *prometheus.GaugeVec {
	return promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      name,
		Help:      help,
	}, []string{"table"})
}

var getMetrics = sync.OnceValue(func() *metrics {
	return &metrics{
		enqueueTotal:  counter("enqueue_total", "Domain events written to the outbox by topic.", "table", "topic"),
		dispatchTotal: counter("dispatch_total", "Dispatch attempts by topic and result.", "table", "topic", "result"),
		deadTotal:     counter("dead_total", "Events that exhausted their delivery attempts.", "table", "topic"),
		purgedTotal:   counter("purged_total", "Rows removed by the cleaner, by kind (published or dead).", "table", "kind"),
		dispatchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "dispatch_latency_seconds",
			Help:      "Time spent in notification and other event handlers per dispatch.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 12),
		}, []string{"table", "topic", "result"}),
		deliveryAttempts: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "delivery_attempts",
			Help:      "Attempts needed until an event was delivered.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 25},
		}, []string{"table", "topic"}),
		pending:     gauge("pending", "Undelivered events waiting in the outbox."),
		locked:      gauge("locked", "Undelivered events currently claimed by a relay."),
		relayLeader: gauge("relay_leader", "1 when this instance holds the relay lock for the table."),
	}
})
