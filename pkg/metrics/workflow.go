package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type workflowMetrics struct {
	transitions     *prometheus.CounterVec
	feedSubscribers prometheus.Gauge
	feedHints       *prometheus.CounterVec
}

var workflowSingleton = sync.OnceValue(func() *workflowMetrics {
	return &workflowMetrics{
		transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketplace",
			Name:      "workflow_transitions_total",
			Help:      "Workflow operations by engine, operation and result.",
		}, []string{"engine", "operation", "result"}),
		feedSubscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "marketplace",
			Name:      "feed_subscribers",
			Help:      "Live notification sessions currently subscribed.",
		}),
		feedHints: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketplace",
			Name:      "feed_hints_total",
			Help:      "Change hints received from the notification feed by backend.",
		}, []string{"backend"}),
	}
})

// Transition counts one workflow operation. result is "ok" or the error code.
func Transition(engine, operation, result string) {
	workflowSingleton().transitions.WithLabelValues(engine, operation, result).Inc()
}

func FeedSubscribed() {
	workflowSingleton().feedSubscribers.Inc()
}

func FeedUnsubscribed() {
	workflowSingleton().feedSubscribers.Dec()
}

func FeedHint(backend string) {
	workflowSingleton().feedHints.WithLabelValues(backend).Inc()
}
