package plugin

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess        = "success"
	outcomeError          = "error"
	outcomeNotImplemented = "not_implemented"

	otherMethod = "other"
)

var (
	methodCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "android_id_method_calls_total",
			Help: "Method calls received on the android_id channel, by method and outcome.",
		},
		[]string{"method", "outcome"},
	)

	methodDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "android_id_method_call_duration_seconds",
			Help:    "Time spent answering android_id method calls.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(methodCalls, methodDuration)
}

// unknown method names are folded into one label to bound cardinality
func methodLabel(method string) string {
	switch method {
	case MethodGetID, MethodIsEmulator:
		return method
	default:
		return otherMethod
	}
}

func observeCall(method, outcome string, elapsed time.Duration) {
	label := methodLabel(method)
	methodCalls.WithLabelValues(label, outcome).Inc()
	methodDuration.WithLabelValues(label).Observe(elapsed.Seconds())
}
