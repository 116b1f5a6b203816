// Package metrics exposes prometheus collectors for boundary calls and live
// handles.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wippyai/citadel-abi/errors"
	"github.com/wippyai/citadel-abi/resource"
)

var (
	registerOnce sync.Once

	calls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "citadel",
			Subsystem: "abi",
			Name:      "calls_total",
			Help:      "Total boundary calls by operation and status.",
		},
		[]string{"op", "status"},
	)
	callDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "citadel",
			Subsystem: "abi",
			Name:      "call_duration_seconds",
			Help:      "Boundary call duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)
	liveHandles = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "citadel",
			Subsystem: "abi",
			Name:      "live_handles",
			Help:      "Handles currently live, by family.",
		},
		[]string{"family"},
	)
)

// Register adds the collectors to the default prometheus registry.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(calls, callDuration, liveHandles)
	})
}

// Collectors returns every collector, for callers with a private registry.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{calls, callDuration, liveHandles}
}

// RecordCall counts one finished call.
func RecordCall(op string, code errors.Code, d time.Duration) {
	calls.WithLabelValues(op, code.String()).Inc()
	callDuration.WithLabelValues(op).Observe(d.Seconds())
}

// HandleGauge keeps the live_handles gauge in step with a registry.
type HandleGauge struct{}

// OnResourceEvent implements resource.Observer.
func (HandleGauge) OnResourceEvent(e resource.Event) {
	switch e.Type {
	case resource.EventCreated:
		liveHandles.WithLabelValues(e.Family.String()).Inc()
	case resource.EventDropped:
		liveHandles.WithLabelValues(e.Family.String()).Dec()
	}
}
