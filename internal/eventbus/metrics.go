// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package eventbus

import "github.com/prometheus/client_golang/prometheus"

var (
	eventsDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plughost_events_dispatched_total",
			Help: "Total number of events dispatched to at least one listener, by endpoint",
		},
		[]string{"endpoint"},
	)

	listenerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plughost_listener_failures_total",
			Help: "Total number of failed event listener calls, by endpoint",
		},
		[]string{"endpoint"},
	)

	framesDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "plughost_event_frames_dropped_total",
		Help: "Total number of malformed message-bus frames skipped",
	})
)

// Collectors returns the package metrics for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{eventsDispatched, listenerFailures, framesDropped}
}
