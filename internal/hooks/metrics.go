// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package hooks

import "github.com/prometheus/client_golang/prometheus"

var (
	// hookFailures counts failed lifecycle callbacks by phase.
	hookFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plughost_hook_failures_total",
			Help: "Total number of failed pre-init and post-init callbacks",
		},
		[]string{"phase"},
	)

	// componentsLoaded counts completed component bring-ups.
	componentsLoaded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "plughost_components_loaded_total",
		Help: "Total number of host components brought up",
	})
)

// Collectors returns the package metrics for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{hookFailures, componentsLoaded}
}
