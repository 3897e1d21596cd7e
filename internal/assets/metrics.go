// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package assets

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// requestsTotal counts served virtual requests by import kind and status.
var requestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "plughost_asset_requests_total",
		Help: "Total number of plugin asset requests by import kind and status",
	},
	[]string{"kind", "status"},
)

// Collectors returns the package metrics for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{requestsTotal}
}

func recordRequest(kind ImportKind, status int) {
	requestsTotal.WithLabelValues(kind.String(), strconv.Itoa(status)).Inc()
}
