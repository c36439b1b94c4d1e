// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rpc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remoteldr_rpc_requests_total",
			Help: "Total RPC requests by method and status code",
		},
		[]string{"method", "code"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "remoteldr_rpc_request_duration_seconds",
			Help:    "RPC request latency by method",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	requestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "remoteldr_rpc_requests_in_flight",
		Help: "Number of RPC requests currently being served",
	})

	rateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "remoteldr_rpc_rate_limited_total",
		Help: "Total RPC requests rejected by the rate limiter",
	})
)
