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

package resource

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "remoteldr_sandbox_operation_duration_seconds",
			Help:    "Duration of sandbox file operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "status"},
	)

	bytesRead = promauto.NewCounter(prometheus.CounterOpts{
		Name: "remoteldr_sandbox_bytes_read_total",
		Help: "Total bytes read from the sandbox",
	})

	bytesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "remoteldr_sandbox_bytes_written_total",
		Help: "Total bytes written to the sandbox",
	})

	errorsByType = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remoteldr_sandbox_errors_total",
			Help: "Total sandbox operation errors by type",
		},
		[]string{"error_type"},
	)
)

// recordMetrics records metrics for a sandbox operation.
func recordMetrics(operation string, duration float64, status string, bytesReadCount, bytesWrittenCount int64, errType ErrorType) {
	operationDuration.WithLabelValues(operation, status).Observe(duration)

	if bytesReadCount > 0 {
		bytesRead.Add(float64(bytesReadCount))
	}
	if bytesWrittenCount > 0 {
		bytesWritten.Add(float64(bytesWrittenCount))
	}

	if status == "error" && errType != "" {
		errorsByType.WithLabelValues(string(errType)).Inc()
	}
}
