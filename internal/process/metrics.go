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

package process

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	spawnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remoteldr_process_spawns_total",
			Help: "Total process spawn attempts by result",
		},
		[]string{"result"},
	)

	exitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remoteldr_process_exits_total",
			Help: "Total spawned processes that terminated, by how they terminated",
		},
		[]string{"reason"},
	)

	killsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remoteldr_process_kills_total",
			Help: "Total kill requests by result",
		},
		[]string{"result"},
	)

	trackedProcesses = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "remoteldr_process_table_size",
		Help: "Number of processes currently tracked by the controller",
	})
)

func recordExit(status ExitStatus) {
	reason := "exited"
	if status.Code == nil {
		reason = "signaled"
	}
	exitsTotal.WithLabelValues(reason).Inc()
}
