// Copyright 2025 AxonFlow
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

package assistant

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics
var (
	promRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_requests_total",
			Help: "Total number of ask requests by outcome",
		},
		[]string{"outcome"},
	)
	promRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_request_duration_milliseconds",
			Help:    "Ask request duration in milliseconds",
			Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000, 10000},
		},
		[]string{"outcome"},
	)
	promBlockedRequests = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "assistant_blocked_requests_total",
			Help: "Total number of requests blocked by content filtering",
		},
	)
	promToolExecutions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "assistant_tool_executions_total",
			Help: "Total number of knowledge-base tool executions",
		},
	)
	promMaskedQueries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "assistant_masked_queries_total",
			Help: "Total number of questions with client-side PII masking applied",
		},
	)
)

func init() {
	// Register Prometheus metrics
	prometheus.MustRegister(promRequestsTotal)
	prometheus.MustRegister(promRequestDuration)
	prometheus.MustRegister(promBlockedRequests)
	prometheus.MustRegister(promToolExecutions)
	prometheus.MustRegister(promMaskedQueries)
}

func observeRequest(outcome string, start time.Time) {
	promRequestsTotal.WithLabelValues(outcome).Inc()
	promRequestDuration.WithLabelValues(outcome).Observe(float64(time.Since(start).Milliseconds()))
}
