// Copyright 2025 ChaosPG Authors
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

// Package metrics exposes Prometheus instrumentation for the failover lab
// and the /metrics endpoint serving it.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chaospg/chaospg/pkg/logger"
)

const (
	// Component labels.
	ComponentNodeProbe      = "node_probe"
	ComponentResolver       = "role_resolver"
	ComponentFaultInjector  = "fault_injector"
	ComponentFailoverWaiter = "failover_waiter"
	ComponentQueryProbe     = "query_probe"
	ComponentScenario       = "scenario"
)

var (
	// Namespace and subsystem for all metrics.
	namespace = "chaospg"
	subsystem = "lab"

	probesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "node_probes_total",
			Help:      "Total number of per-node probes by channel and result",
		},
		[]string{"channel", "result"},
	)

	roleAmbiguitiesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "role_ambiguities_total",
			Help:      "Total number of split-brain artifacts observed during role resolution",
		},
		[]string{"group"},
	)

	faultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "faults_total",
			Help:      "Total number of fault injections and recoveries by node",
		},
		[]string{"node", "action"},
	)

	failoverDuration = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "failover_duration_seconds",
			Help:      "Observed time until a new leader was resolved and ready",
			Objectives: map[float64]float64{
				0.5:  0.01,
				0.9:  0.01,
				0.99: 0.01,
			},
		},
		[]string{"group"},
	)

	electionTimeoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "election_timeouts_total",
			Help:      "Total number of failover waits that exhausted their budget",
		},
		[]string{"group"},
	)

	errorCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "errors_total",
			Help:      "Total number of errors encountered by component",
		},
		[]string{"component"},
	)
)

// ObserveProbe records one per-node probe observation.
func ObserveProbe(channel, result string) {
	probesTotal.WithLabelValues(channel, result).Inc()
}

// ObserveAmbiguity records one split-brain artifact for a group.
func ObserveAmbiguity(group string) {
	roleAmbiguitiesTotal.WithLabelValues(group).Inc()
}

// ObserveFault records a fault injection or recovery for a node.
func ObserveFault(node, action string) {
	faultsTotal.WithLabelValues(node, action).Inc()
}

// ObserveFailoverDuration records how long a successful failover took.
func ObserveFailoverDuration(group string, d time.Duration) {
	failoverDuration.WithLabelValues(group).Observe(d.Seconds())
}

// ObserveElectionTimeout records one exhausted failover budget.
func ObserveElectionTimeout(group string) {
	electionTimeoutsTotal.WithLabelValues(group).Inc()
}

// IncErrorCount increments the error counter for a component.
func IncErrorCount(component string) {
	errorCounter.WithLabelValues(component).Inc()
}

// InitErrorCounter pre-registers the error counter for a component so the
// series exists before the first error.
func InitErrorCounter(component string) {
	errorCounter.WithLabelValues(component).Add(0)
}

// SetupMetricsEndpoint starts an HTTP server exposing /metrics and /health
// on the given address. The caller owns shutdown.
func SetupMetricsEndpoint(addr string) *http.Server {
	log := logger.For("Metrics")

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("Metrics server failed: %v", err)
		}
	}()

	return server
}
