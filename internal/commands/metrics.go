// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records dispatch counts and latencies. A nil *Metrics records
// nothing.
type Metrics struct {
	dispatches *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics creates the dispatch collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wizard_dispatch_total",
				Help: "Total number of dispatched lines by command and outcome kind",
			},
			[]string{"command", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wizard_dispatch_duration_seconds",
				Help:    "Duration of command handler executions",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command"},
		),
	}
	for _, c := range []prometheus.Collector{m.dispatches, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// observe records one dispatch. command is "" when no command was resolved.
func (m *Metrics) observe(command string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	if command == "" {
		command = "-"
	}
	m.dispatches.WithLabelValues(command, Kind(err)).Inc()
	if elapsed > 0 {
		m.duration.WithLabelValues(command).Observe(elapsed.Seconds())
	}
}
