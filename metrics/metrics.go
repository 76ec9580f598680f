// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics wraps the prometheus collectors the trustee session
// loop and store report.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the collectors a running trustee reports. A nil
// *Metrics is valid and every method is then a no-op, so callers that
// do not care about metrics need not special-case it.
type Metrics struct {
	reg prometheus.Registerer

	MessagesIngested  *prometheus.CounterVec
	MessagesRejected  *prometheus.CounterVec
	ActionsEmitted    *prometheus.CounterVec
	ActionsExecuted   *prometheus.CounterVec
	StepDuration      prometheus.Histogram
	BoardPollFailures prometheus.Counter
}

// New registers the trustee's collectors against reg. Pass a nil
// Registerer to disable metrics entirely.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}
	m := &Metrics{
		reg: reg,
		MessagesIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "braid",
			Subsystem: "store",
			Name:      "messages_ingested_total",
			Help:      "Messages successfully ingested into the local store, by statement kind.",
		}, []string{"kind"}),
		MessagesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "braid",
			Subsystem: "store",
			Name:      "messages_rejected_total",
			Help:      "Messages rejected during ingestion, by reason.",
		}, []string{"reason"}),
		ActionsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "braid",
			Subsystem: "driver",
			Name:      "actions_emitted_total",
			Help:      "Actions emitted by the protocol driver, by action kind.",
		}, []string{"kind"}),
		ActionsExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "braid",
			Subsystem: "action",
			Name:      "actions_executed_total",
			Help:      "Actions executed by handlers, by action kind and outcome.",
		}, []string{"kind", "outcome"}),
		StepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "braid",
			Subsystem: "session",
			Name:      "step_duration_seconds",
			Help:      "Wall-clock duration of one session step.",
			Buckets:   prometheus.DefBuckets,
		}),
		BoardPollFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "braid",
			Subsystem: "session",
			Name:      "board_poll_failures_total",
			Help:      "Transient failures polling the board.",
		}),
	}
	for _, c := range []prometheus.Collector{
		m.MessagesIngested, m.MessagesRejected, m.ActionsEmitted,
		m.ActionsExecuted, m.StepDuration, m.BoardPollFailures,
	} {
		_ = reg.Register(c)
	}
	return m
}

func (m *Metrics) incIngested(kind string) {
	if m == nil {
		return
	}
	m.MessagesIngested.WithLabelValues(kind).Inc()
}

// IngestOK records a successful ingestion of a statement of the given kind.
func (m *Metrics) IngestOK(kind string) { m.incIngested(kind) }

// IngestRejected records a rejected message and the rejection reason.
func (m *Metrics) IngestRejected(reason string) {
	if m == nil {
		return
	}
	m.MessagesRejected.WithLabelValues(reason).Inc()
}

// ActionEmitted records that the driver emitted an action of the given kind.
func (m *Metrics) ActionEmitted(kind string) {
	if m == nil {
		return
	}
	m.ActionsEmitted.WithLabelValues(kind).Inc()
}

// ActionExecuted records the outcome ("ok" or "error") of executing an action.
func (m *Metrics) ActionExecuted(kind, outcome string) {
	if m == nil {
		return
	}
	m.ActionsExecuted.WithLabelValues(kind, outcome).Inc()
}

// ObserveStep records the duration of one session step in seconds.
func (m *Metrics) ObserveStep(seconds float64) {
	if m == nil {
		return
	}
	m.StepDuration.Observe(seconds)
}

// BoardPollFailed records a transient board polling failure.
func (m *Metrics) BoardPollFailed() {
	if m == nil {
		return
	}
	m.BoardPollFailures.Inc()
}
