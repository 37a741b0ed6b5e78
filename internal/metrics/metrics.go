// Package metrics exposes the Prometheus metrics surface supplementing
// spec.md per SPEC_FULL.md §6.8: active room/timer gauges and counters for
// the two forced-advance paths (ack timeout, auto-actions on turn/
// prediction timeout). Grounded on the teacher's indirect
// prometheus/client_golang dependency and on timpalpant-go-farkle's use of
// the same library to instrument a dice-game engine.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles every collector the gateway and engine report to.
type Metrics struct {
	Registry *prometheus.Registry

	ActiveRooms  prometheus.Gauge
	ActiveTimers prometheus.Gauge

	AckTimeoutForcedAdvance prometheus.Counter
	TurnTimeoutAutoActions  prometheus.Counter
	PredictionTimeoutAutoActions prometheus.Counter

	ConnectedSessions prometheus.Gauge
}

// New builds a Metrics bundle registered against a fresh registry, so
// callers never accidentally share state with prometheus's global default
// registry across tests.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		ActiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dicearena",
			Name:      "active_rooms",
			Help:      "Number of rooms currently live in the registry.",
		}),
		ActiveTimers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dicearena",
			Name:      "active_timers",
			Help:      "Number of per-room countdowns (turn/prediction/results-ack) currently running.",
		}),
		AckTimeoutForcedAdvance: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dicearena",
			Name:      "ack_timeout_forced_advance_total",
			Help:      "Number of times the results-ack timeout forced a room to advance with outstanding acknowledgements.",
		}),
		TurnTimeoutAutoActions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dicearena",
			Name:      "turn_timeout_auto_actions_total",
			Help:      "Number of TURN_TIMEOUT auto-selections synthesized by the timer subsystem.",
		}),
		PredictionTimeoutAutoActions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dicearena",
			Name:      "prediction_timeout_auto_actions_total",
			Help:      "Number of PREDICTION_TIMEOUT auto-assignments synthesized by the timer subsystem.",
		}),
		ConnectedSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dicearena",
			Name:      "connected_sessions",
			Help:      "Number of live WebSocket sessions across all rooms.",
		}),
	}
	reg.MustRegister(
		m.ActiveRooms,
		m.ActiveTimers,
		m.AckTimeoutForcedAdvance,
		m.TurnTimeoutAutoActions,
		m.PredictionTimeoutAutoActions,
		m.ConnectedSessions,
	)
	return m
}
