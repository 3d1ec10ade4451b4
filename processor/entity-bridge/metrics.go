package entitybridge

import (
	"log/slog"

	"github.com/c360studio/semstreams/metric"
	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds Prometheus metrics for the entity bridge. A nil *metrics is
// valid and records nothing.
type metrics struct {
	requests       *prometheus.CounterVec
	sensorsSkipped *prometheus.CounterVec
	liveEntities   prometheus.Gauge
	goals          prometheus.Counter
	modelChanges   prometheus.Counter
}

func newMetrics(registry *metric.MetricsRegistry, logger *slog.Logger) *metrics {
	if registry == nil {
		return nil
	}

	m := &metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arena_entity_bridge_requests_total",
				Help: "Entity bridge requests by operation and outcome",
			},
			[]string{"operation", "status"},
		),
		sensorsSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arena_entity_bridge_sensors_skipped_total",
				Help: "Robot sensor attachments skipped, by sensor",
			},
			[]string{"sensor"},
		),
		liveEntities: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arena_entity_bridge_live_entities",
			Help: "Entities currently registered",
		}),
		goals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_entity_bridge_goals_total",
			Help: "Navigation goals received",
		}),
		modelChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_entity_bridge_model_changes_total",
			Help: "Robot model file changes observed",
		}),
	}

	if err := registry.RegisterCounterVec(componentName, "requests_total", m.requests); err != nil {
		logger.Warn("Failed to register metric", "metric", "requests_total", "error", err)
	}
	if err := registry.RegisterCounterVec(componentName, "sensors_skipped_total", m.sensorsSkipped); err != nil {
		logger.Warn("Failed to register metric", "metric", "sensors_skipped_total", "error", err)
	}
	if err := registry.RegisterGauge(componentName, "live_entities", m.liveEntities); err != nil {
		logger.Warn("Failed to register metric", "metric", "live_entities", "error", err)
	}
	if err := registry.RegisterCounter(componentName, "goals_total", m.goals); err != nil {
		logger.Warn("Failed to register metric", "metric", "goals_total", "error", err)
	}
	if err := registry.RegisterCounter(componentName, "model_changes_total", m.modelChanges); err != nil {
		logger.Warn("Failed to register metric", "metric", "model_changes_total", "error", err)
	}

	return m
}

func (m *metrics) request(operation string, ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "failed"
	}
	m.requests.WithLabelValues(operation, status).Inc()
}

func (m *metrics) sensorSkipped(sensor string) {
	if m == nil {
		return
	}
	m.sensorsSkipped.WithLabelValues(sensor).Inc()
}

func (m *metrics) setLive(n int) {
	if m == nil {
		return
	}
	m.liveEntities.Set(float64(n))
}

func (m *metrics) goal() {
	if m == nil {
		return
	}
	m.goals.Inc()
}

func (m *metrics) modelChanged() {
	if m == nil {
		return
	}
	m.modelChanges.Inc()
}
