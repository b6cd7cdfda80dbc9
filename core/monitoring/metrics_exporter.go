package monitoring

import (
	"fmt"
	"strings"

	"miniml-backend/core/broadcast"
	"miniml-backend/core/catalog"
	"miniml-backend/core/simulation"
	"miniml-backend/core/training"
)

// MetricsExporter exports service state in Prometheus text format
type MetricsExporter struct {
	catalog  *catalog.Catalog
	session  *training.Session
	engine   *simulation.Engine
	registry *broadcast.Registry
}

// NewMetricsExporter creates a new metrics exporter
func NewMetricsExporter(
	catalog *catalog.Catalog,
	session *training.Session,
	engine *simulation.Engine,
	registry *broadcast.Registry,
) *MetricsExporter {
	return &MetricsExporter{
		catalog:  catalog,
		session:  session,
		engine:   engine,
		registry: registry,
	}
}

// GetPrometheusMetrics returns metrics in Prometheus format
func (me *MetricsExporter) GetPrometheusMetrics() string {
	var b strings.Builder

	writeMetric(&b, "miniml_subscribers", "gauge", "Connected streaming subscribers", float64(me.registry.Len()))
	writeMetric(&b, "miniml_datasets", "gauge", "Ingested datasets in the catalog", float64(me.catalog.Len()))

	sim := me.engine.Stats()
	writeMetric(&b, "miniml_simulation_running", "gauge", "Whether a simulation run is in progress", boolValue(me.engine.Running()))
	writeMetric(&b, "miniml_predictions_total", "counter", "Predictions produced in the current run", float64(sim.TotalPredictions))
	writeMetric(&b, "miniml_predictions_out_of_range_total", "counter", "Fail predictions in the current run", float64(sim.OutOfRange))
	writeMetric(&b, "miniml_simulation_accuracy", "gauge", "Accuracy percentage of the current run", float64(sim.Accuracy))

	state := me.session.Status()
	writeMetric(&b, "miniml_training_in_progress", "gauge", "Whether a training session is in progress", boolValue(state.IsTraining))
	writeMetric(&b, "miniml_training_progress", "gauge", "Training progress percentage", float64(state.Progress))

	return b.String()
}

func writeMetric(b *strings.Builder, name, kind, help string, value float64) {
	fmt.Fprintf(b, "# HELP %s %s\n", name, help)
	fmt.Fprintf(b, "# TYPE %s %s\n", name, kind)
	fmt.Fprintf(b, "%s %g\n", name, value)
}

func boolValue(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
