// Package metrics exposes Prometheus metrics for pipeline runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"hawker-closures/models"
)

const namespace = "hawker"

// Metrics holds the pipeline run metrics.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	RecordsFetched  prometheus.Gauge
	CentresByStatus *prometheus.GaugeVec
	ExcludedCentres prometheus.Gauge
}

// New creates and registers the pipeline metrics on reg, or on the default registerer when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a full pipeline run including the fetch.",
			Buckets:   prometheus.DefBuckets,
		}),
		RecordsFetched: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "records_fetched",
			Help:      "Raw records returned by the last successful fetch.",
		}),
		CentresByStatus: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "centres",
			Help:      "Centres per status in the last classification.",
		}, []string{"status"}),
		ExcludedCentres: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "excluded_centres",
			Help:      "Centres with no qualifying closure record in the last classification.",
		}),
	}
}

// ObserveRun records the outcome and duration of one run.
func (m *Metrics) ObserveRun(started time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.RunsTotal.WithLabelValues(outcome).Inc()
	m.RunDuration.Observe(time.Since(started).Seconds())
}

// ObserveClassification sets the per-status gauges from a classification.
func (m *Metrics) ObserveClassification(c *models.Classification) {
	m.CentresByStatus.WithLabelValues(string(models.StatusOpen)).Set(float64(len(c.Open)))
	m.CentresByStatus.WithLabelValues(string(models.StatusClosingSoon)).Set(float64(len(c.ClosingSoon)))
	m.CentresByStatus.WithLabelValues(string(models.StatusClosed)).Set(float64(len(c.Closed)))
	m.ExcludedCentres.Set(float64(len(c.Excluded)))
}
