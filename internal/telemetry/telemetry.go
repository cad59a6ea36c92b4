// Package telemetry exposes Prometheus metrics for summaries, OCR and the
// model service on a private registry.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clinote/internal/domain"
)

const namespace = "clinote"

// Outcome label for successful operations.
const OutcomeOK = "ok"

type Metrics struct {
	registry *prometheus.Registry

	SummariesTotal   *prometheus.CounterVec
	SummaryDuration  *prometheus.HistogramVec
	OCRTotal         *prometheus.CounterVec
	OCRDuration      *prometheus.HistogramVec
	ModelUp          prometheus.Gauge
	ModelWatchChecks *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		SummariesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_total",
			Help:      "Summary requests by source and outcome kind",
		}, []string{"source", "outcome"}),
		SummaryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "summary_duration_seconds",
			Help:      "End-to-end summary pipeline duration",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		}, []string{"source"}),
		OCRTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ocr_extractions_total",
			Help:      "OCR extractions by outcome (ok, failed, timeout)",
		}, []string{"outcome"}),
		OCRDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ocr_duration_seconds",
			Help:      "OCR extraction duration",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"outcome"}),
		ModelUp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_service_up",
			Help:      "1 if the last scheduled probe reached the model service",
		}),
		ModelWatchChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_watch_checks_total",
			Help:      "Scheduled model service probes by result",
		}, []string{"result"}),
	}
}

// Handler serves the private registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordSummary counts one pipeline run; err nil means success.
func (m *Metrics) RecordSummary(source domain.Source, err error, d time.Duration) {
	m.SummariesTotal.WithLabelValues(string(source), Outcome(err)).Inc()
	m.SummaryDuration.WithLabelValues(string(source)).Observe(d.Seconds())
}

func (m *Metrics) RecordOCR(outcome string, d time.Duration) {
	m.OCRTotal.WithLabelValues(outcome).Inc()
	m.OCRDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) SetModelUp(up bool) {
	result := "down"
	value := 0.0
	if up {
		result = "up"
		value = 1
	}

	m.ModelUp.Set(value)
	m.ModelWatchChecks.WithLabelValues(result).Inc()
}

// Outcome is the metric label for err.
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}

	return domain.KindOf(err).String()
}
