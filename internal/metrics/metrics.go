// Package metrics provides per-run Prometheus metrics. Each run gets its own
// registry so concurrent runs never share collectors; the result can be
// exported to a node_exporter textfile.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storyvideo"

// Metrics holds the collectors for one run.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal        *prometheus.CounterVec
	StageDuration    *prometheus.HistogramVec
	SegmentsTotal    prometheus.Counter
	MatchesTotal     *prometheus.CounterVec
	MatchConfidence  prometheus.Histogram
	ImagesCatalogued prometheus.Gauge
	UniqueImages     prometheus.Gauge
	VideoSeconds     prometheus.Gauge
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome",
		}, []string{"outcome"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time spent in each pipeline stage",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}, []string{"stage"}),
		SegmentsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_total",
			Help:      "Narration segments produced by transcription",
		}),
		MatchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_total",
			Help:      "Segment matches by source (oracle or fallback)",
		}, []string{"source"}),
		MatchConfidence: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_confidence",
			Help:      "Confidence reported for each match",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		}),
		ImagesCatalogued: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "images_catalogued",
			Help:      "Images discovered in the input directory",
		}),
		UniqueImages: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unique_images",
			Help:      "Distinct images used in the timeline",
		}),
		VideoSeconds: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "video_seconds",
			Help:      "Duration of the rendered video",
		}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveMatch records one segment match.
func (m *Metrics) ObserveMatch(source string, confidence float64) {
	m.MatchesTotal.WithLabelValues(source).Inc()
	m.MatchConfidence.Observe(confidence)
}

// ObserveStage records how long a stage took.
func (m *Metrics) ObserveStage(stage string, seconds float64) {
	m.StageDuration.WithLabelValues(stage).Observe(seconds)
}

// RunFinished counts the run under outcome.
func (m *Metrics) RunFinished(outcome string) {
	m.RunsTotal.WithLabelValues(outcome).Inc()
}

// WriteTextfile atomically writes the registry in text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
