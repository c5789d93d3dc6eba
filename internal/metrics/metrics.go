// Package metrics provides Prometheus metrics for chunkscribe runs.
//
// A Metrics value owns its own registry so concurrent runs and tests never
// collide on the global one. The CLI exports a finished run with WriteTextfile
// for node_exporter's textfile collector. A nil *Metrics is a valid no-op.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "chunkscribe"

// Metrics groups the counters and histograms recorded by the pipeline.
type Metrics struct {
	registry *prometheus.Registry

	// assetsTotal counts finished assets.
	// Labels:
	//   - status: completed, partial, failed
	assetsTotal *prometheus.CounterVec

	// segmentsTotal counts transcribed segments.
	// Labels:
	//   - result: success, failed
	segmentsTotal *prometheus.CounterVec

	attemptsTotal      prometheus.Counter
	parseWarningsTotal prometheus.Counter

	// Buckets: 1s to 10 minutes, matching the service's typical latency for a 24 minute window.
	segmentDuration prometheus.Histogram
	assetDuration   prometheus.Histogram
}

// New creates a Metrics value backed by a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		assetsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "assets_total",
				Help:      "Total number of audio assets processed by final status",
			},
			[]string{"status"},
		),
		segmentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "segments_total",
				Help:      "Total number of audio segments transcribed by result",
			},
			[]string{"result"},
		),
		attemptsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcription_attempts_total",
			Help:      "Total number of calls made to the speech-to-text service",
		}),
		parseWarningsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_warnings_total",
			Help:      "Total number of SRT blocks skipped while parsing responses",
		}),
		segmentDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "segment_duration_seconds",
			Help:      "Wall time spent transcribing one segment including retries",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		assetDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "asset_duration_seconds",
			Help:      "Wall time spent on one audio asset from probe to output",
			Buckets:   []float64{5, 30, 60, 300, 600, 1800, 3600},
		}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordSegment records one segment outcome.
func (m *Metrics) RecordSegment(failed bool, attempts int, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if failed {
		result = "failed"
	}
	m.segmentsTotal.WithLabelValues(result).Inc()
	if attempts > 0 {
		m.attemptsTotal.Add(float64(attempts))
	}
	m.segmentDuration.Observe(elapsed.Seconds())
}

// RecordParseWarnings adds skipped SRT blocks.
func (m *Metrics) RecordParseWarnings(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.parseWarningsTotal.Add(float64(count))
}

// RecordAsset records one finished asset.
func (m *Metrics) RecordAsset(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.assetsTotal.WithLabelValues(status).Inc()
	m.assetDuration.Observe(elapsed.Seconds())
}

// WriteTextfile writes the registry in the Prometheus text format. The file is
// replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
