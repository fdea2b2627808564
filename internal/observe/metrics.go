/*
 * Package observe provides the observability primitives of fretscribe:
 * OpenTelemetry metrics for the capture loop and the HTTP API, a Prometheus
 * bridge so they can be scraped via /metrics, and HTTP middleware.
 *
 * Tests should use [NewMetrics] with a [sdkmetric.ManualReader]-backed
 * provider to avoid cross-test pollution.
 */
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

/*
 * meterName is the instrumentation scope name used for all fretscribe metrics.
 */
const meterName = "github.com/metalblueberry/fretscribe"

/*
 * Rejection reasons recorded on [Metrics.NotesRejected].
 */
const (
	ReasonConfidence = "confidence"
	ReasonDebounce   = "debounce"
	ReasonNoPosition = "no_position"
)

/*
 * Stages at which samples are dropped, recorded on [Metrics.FramesDropped].
 */
const (
	DropCapture  = "capture"
	DropAnalysis = "analysis"
)

/*
 * Chord resolution outcomes recorded on [Metrics.ChordsResolved].
 */
const (
	ChordResolved   = "resolved"
	ChordUnplayable = "unplayable"
)

/*
 * Metrics holds all OpenTelemetry metric instruments for the application.
 * All fields are safe for concurrent use.
 */
type Metrics struct {
	/*
	 * FramesAnalyzed counts frames handed to the estimator.
	 */
	FramesAnalyzed metric.Int64Counter

	/*
	 * FramesDropped counts sample blocks lost by the capture device and
	 * frames skipped because analysis was busy or rate limited. Use with
	 * attribute.String("stage", ...).
	 */
	FramesDropped metric.Int64Counter

	/*
	 * PitchEstimates counts frames that produced a pitch estimate.
	 */
	PitchEstimates metric.Int64Counter

	/*
	 * NotesAccepted counts estimates admitted by the detection gate.
	 */
	NotesAccepted metric.Int64Counter

	/*
	 * NotesRejected counts estimates that did not become events. Use with
	 * attribute.String("reason", ...).
	 */
	NotesRejected metric.Int64Counter

	/*
	 * ChordsResolved counts chord searches. Use with
	 * attribute.String("status", ...).
	 */
	ChordsResolved metric.Int64Counter

	/*
	 * AnalysisDuration tracks the time spent analysing one frame.
	 */
	AnalysisDuration metric.Float64Histogram

	/*
	 * HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	 *   attribute.String("method", ...), attribute.String("path", ...)
	 */
	HTTPRequestDuration metric.Float64Histogram
}

/*
 * analysisBuckets defines histogram bucket boundaries (in seconds) for
 * per-frame analysis.
 */
var analysisBuckets = []float64{
	0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1,
}

/*
 * NewMetrics creates a fully initialised [Metrics] struct using the given
 * [metric.MeterProvider]. Returns an error if any instrument creation fails.
 */
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	/*
	 * Counters.
	 */
	if met.FramesAnalyzed, err = m.Int64Counter("fretscribe.frames.analyzed",
		metric.WithDescription("Total frames analysed for pitch."),
	); err != nil {
		return nil, err
	}
	if met.FramesDropped, err = m.Int64Counter("fretscribe.frames.dropped",
		metric.WithDescription("Total frames dropped while analysis was busy or rate limited."),
	); err != nil {
		return nil, err
	}
	if met.PitchEstimates, err = m.Int64Counter("fretscribe.pitch.estimates",
		metric.WithDescription("Total frames that produced a pitch estimate."),
	); err != nil {
		return nil, err
	}
	if met.NotesAccepted, err = m.Int64Counter("fretscribe.notes.accepted",
		metric.WithDescription("Total estimates admitted as note events."),
	); err != nil {
		return nil, err
	}
	if met.NotesRejected, err = m.Int64Counter("fretscribe.notes.rejected",
		metric.WithDescription("Total estimates rejected by reason."),
	); err != nil {
		return nil, err
	}
	if met.ChordsResolved, err = m.Int64Counter("fretscribe.chords.resolved",
		metric.WithDescription("Total chord searches by outcome."),
	); err != nil {
		return nil, err
	}

	/*
	 * Histograms.
	 */
	if met.AnalysisDuration, err = m.Float64Histogram("fretscribe.analysis.duration",
		metric.WithDescription("Time spent analysing one frame."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(analysisBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("fretscribe.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

/*
 * DefaultMetrics returns the package-level [Metrics] instance, creating it on
 * first call using [otel.GetMeterProvider]. Panics if instrument creation
 * fails.
 */
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

/*
 * RecordRejected records a rejected estimate with its reason.
 */
func (m *Metrics) RecordRejected(ctx context.Context, reason string) {
	m.NotesRejected.Add(ctx, 1,
		metric.WithAttributes(attribute.String("reason", reason)),
	)
}

/*
 * RecordDropped records n dropped blocks at stage.
 */
func (m *Metrics) RecordDropped(ctx context.Context, stage string, n int64) {
	m.FramesDropped.Add(ctx, n,
		metric.WithAttributes(attribute.String("stage", stage)),
	)
}

/*
 * RecordChord records the outcome of a chord search.
 */
func (m *Metrics) RecordChord(ctx context.Context, status string) {
	m.ChordsResolved.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
}
