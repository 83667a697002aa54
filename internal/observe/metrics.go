// Package observe provides application-wide observability primitives for
// VoxBridge: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all VoxBridge metrics.
const meterName = "github.com/voxbridge/voxbridge"

// Metrics holds all OpenTelemetry metric instruments for the relay.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// TranscribeDuration tracks speech-to-text latency per frame.
	TranscribeDuration metric.Float64Histogram

	// TranslateDuration tracks text translation latency per frame.
	TranslateDuration metric.Float64Histogram

	// SynthesizeDuration tracks speech synthesis latency per frame.
	SynthesizeDuration metric.Float64Histogram

	// FrameDuration tracks end-to-end pipeline latency for one frame, from
	// dequeue to routed delivery.
	FrameDuration metric.Float64Histogram

	// --- Counters ---

	// FramesIn counts frames emitted by the assemblers. Use with attribute:
	//   attribute.String("participant", ...)
	FramesIn metric.Int64Counter

	// FramesRouted counts frames that completed the pipeline and were
	// enqueued for the opposite leg.
	FramesRouted metric.Int64Counter

	// FramesDropped counts frames discarded by queue saturation, pipeline
	// aborts, or failed delivery. Use with attribute:
	//   attribute.String("reason", ...)
	FramesDropped metric.Int64Counter

	// FramesSkipped counts frames skipped because the session's language
	// pair is identical.
	FramesSkipped metric.Int64Counter

	// TranslationFallbacks counts frames where translation failed and the
	// original transcript was forwarded to synthesis instead.
	TranslationFallbacks metric.Int64Counter

	// --- Error counters ---

	// ProviderErrors counts speech-service errors. Use with attributes:
	//   attribute.String("stage", ...)
	ProviderErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of sessions currently in the registry.
	ActiveSessions metric.Int64UpDownCounter

	// ActiveStreams tracks the number of connected media streams across all
	// sessions.
	ActiveStreams metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for per-frame speech-service latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.TranscribeDuration, err = m.Float64Histogram("voxbridge.transcribe.duration",
		metric.WithDescription("Latency of speech-to-text transcription per frame."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TranslateDuration, err = m.Float64Histogram("voxbridge.translate.duration",
		metric.WithDescription("Latency of text translation per frame."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SynthesizeDuration, err = m.Float64Histogram("voxbridge.synthesize.duration",
		metric.WithDescription("Latency of speech synthesis per frame."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.FrameDuration, err = m.Float64Histogram("voxbridge.frame.duration",
		metric.WithDescription("End-to-end pipeline latency per frame."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.FramesIn, err = m.Int64Counter("voxbridge.frames.in",
		metric.WithDescription("Total frames assembled from inbound media, by participant."),
	); err != nil {
		return nil, err
	}
	if met.FramesRouted, err = m.Int64Counter("voxbridge.frames.routed",
		metric.WithDescription("Total frames translated and enqueued for the opposite leg."),
	); err != nil {
		return nil, err
	}
	if met.FramesDropped, err = m.Int64Counter("voxbridge.frames.dropped",
		metric.WithDescription("Total frames discarded, by reason."),
	); err != nil {
		return nil, err
	}
	if met.FramesSkipped, err = m.Int64Counter("voxbridge.frames.skipped",
		metric.WithDescription("Total frames skipped because both legs share a language."),
	); err != nil {
		return nil, err
	}
	if met.TranslationFallbacks, err = m.Int64Counter("voxbridge.translation.fallbacks",
		metric.WithDescription("Total frames forwarded untranslated after a translation failure."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.ProviderErrors, err = m.Int64Counter("voxbridge.provider.errors",
		metric.WithDescription("Total speech-service errors by stage."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("voxbridge.active_sessions",
		metric.WithDescription("Number of sessions currently in the registry."),
	); err != nil {
		return nil, err
	}
	if met.ActiveStreams, err = m.Int64UpDownCounter("voxbridge.active_streams",
		metric.WithDescription("Number of connected media streams across all sessions."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("voxbridge.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
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

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordProviderError records a speech-service error for the given pipeline
// stage ("transcribe", "translate", or "synthesize").
func (m *Metrics) RecordProviderError(ctx context.Context, stage string) {
	m.ProviderErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordFrameIn records one assembled inbound frame for the given leg.
func (m *Metrics) RecordFrameIn(ctx context.Context, participant string) {
	m.FramesIn.Add(ctx, 1, metric.WithAttributes(attribute.String("participant", participant)))
}

// RecordFrameDrop records a dropped frame with the given reason
// ("queue_full", "synthesis_failed", "transcribe_failed", "no_destination").
func (m *Metrics) RecordFrameDrop(ctx context.Context, reason string) {
	m.FramesDropped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
