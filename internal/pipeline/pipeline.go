// Package pipeline turns one leg's audio frames into translated speech for
// the opposite leg: mu-law decode, transcribe, translate, synthesize, mu-law
// encode, then hand off to the relay router.
//
// Every stage failure is frame-local. A failing provider aborts or degrades
// the current frame but never the stream, the session, or any other in-flight
// frame.
package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/voxbridge/voxbridge/internal/observe"
	"github.com/voxbridge/voxbridge/internal/relay"
	"github.com/voxbridge/voxbridge/internal/session"
	"github.com/voxbridge/voxbridge/internal/transcript"
	"github.com/voxbridge/voxbridge/pkg/audio/mulaw"
	"github.com/voxbridge/voxbridge/pkg/provider/stt"
	"github.com/voxbridge/voxbridge/pkg/provider/translate"
	"github.com/voxbridge/voxbridge/pkg/provider/tts"
)

// LanguageResolver looks up the language pair of a session. Implemented by
// [session.Registry].
type LanguageResolver interface {
	Languages(sessionID string) (session.LanguagePair, error)
}

// Deliverer routes a processed frame towards the leg opposite its source.
// Implemented by [relay.Router].
type Deliverer interface {
	Route(sessionID string, source relay.ParticipantType, payload []byte) bool
}

// Pipeline processes assembled audio frames. Safe for concurrent use; the
// per-stream ordering guarantee comes from [Dispatcher], not from Pipeline
// itself.
type Pipeline struct {
	transcriber stt.Transcriber
	translator  translate.Translator
	synthesizer tts.Synthesizer
	languages   LanguageResolver
	deliver     Deliverer
	store       transcript.Store
	logger      *slog.Logger
	metrics     *observe.Metrics
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithTranscriptStore records every transcribed frame in the given store.
// Store failures are logged, never propagated.
func WithTranscriptStore(s transcript.Store) Option {
	return func(p *Pipeline) { p.store = s }
}

// WithLogger sets the logger for frame-level events.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithMetrics sets the metrics instance for stage latencies and counters.
func WithMetrics(m *observe.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// New creates a Pipeline over the given speech services.
func New(transcriber stt.Transcriber, translator translate.Translator, synthesizer tts.Synthesizer,
	languages LanguageResolver, deliver Deliverer, opts ...Option) *Pipeline {

	p := &Pipeline{
		transcriber: transcriber,
		translator:  translator,
		synthesizer: synthesizer,
		languages:   languages,
		deliver:     deliver,
		logger:      slog.Default(),
		metrics:     observe.DefaultMetrics(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs one frame through the full translation pipeline. It returns
// only on programmer error (unknown session); provider failures are absorbed
// per the frame-local failure policy.
func (p *Pipeline) Process(ctx context.Context, frame relay.Frame) error {
	start := time.Now()

	ctx, span := observe.StartSpan(ctx, "pipeline.process",
		trace.WithAttributes(
			attribute.String("session_id", frame.SessionID),
			attribute.String("source", string(frame.Source)),
		))
	defer span.End()

	langs, err := p.languages.Languages(frame.SessionID)
	if err != nil {
		p.metrics.RecordFrameDrop(ctx, "unknown_session")
		return err
	}

	var from, to string
	switch frame.Source {
	case relay.ParticipantPhone:
		from, to = langs.Phone, langs.Web
	default:
		from, to = langs.Web, langs.Phone
	}

	log := p.logger.With(
		"session_id", frame.SessionID,
		"source", string(frame.Source),
		"from", from,
		"to", to,
	)

	// Both legs share a language. Nothing is relayed for this frame.
	if from == to {
		p.metrics.FramesSkipped.Add(ctx, 1)
		return nil
	}

	pcm := mulaw.Decode(frame.Payload)

	text, ok := p.transcribe(ctx, log, pcm, from)
	if !ok {
		return nil
	}

	translated, fellBack := p.translate(ctx, log, text, from, to)
	p.appendTranscript(ctx, log, frame, from, to, text, translated)

	synthesized, ok := p.synthesize(ctx, log, translated, to)
	if !ok {
		return nil
	}

	payload := mulaw.Encode(synthesized)
	if !p.deliver.Route(frame.SessionID, frame.Source, payload) {
		p.metrics.RecordFrameDrop(ctx, "no_destination")
		log.Debug("no destination for translated frame")
		return nil
	}

	p.metrics.FramesRouted.Add(ctx, 1)
	p.metrics.FrameDuration.Record(ctx, time.Since(start).Seconds())
	log.Debug("frame translated and routed",
		"fallback", fellBack,
		"elapsed", time.Since(start))
	return nil
}

// transcribe runs speech-to-text. Empty or whitespace-only transcripts are
// silence, not errors; both silence and provider failure abort the frame.
func (p *Pipeline) transcribe(ctx context.Context, log *slog.Logger, pcm []byte, language string) (string, bool) {
	start := time.Now()
	text, err := p.transcriber.Transcribe(ctx, pcm, language)
	p.metrics.TranscribeDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		p.metrics.RecordProviderError(ctx, "transcribe")
		p.metrics.RecordFrameDrop(ctx, "transcribe_failed")
		log.Warn("transcription failed", "error", err)
		return "", false
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	return text, true
}

// translate runs text translation. On failure the original transcript is
// forwarded unchanged; the second return reports whether that fallback fired.
func (p *Pipeline) translate(ctx context.Context, log *slog.Logger, text, from, to string) (string, bool) {
	start := time.Now()
	translated, err := p.translator.Translate(ctx, text, from, to)
	p.metrics.TranslateDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		p.metrics.RecordProviderError(ctx, "translate")
		p.metrics.TranslationFallbacks.Add(ctx, 1)
		log.Warn("translation failed, forwarding original transcript", "error", err)
		return text, true
	}
	return translated, false
}

// synthesize runs text-to-speech. Failure aborts the frame.
func (p *Pipeline) synthesize(ctx context.Context, log *slog.Logger, text, language string) ([]byte, bool) {
	start := time.Now()
	pcm, err := p.synthesizer.Synthesize(ctx, text, language)
	p.metrics.SynthesizeDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		p.metrics.RecordProviderError(ctx, "synthesize")
		p.metrics.RecordFrameDrop(ctx, "synthesis_failed")
		log.Warn("synthesis failed", "error", err)
		return nil, false
	}
	return pcm, true
}

// appendTranscript records the frame's transcript best-effort.
func (p *Pipeline) appendTranscript(ctx context.Context, log *slog.Logger, frame relay.Frame, from, to, original, translated string) {
	if p.store == nil {
		return
	}
	err := p.store.Append(ctx, transcript.Entry{
		SessionID:    frame.SessionID,
		Source:       frame.Source,
		FromLanguage: from,
		ToLanguage:   to,
		Original:     original,
		Translated:   translated,
		SpokenAt:     time.Now().UTC(),
	})
	if err != nil {
		log.Warn("transcript append failed", "error", err)
	}
}
