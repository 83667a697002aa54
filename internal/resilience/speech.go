package resilience

import (
	"context"

	"github.com/voxbridge/voxbridge/pkg/provider/stt"
	"github.com/voxbridge/voxbridge/pkg/provider/translate"
	"github.com/voxbridge/voxbridge/pkg/provider/tts"
)

// Compile-time interface assertions.
var (
	_ stt.Transcriber      = (*TranscriberFallback)(nil)
	_ translate.Translator = (*TranslatorFallback)(nil)
	_ tts.Synthesizer      = (*SynthesizerFallback)(nil)
)

// TranscriberFallback implements [stt.Transcriber] with automatic failover
// across multiple transcription backends. Each backend has its own circuit
// breaker.
type TranscriberFallback struct {
	group *FallbackGroup[stt.Transcriber]
}

// NewTranscriberFallback creates a fallback group with primary as the
// preferred backend.
func NewTranscriberFallback(primary stt.Transcriber, primaryName string, cfg FallbackConfig) *TranscriberFallback {
	return &TranscriberFallback{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers an additional transcriber.
func (f *TranscriberFallback) AddFallback(name string, t stt.Transcriber) {
	f.group.AddFallback(name, t)
}

// Transcribe runs against the first healthy backend.
func (f *TranscriberFallback) Transcribe(ctx context.Context, pcm []byte, language string) (string, error) {
	return ExecuteWithResult(f.group, func(t stt.Transcriber) (string, error) {
		return t.Transcribe(ctx, pcm, language)
	})
}

// TranslatorFallback implements [translate.Translator] with automatic
// failover across multiple translation backends. The pipeline's
// forward-original-text policy still applies when the whole group fails.
type TranslatorFallback struct {
	group *FallbackGroup[translate.Translator]
}

// NewTranslatorFallback creates a fallback group with primary as the
// preferred backend.
func NewTranslatorFallback(primary translate.Translator, primaryName string, cfg FallbackConfig) *TranslatorFallback {
	return &TranslatorFallback{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers an additional translator.
func (f *TranslatorFallback) AddFallback(name string, t translate.Translator) {
	f.group.AddFallback(name, t)
}

// Translate runs against the first healthy backend.
func (f *TranslatorFallback) Translate(ctx context.Context, text, from, to string) (string, error) {
	return ExecuteWithResult(f.group, func(t translate.Translator) (string, error) {
		return t.Translate(ctx, text, from, to)
	})
}

// SynthesizerFallback implements [tts.Synthesizer] with automatic failover
// across multiple synthesis backends.
type SynthesizerFallback struct {
	group *FallbackGroup[tts.Synthesizer]
}

// NewSynthesizerFallback creates a fallback group with primary as the
// preferred backend.
func NewSynthesizerFallback(primary tts.Synthesizer, primaryName string, cfg FallbackConfig) *SynthesizerFallback {
	return &SynthesizerFallback{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers an additional synthesizer.
func (f *SynthesizerFallback) AddFallback(name string, s tts.Synthesizer) {
	f.group.AddFallback(name, s)
}

// Synthesize runs against the first healthy backend.
func (f *SynthesizerFallback) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	return ExecuteWithResult(f.group, func(s tts.Synthesizer) ([]byte, error) {
		return s.Synthesize(ctx, text, language)
	})
}
