// Package tts defines the Synthesizer interface for text-to-speech backends.
//
// The relay synthesises one translated utterance at a time and re-encodes the
// result onto a telephony media stream, so the contract is batch: text in,
// one complete PCM buffer out. Output must be 16-bit little-endian mono PCM
// at 8 kHz — the telephony line rate — so it can be mu-law encoded without
// resampling.
//
// Implementations must be safe for concurrent use.
package tts

import "context"

// Synthesizer is the abstraction over any text-to-speech backend.
type Synthesizer interface {
	// Synthesize renders text as speech in the given language (ISO 639-1
	// code). The returned buffer is 16-bit little-endian mono PCM at 8 kHz.
	//
	// A non-nil error means no audio was produced; callers drop the
	// utterance rather than forwarding silence.
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
}
