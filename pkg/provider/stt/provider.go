// Package stt defines the Transcriber interface for speech-to-text backends.
//
// The relay transcribes short, fixed-length snippets of telephony audio (200 ms
// of 8 kHz mono PCM per frame), so the contract is a single batch call rather
// than a streaming session: audio in, transcript out. An empty transcript is
// not an error — it means the snippet contained no recognisable speech and the
// caller should treat it as silence.
//
// Implementations must be safe for concurrent use; many call legs transcribe
// in parallel.
package stt

import "context"

// Transcriber is the abstraction over any speech-to-text backend.
type Transcriber interface {
	// Transcribe converts one snippet of 16-bit little-endian mono PCM at
	// 8 kHz into text. language is a hint (ISO 639-1 code such as "en" or
	// "es"); providers that cannot honour the hint may ignore it.
	//
	// An empty or whitespace-only result means no speech was detected and is
	// not an error. A non-nil error means the provider could not be reached
	// or rejected the request; the snippet is lost either way.
	Transcribe(ctx context.Context, pcm []byte, language string) (string, error)
}
