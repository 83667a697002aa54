// Package translate defines the Translator interface for text translation
// backends.
//
// Translation sits between transcription and synthesis in the relay pipeline.
// The pipeline treats translation as best-effort: when a Translator returns an
// error the caller falls back to the untranslated input text rather than
// dropping the utterance, so implementations should surface failures honestly
// instead of retrying forever.
//
// Implementations must be safe for concurrent use.
package translate

import "context"

// Translator is the abstraction over any text translation backend.
type Translator interface {
	// Translate renders text from the source language into the target
	// language. from and to are ISO 639-1 codes ("en", "es", ...). The result
	// should contain only the translated text, no commentary.
	Translate(ctx context.Context, text, from, to string) (string, error)
}
