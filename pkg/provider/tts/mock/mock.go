// Package mock provides a scriptable tts.Synthesizer for tests.
package mock

import (
	"context"
	"sync"
)

// Call records the arguments of one Synthesize invocation.
type Call struct {
	Text     string
	Language string
}

// Synthesizer is a test double for tts.Synthesizer. Safe for concurrent use.
type Synthesizer struct {
	mu    sync.Mutex
	calls []Call

	// Audio is returned by Synthesize when SynthesizeFunc is nil.
	Audio []byte

	// Err is returned by Synthesize when SynthesizeFunc is nil.
	Err error

	// SynthesizeFunc, when set, fully overrides Synthesize behaviour.
	SynthesizeFunc func(ctx context.Context, text, language string) ([]byte, error)
}

// Synthesize implements tts.Synthesizer.
func (s *Synthesizer) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	s.mu.Lock()
	s.calls = append(s.calls, Call{Text: text, Language: language})
	s.mu.Unlock()

	if s.SynthesizeFunc != nil {
		return s.SynthesizeFunc(ctx, text, language)
	}
	return s.Audio, s.Err
}

// Calls returns a copy of all recorded calls.
func (s *Synthesizer) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount returns the number of Synthesize invocations so far.
func (s *Synthesizer) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}
