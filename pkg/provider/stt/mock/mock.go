// Package mock provides a scriptable stt.Transcriber for tests.
package mock

import (
	"context"
	"sync"
)

// Call records the arguments of one Transcribe invocation.
type Call struct {
	PCM      []byte
	Language string
}

// Transcriber is a test double for stt.Transcriber. Configure behaviour via
// the exported fields; inspect recorded calls via Calls. Safe for concurrent use.
type Transcriber struct {
	mu    sync.Mutex
	calls []Call

	// Text is returned by Transcribe when TranscribeFunc is nil.
	Text string

	// Err is returned by Transcribe when TranscribeFunc is nil.
	Err error

	// TranscribeFunc, when set, fully overrides Transcribe behaviour.
	TranscribeFunc func(ctx context.Context, pcm []byte, language string) (string, error)
}

// Transcribe implements stt.Transcriber.
func (t *Transcriber) Transcribe(ctx context.Context, pcm []byte, language string) (string, error) {
	t.mu.Lock()
	cp := make([]byte, len(pcm))
	copy(cp, pcm)
	t.calls = append(t.calls, Call{PCM: cp, Language: language})
	t.mu.Unlock()

	if t.TranscribeFunc != nil {
		return t.TranscribeFunc(ctx, pcm, language)
	}
	return t.Text, t.Err
}

// Calls returns a copy of all recorded calls.
func (t *Transcriber) Calls() []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Call, len(t.calls))
	copy(out, t.calls)
	return out
}

// CallCount returns the number of Transcribe invocations so far.
func (t *Transcriber) CallCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}
