// Package mock provides a scriptable translate.Translator for tests.
package mock

import (
	"context"
	"sync"
)

// Call records the arguments of one Translate invocation.
type Call struct {
	Text string
	From string
	To   string
}

// Translator is a test double for translate.Translator. Safe for concurrent use.
type Translator struct {
	mu    sync.Mutex
	calls []Call

	// Text is returned by Translate when TranslateFunc is nil. When empty,
	// Translate echoes its input prefixed with "<to>:" so tests can see the
	// requested direction.
	Text string

	// Err is returned by Translate when TranslateFunc is nil.
	Err error

	// TranslateFunc, when set, fully overrides Translate behaviour.
	TranslateFunc func(ctx context.Context, text, from, to string) (string, error)
}

// Translate implements translate.Translator.
func (t *Translator) Translate(ctx context.Context, text, from, to string) (string, error) {
	t.mu.Lock()
	t.calls = append(t.calls, Call{Text: text, From: from, To: to})
	t.mu.Unlock()

	if t.TranslateFunc != nil {
		return t.TranslateFunc(ctx, text, from, to)
	}
	if t.Err != nil {
		return "", t.Err
	}
	if t.Text != "" {
		return t.Text, nil
	}
	return to + ":" + text, nil
}

// Calls returns a copy of all recorded calls.
func (t *Translator) Calls() []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Call, len(t.calls))
	copy(out, t.calls)
	return out
}

// CallCount returns the number of Translate invocations so far.
func (t *Translator) CallCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}
