package resilience

import (
	"context"
	"errors"
	"testing"

	sttmock "github.com/voxbridge/voxbridge/pkg/provider/stt/mock"
	translatemock "github.com/voxbridge/voxbridge/pkg/provider/translate/mock"
	ttsmock "github.com/voxbridge/voxbridge/pkg/provider/tts/mock"
)

func TestTranscriberFallbackUsesPrimary(t *testing.T) {
	primary := &sttmock.Transcriber{Text: "from primary"}
	backup := &sttmock.Transcriber{Text: "from backup"}

	f := NewTranscriberFallback(primary, "deepgram", FallbackConfig{})
	f.AddFallback("whisper", backup)

	got, err := f.Transcribe(context.Background(), []byte{0, 0}, "en")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got != "from primary" {
		t.Errorf("transcript = %q, want primary result", got)
	}
	if backup.CallCount() != 0 {
		t.Error("backup was called while primary is healthy")
	}
}

func TestTranscriberFallbackFailsOver(t *testing.T) {
	primary := &sttmock.Transcriber{Err: errors.New("rate limited")}
	backup := &sttmock.Transcriber{Text: "from backup"}

	f := NewTranscriberFallback(primary, "deepgram", FallbackConfig{})
	f.AddFallback("whisper", backup)

	got, err := f.Transcribe(context.Background(), []byte{0, 0}, "en")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got != "from backup" {
		t.Errorf("transcript = %q, want backup result", got)
	}
}

func TestTranscriberFallbackAllFail(t *testing.T) {
	f := NewTranscriberFallback(&sttmock.Transcriber{Err: errors.New("down")}, "deepgram", FallbackConfig{})
	f.AddFallback("whisper", &sttmock.Transcriber{Err: errors.New("also down")})

	_, err := f.Transcribe(context.Background(), []byte{0, 0}, "en")
	if !errors.Is(err, ErrAllFailed) {
		t.Errorf("err = %v, want ErrAllFailed", err)
	}
}

func TestTranscriberFallbackSkipsOpenBreaker(t *testing.T) {
	primary := &sttmock.Transcriber{Err: errors.New("down")}
	backup := &sttmock.Transcriber{Text: "ok"}

	f := NewTranscriberFallback(primary, "deepgram", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 2},
	})
	f.AddFallback("whisper", backup)

	for i := 0; i < 4; i++ {
		if _, err := f.Transcribe(context.Background(), []byte{0, 0}, "en"); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}

	// Two failures trip the primary's breaker; later calls skip it entirely.
	if got := primary.CallCount(); got != 2 {
		t.Errorf("primary called %d times, want 2", got)
	}
	if got := backup.CallCount(); got != 4 {
		t.Errorf("backup called %d times, want 4", got)
	}
}

func TestTranslatorFallbackFailsOver(t *testing.T) {
	primary := &translatemock.Translator{Err: errors.New("quota")}
	backup := &translatemock.Translator{Text: "hello"}

	f := NewTranslatorFallback(primary, "openai", FallbackConfig{})
	f.AddFallback("anyllm", backup)

	got, err := f.Translate(context.Background(), "hola", "es", "en")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "hello" {
		t.Errorf("translation = %q, want backup result", got)
	}
}

func TestSynthesizerFallbackFailsOver(t *testing.T) {
	primary := &ttsmock.Synthesizer{Err: errors.New("voice busy")}
	backup := &ttsmock.Synthesizer{Audio: []byte{1, 2, 3, 4}}

	f := NewSynthesizerFallback(primary, "elevenlabs", FallbackConfig{})
	f.AddFallback("backup", backup)

	got, err := f.Synthesize(context.Background(), "hello", "en")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(got) != 4 {
		t.Errorf("audio length = %d, want 4", len(got))
	}
}
