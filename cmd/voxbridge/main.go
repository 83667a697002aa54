// Command voxbridge is the main entry point for the VoxBridge call
// translation relay.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/voxbridge/voxbridge/internal/app"
	"github.com/voxbridge/voxbridge/internal/config"
	"github.com/voxbridge/voxbridge/internal/observe"
	"github.com/voxbridge/voxbridge/internal/resilience"
	"github.com/voxbridge/voxbridge/pkg/provider/stt"
	"github.com/voxbridge/voxbridge/pkg/provider/stt/deepgram"
	sttmock "github.com/voxbridge/voxbridge/pkg/provider/stt/mock"
	sttoai "github.com/voxbridge/voxbridge/pkg/provider/stt/openai"
	"github.com/voxbridge/voxbridge/pkg/provider/translate"
	"github.com/voxbridge/voxbridge/pkg/provider/translate/anyllm"
	trmock "github.com/voxbridge/voxbridge/pkg/provider/translate/mock"
	troai "github.com/voxbridge/voxbridge/pkg/provider/translate/openai"
	"github.com/voxbridge/voxbridge/pkg/provider/tts"
	"github.com/voxbridge/voxbridge/pkg/provider/tts/elevenlabs"
	ttsmock "github.com/voxbridge/voxbridge/pkg/provider/tts/mock"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "voxbridge: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "voxbridge: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("voxbridge starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"public_url", cfg.Server.PublicURL,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "voxbridge"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Speech providers ──────────────────────────────────────────────────────
	speech, err := buildSpeech(cfg)
	if err != nil {
		slog.Error("failed to build speech providers", "err", err)
		return 1
	}

	// ── Startup summary ───────────────────────────────────────────────────────
	printStartupSummary(cfg)

	application, err := app.New(ctx, cfg, speech)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	slog.Info("server ready — press Ctrl+C to shut down")

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// buildSpeech instantiates the three pipeline stages named in cfg. Each stage
// is wrapped in its resilience group so a flapping provider trips a circuit
// breaker instead of failing every frame with a full timeout.
func buildSpeech(cfg *config.Config) (app.Speech, error) {
	var speech app.Speech
	fbCfg := resilience.FallbackConfig{}

	transcriber, err := buildTranscriber(cfg.Providers.STT)
	if err != nil {
		return speech, fmt.Errorf("create stt provider %q: %w", cfg.Providers.STT.Name, err)
	}
	speech.Transcriber = resilience.NewTranscriberFallback(transcriber, cfg.Providers.STT.Name, fbCfg)
	slog.Info("provider created", "kind", "stt", "name", cfg.Providers.STT.Name)

	translator, err := buildTranslator(cfg.Providers.Translate)
	if err != nil {
		return speech, fmt.Errorf("create translate provider %q: %w", cfg.Providers.Translate.Name, err)
	}
	speech.Translator = resilience.NewTranslatorFallback(translator, cfg.Providers.Translate.Name, fbCfg)
	slog.Info("provider created", "kind", "translate", "name", cfg.Providers.Translate.Name)

	synthesizer, err := buildSynthesizer(cfg.Providers.TTS)
	if err != nil {
		return speech, fmt.Errorf("create tts provider %q: %w", cfg.Providers.TTS.Name, err)
	}
	speech.Synthesizer = resilience.NewSynthesizerFallback(synthesizer, cfg.Providers.TTS.Name, fbCfg)
	slog.Info("provider created", "kind", "tts", "name", cfg.Providers.TTS.Name)

	return speech, nil
}

func buildTranscriber(entry config.ProviderEntry) (stt.Transcriber, error) {
	switch entry.Name {
	case "deepgram":
		var opts []deepgram.Option
		if entry.Model != "" {
			opts = append(opts, deepgram.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, deepgram.WithEndpoint(entry.BaseURL))
		}
		return deepgram.New(entry.APIKey, opts...)
	case "whisper":
		var opts []sttoai.Option
		if entry.Model != "" {
			opts = append(opts, sttoai.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, sttoai.WithBaseURL(entry.BaseURL))
		}
		return sttoai.New(entry.APIKey, opts...)
	case "mock":
		return &sttmock.Transcriber{}, nil
	case "":
		return nil, errors.New("no stt provider configured")
	default:
		return nil, fmt.Errorf("unknown stt provider %q", entry.Name)
	}
}

func buildTranslator(entry config.ProviderEntry) (translate.Translator, error) {
	switch entry.Name {
	case "openai":
		var opts []troai.Option
		if entry.Model != "" {
			opts = append(opts, troai.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, troai.WithBaseURL(entry.BaseURL))
		}
		return troai.New(entry.APIKey, opts...)
	case "anyllm":
		// Model selects both backend and model, e.g. "anthropic/claude-3-5-haiku-latest".
		backend, model, ok := strings.Cut(entry.Model, "/")
		if !ok {
			return nil, fmt.Errorf("anyllm model must be \"backend/model\", got %q", entry.Model)
		}
		var opts []anyllmlib.Option
		if entry.APIKey != "" {
			opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
		}
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New(backend, model, opts...)
	case "mock":
		return &trmock.Translator{}, nil
	case "":
		return nil, errors.New("no translate provider configured")
	default:
		return nil, fmt.Errorf("unknown translate provider %q", entry.Name)
	}
}

func buildSynthesizer(entry config.ProviderEntry) (tts.Synthesizer, error) {
	switch entry.Name {
	case "elevenlabs":
		var opts []elevenlabs.Option
		if entry.Model != "" {
			opts = append(opts, elevenlabs.WithModel(entry.Model))
		}
		if entry.Voice != "" {
			opts = append(opts, elevenlabs.WithVoice(entry.Voice))
		}
		if entry.BaseURL != "" {
			opts = append(opts, elevenlabs.WithBaseURL(entry.BaseURL))
		}
		return elevenlabs.New(entry.APIKey, opts...)
	case "mock":
		return &ttsmock.Synthesizer{}, nil
	case "":
		return nil, errors.New("no tts provider configured")
	default:
		return nil, fmt.Errorf("unknown tts provider %q", entry.Name)
	}
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║        VoxBridge — startup summary    ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProvider("STT", cfg.Providers.STT.Name, cfg.Providers.STT.Model)
	printProvider("Translate", cfg.Providers.Translate.Name, cfg.Providers.Translate.Model)
	printProvider("TTS", cfg.Providers.TTS.Name, cfg.Providers.TTS.Model)
	fmt.Printf("║  Languages       : %-19s ║\n", strings.Join(cfg.Languages, " "))
	if cfg.Database.DSN != "" {
		fmt.Printf("║  Transcripts     : %-19s ║\n", "postgres")
	} else {
		fmt.Printf("║  Transcripts     : %-19s ║\n", "in-memory")
	}
	if cfg.Server.ListenAddr != "" {
		fmt.Printf("║  Listen addr     : %-19s ║\n", cfg.Server.ListenAddr)
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind, name, model string) {
	if name == "" {
		fmt.Printf("║  %-15s : %-19s ║\n", kind, "(disabled)")
		return
	}
	label := name
	if model != "" {
		label = name + " (" + model + ")"
	}
	fmt.Printf("║  %-15s : %-19s ║\n", kind, label)
}

func newLogger(level config.LogLevel) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level.SlogLevel(),
	}))
}
