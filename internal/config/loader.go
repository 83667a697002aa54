package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per pipeline stage. Used by
// [Validate] to warn about unrecognised provider names without rejecting
// them, so new providers can be rolled out by config alone.
var ValidProviderNames = map[string][]string{
	"stt":       {"deepgram", "whisper", "mock"},
	"translate": {"openai", "anyllm", "mock"},
	"tts":       {"elevenlabs", "mock"},
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills in values the file may omit.
func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = slices.Clone(DefaultLanguages)
	}
	for i, l := range cfg.Languages {
		cfg.Languages[i] = strings.ToLower(strings.TrimSpace(l))
	}
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.PublicURL == "" {
		errs = append(errs, errors.New("server.public_url is required; the telephony provider must be able to reach this service"))
	} else if !strings.HasPrefix(cfg.Server.PublicURL, "http://") && !strings.HasPrefix(cfg.Server.PublicURL, "https://") {
		errs = append(errs, fmt.Errorf("server.public_url %q must start with http:// or https://", cfg.Server.PublicURL))
	}

	if cfg.Telephony.AccountSID == "" {
		errs = append(errs, errors.New("telephony.account_sid is required"))
	}
	if cfg.Telephony.AuthToken == "" {
		errs = append(errs, errors.New("telephony.auth_token is required"))
	}
	if cfg.Telephony.FromNumber == "" {
		errs = append(errs, errors.New("telephony.from_number is required"))
	}

	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("translate", cfg.Providers.Translate.Name)
	validateProviderName("tts", cfg.Providers.TTS.Name)

	if cfg.Pipeline.QueueDepth < 0 {
		errs = append(errs, fmt.Errorf("pipeline.queue_depth must not be negative, got %d", cfg.Pipeline.QueueDepth))
	}
	if cfg.Pipeline.TeardownDelay < 0 {
		errs = append(errs, fmt.Errorf("pipeline.teardown_delay must not be negative, got %s", cfg.Pipeline.TeardownDelay))
	}

	for _, l := range cfg.Languages {
		if len(l) != 2 {
			errs = append(errs, fmt.Errorf("languages: %q is not a two-letter ISO 639-1 code", l))
		}
	}

	return errors.Join(errs...)
}

// validateProviderName warns about provider names missing from
// [ValidProviderNames]. Unknown names are allowed.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	if !slices.Contains(ValidProviderNames[kind], name) {
		slog.Warn("unrecognised provider name",
			"kind", kind,
			"name", name,
			"known", strings.Join(ValidProviderNames[kind], ", "))
	}
}

// SlogLevel converts the configured level to a [slog.Level].
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
