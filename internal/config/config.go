// Package config provides the configuration schema and loader for the
// VoxBridge relay.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "30s" decode naturally.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// String formats the duration like time.Duration.
func (d Duration) String() string { return time.Duration(d).String() }

// LogLevel controls log verbosity for the relay server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure. It is typically loaded from a
// YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Telephony TelephonyConfig `yaml:"telephony"`
	Providers ProvidersConfig `yaml:"providers"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Database  DatabaseConfig  `yaml:"database"`

	// Languages is the set of supported ISO 639-1 codes offered at session
	// creation. Defaults to [DefaultLanguages] when empty.
	Languages []string `yaml:"languages"`
}

// DefaultLanguages is the language set offered when the config names none.
var DefaultLanguages = []string{"en", "es", "de", "fr", "it", "pt", "ja", "zh"}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// PublicURL is the externally reachable base URL handed to the telephony
	// provider for callbacks and media streams (e.g., "https://relay.example.com").
	PublicURL string `yaml:"public_url"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// TelephonyConfig holds credentials for the telephony provider.
type TelephonyConfig struct {
	// AccountSID identifies the provider account.
	AccountSID string `yaml:"account_sid"`

	// AuthToken authenticates REST API calls.
	AuthToken string `yaml:"auth_token"`

	// FromNumber is the E.164 caller id used for outbound calls.
	FromNumber string `yaml:"from_number"`

	// BaseURL overrides the provider's API endpoint, mainly for tests.
	BaseURL string `yaml:"base_url"`
}

// ProvidersConfig declares which speech service implementation to use for
// each pipeline stage.
type ProvidersConfig struct {
	STT       ProviderEntry `yaml:"stt"`
	Translate ProviderEntry `yaml:"translate"`
	TTS       ProviderEntry `yaml:"tts"`
}

// ProviderEntry is the common configuration block shared by all provider
// kinds.
type ProviderEntry struct {
	// Name selects the implementation (e.g., "deepgram", "openai", "elevenlabs").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "nova-2",
	// "gpt-4o-mini", "eleven_flash_v2_5").
	Model string `yaml:"model"`

	// Voice selects a synthesis voice; only meaningful for TTS providers.
	Voice string `yaml:"voice"`
}

// PipelineConfig tunes frame processing.
type PipelineConfig struct {
	// QueueDepth bounds pending frames per stream. Zero means the default.
	QueueDepth int `yaml:"queue_depth"`

	// TeardownDelay is how long a finished session stays queryable before
	// removal. Zero means the default of 60 seconds.
	TeardownDelay Duration `yaml:"teardown_delay"`
}

// DatabaseConfig enables the persistent transcript store.
type DatabaseConfig struct {
	// DSN is the PostgreSQL connection string. Empty keeps transcripts
	// in memory only.
	DSN string `yaml:"dsn"`
}
