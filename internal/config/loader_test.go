package config

import (
	"strings"
	"testing"
	"time"
)

const validYAML = `
server:
  listen_addr: ":9000"
  public_url: "https://relay.example.com"
  log_level: debug
telephony:
  account_sid: AC42
  auth_token: secret
  from_number: "+15005550006"
providers:
  stt:
    name: deepgram
    api_key: dg-key
    model: nova-2
  translate:
    name: openai
    api_key: oa-key
    model: gpt-4o-mini
  tts:
    name: elevenlabs
    api_key: el-key
    voice: 21m00Tcm4TlvDq8ikWAM
pipeline:
  queue_depth: 8
  teardown_delay: 30s
languages: [en, es, de]
`

func TestLoadFromReaderValid(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.ListenAddr != ":9000" {
		t.Errorf("listen addr = %q", cfg.Server.ListenAddr)
	}
	if cfg.Server.LogLevel != LogDebug {
		t.Errorf("log level = %q", cfg.Server.LogLevel)
	}
	if cfg.Telephony.AccountSID != "AC42" {
		t.Errorf("account sid = %q", cfg.Telephony.AccountSID)
	}
	if cfg.Providers.STT.Name != "deepgram" || cfg.Providers.STT.Model != "nova-2" {
		t.Errorf("stt provider = %+v", cfg.Providers.STT)
	}
	if cfg.Pipeline.QueueDepth != 8 {
		t.Errorf("queue depth = %d", cfg.Pipeline.QueueDepth)
	}
	if cfg.Pipeline.TeardownDelay.Std() != 30*time.Second {
		t.Errorf("teardown delay = %s", cfg.Pipeline.TeardownDelay)
	}
	if len(cfg.Languages) != 3 || cfg.Languages[0] != "en" {
		t.Errorf("languages = %v", cfg.Languages)
	}
}

func TestLoadFromReaderDefaults(t *testing.T) {
	minimal := `
server:
  public_url: "https://relay.example.com"
telephony:
  account_sid: AC42
  auth_token: secret
  from_number: "+15005550006"
`
	cfg, err := LoadFromReader(strings.NewReader(minimal))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("default listen addr = %q, want :8080", cfg.Server.ListenAddr)
	}
	if cfg.Server.LogLevel != LogInfo {
		t.Errorf("default log level = %q, want info", cfg.Server.LogLevel)
	}
	if len(cfg.Languages) == 0 {
		t.Error("default languages are empty")
	}
}

func TestLoadFromReaderRejectsUnknownFields(t *testing.T) {
	bad := strings.Replace(validYAML, "pipeline:", "pipelines:", 1)
	if _, err := LoadFromReader(strings.NewReader(bad)); err == nil {
		t.Fatal("expected error for unknown top-level field")
	}
}

func TestValidateMissingCredentials(t *testing.T) {
	missing := `
server:
  public_url: "https://relay.example.com"
telephony:
  account_sid: AC42
`
	_, err := LoadFromReader(strings.NewReader(missing))
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"auth_token", "from_number"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing mention of %s", err, want)
		}
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "bad log level",
			yaml: strings.Replace(validYAML, "log_level: debug", "log_level: verbose", 1),
			want: "log_level",
		},
		{
			name: "bad public url",
			yaml: strings.Replace(validYAML, `public_url: "https://relay.example.com"`, `public_url: "relay.example.com"`, 1),
			want: "public_url",
		},
		{
			name: "negative queue depth",
			yaml: strings.Replace(validYAML, "queue_depth: 8", "queue_depth: -1", 1),
			want: "queue_depth",
		},
		{
			name: "bad language code",
			yaml: strings.Replace(validYAML, "languages: [en, es, de]", "languages: [english]", 1),
			want: "ISO 639-1",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadFromReader(strings.NewReader(tc.yaml))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q missing %q", err, tc.want)
			}
		})
	}
}

func TestLanguagesAreNormalised(t *testing.T) {
	y := strings.Replace(validYAML, "languages: [en, es, de]", `languages: ["EN", " es "]`, 1)
	cfg, err := LoadFromReader(strings.NewReader(y))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Languages[0] != "en" || cfg.Languages[1] != "es" {
		t.Errorf("languages = %v, want normalised lower-case codes", cfg.Languages)
	}
}
