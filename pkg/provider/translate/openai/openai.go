// Package openai provides a Translator backed by OpenAI chat completions.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"
)

const defaultModel = "gpt-4o-mini"

// systemPrompt constrains the model to bare translation output. Anything else
// (quotes, explanations) would be spoken aloud to the counterpart.
const systemPrompt = "You are a translation engine for a live phone call. " +
	"Translate the user's text from %s to %s. " +
	"Reply with the translation only: no quotes, no notes, no commentary."

// Option is a functional option for the Translator.
type Option func(*config)

// config holds optional construction settings.
type config struct {
	baseURL string
	model   string
	timeout time.Duration
}

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithModel sets the chat model used for translation (default gpt-4o-mini).
func WithModel(model string) Option {
	return func(c *config) { c.model = model }
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// Translator implements translate.Translator using the OpenAI API.
type Translator struct {
	client oai.Client
	model  string
}

// New constructs an OpenAI Translator. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Translator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai translate: apiKey must not be empty")
	}

	cfg := &config{model: defaultModel}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: cfg.timeout}))
	}

	return &Translator{
		client: oai.NewClient(reqOpts...),
		model:  cfg.model,
	}, nil
}

// Translate implements translate.Translator.
func (t *Translator) Translate(ctx context.Context, text, from, to string) (string, error) {
	resp, err := t.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model: shared.ChatModel(t.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(fmt.Sprintf(systemPrompt, from, to)),
			oai.UserMessage(text),
		},
		Temperature: param.NewOpt(0.2),
	})
	if err != nil {
		return "", fmt.Errorf("openai translate: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai translate: empty choices in response")
	}

	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("openai translate: empty translation")
	}
	return out, nil
}
