package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Dialer places outbound calls. Implemented by [RestClient]; replaced by a
// test double in handler tests.
type Dialer interface {
	// Dial places a call to the E.164 number. answerURL receives the TwiML
	// request when the callee picks up; statusCallbackURL receives call
	// progress notifications. Returns the provider's call identifier.
	Dial(ctx context.Context, to, answerURL, statusCallbackURL string) (string, error)
}

var _ Dialer = (*RestClient)(nil)

const defaultAPIBase = "https://api.twilio.com"

// RestClient places calls through the Twilio REST API.
type RestClient struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	httpc      *http.Client
}

// ClientOption customises a RestClient.
type ClientOption func(*RestClient)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(u string) ClientOption {
	return func(c *RestClient) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithHTTPClient overrides the HTTP client used for API calls.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *RestClient) { c.httpc = h }
}

// NewRestClient creates a client placing calls from the given number using
// accountSID/authToken credentials.
func NewRestClient(accountSID, authToken, from string, opts ...ClientOption) *RestClient {
	c := &RestClient{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    defaultAPIBase,
		httpc:      &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dial implements [Dialer].
func (c *RestClient) Dial(ctx context.Context, to, answerURL, statusCallbackURL string) (string, error) {
	form := url.Values{
		"To":                  {to},
		"From":                {c.from},
		"Url":                 {answerURL},
		"StatusCallback":      {statusCallbackURL},
		"StatusCallbackEvent": {"initiated", "ringing", "answered", "completed"},
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("telephony: build dial request: %w", err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("telephony: dial %s: %w", to, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("telephony: dial %s: status %d: %s", to, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out struct {
		SID string `json:"sid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("telephony: decode dial response: %w", err)
	}
	if out.SID == "" {
		return "", fmt.Errorf("telephony: dial %s: response carries no call sid", to)
	}
	return out.SID, nil
}
