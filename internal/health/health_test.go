package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func pass(_ context.Context) error { return nil }

func fail(msg string) func(context.Context) error {
	return func(_ context.Context) error { return errors.New(msg) }
}

// readyz runs a /readyz request against h and decodes the JSON body.
func readyz(t *testing.T, h *Handler) (int, result) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest("GET", "/readyz", nil))

	var body result
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return rec.Code, body
}

func TestHealthzAlwaysOK(t *testing.T) {
	h := New(Checker{Name: "database", Check: fail("down")})

	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest("GET", "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 even with failing checkers", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name       string
		checkers   []Checker
		wantCode   int
		wantStatus string
		wantChecks map[string]string
	}{
		{
			name:       "no checkers",
			wantCode:   http.StatusOK,
			wantStatus: "ok",
		},
		{
			name: "all pass",
			checkers: []Checker{
				{Name: "transcripts", Check: pass},
				{Name: "telephony_credentials", Check: pass},
			},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
			wantChecks: map[string]string{
				"transcripts":           "ok",
				"telephony_credentials": "ok",
			},
		},
		{
			name: "one fails",
			checkers: []Checker{
				{Name: "transcripts", Check: fail("connection refused")},
				{Name: "telephony_credentials", Check: pass},
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "fail",
			wantChecks: map[string]string{
				"transcripts":           "fail: connection refused",
				"telephony_credentials": "ok",
			},
		},
		{
			name: "all fail",
			checkers: []Checker{
				{Name: "transcripts", Check: fail("timeout")},
				{Name: "telephony_credentials", Check: fail("credentials missing")},
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "fail",
			wantChecks: map[string]string{
				"transcripts":           "fail: timeout",
				"telephony_credentials": "fail: credentials missing",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, body := readyz(t, New(tc.checkers...))
			if code != tc.wantCode {
				t.Errorf("status code = %d, want %d", code, tc.wantCode)
			}
			if body.Status != tc.wantStatus {
				t.Errorf("status = %q, want %q", body.Status, tc.wantStatus)
			}
			for name, want := range tc.wantChecks {
				if got := body.Checks[name]; got != want {
					t.Errorf("check %q = %q, want %q", name, got, want)
				}
			}
		})
	}
}

func TestReadyzRunsCheckersConcurrently(t *testing.T) {
	// Each checker blocks until all three have started; serial execution
	// would deadlock, so completion itself is the assertion.
	barrier := make(chan struct{})
	var starts atomic.Int32

	block := func(_ context.Context) error {
		if starts.Add(1) == 3 {
			close(barrier)
		}
		<-barrier
		return nil
	}

	h := New(
		Checker{Name: "a", Check: block},
		Checker{Name: "b", Check: block},
		Checker{Name: "c", Check: block},
	)

	code, body := readyz(t, h)
	if code != http.StatusOK {
		t.Errorf("status code = %d, want 200", code)
	}
	if len(body.Checks) != 3 {
		t.Errorf("got %d checks, want 3", len(body.Checks))
	}
}

func TestReadyzRespectsContextCancellation(t *testing.T) {
	h := New(Checker{Name: "slow", Check: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest("GET", "/readyz", nil).WithContext(ctx))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestRegisterRoutes(t *testing.T) {
	mux := http.NewServeMux()
	New(Checker{Name: "static", Check: pass}).Register(mux)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}
