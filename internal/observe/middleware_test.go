package observe

import (
	"net/http"
	"net/http/httptest"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestMiddleware_RecordsDurationAndStatus(t *testing.T) {
	m, reader := newTestMetrics(t)

	handler := Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}

	data := collect(t, reader)
	md, ok := data["voxbridge.http.request.duration"]
	if !ok {
		t.Fatal("http.request.duration not exported")
	}
	hist, ok := md.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("unexpected data type %T", md.Data)
	}
	if len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 1 {
		t.Errorf("histogram data points = %+v, want one point with count 1", hist.DataPoints)
	}
}

func TestMiddleware_PassesRequestThrough(t *testing.T) {
	m := mustMetrics(t)

	var gotPath string
	handler := Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
	}))

	req := httptest.NewRequest(http.MethodPost, "/twilio/voice", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotPath != "/twilio/voice" {
		t.Errorf("downstream saw path %q", gotPath)
	}
}

// mustMetrics returns a Metrics backed by a throwaway provider, for tests
// that do not inspect the recorded values.
func mustMetrics(t *testing.T) *Metrics {
	t.Helper()
	m, err := NewMetrics(sdkmetric.NewMeterProvider())
	if err != nil {
		t.Fatal(err)
	}
	return m
}
