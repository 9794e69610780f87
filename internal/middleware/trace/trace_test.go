package trace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	m := NewMiddleware(nil)
	rec := httptest.NewRecorder()
	m.Middleware(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/plan", nil))

	if seen == "" {
		t.Fatal("expected a request ID in the handler context")
	}
	if !strings.HasPrefix(seen, "req_") {
		t.Errorf("request ID = %q, want req_ prefix", seen)
	}
}

func TestMiddlewareCountsRequests(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	m := NewMiddleware(func(*http.Request) string { return "203.0.113.7" })
	wrapped := m.Middleware(handler)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	}

	metrics := m.GetMetrics()
	if metrics.TotalRequests != 3 {
		t.Errorf("TotalRequests = %d, want 3", metrics.TotalRequests)
	}
	if metrics.AverageResponseTime < 0 {
		t.Errorf("AverageResponseTime = %d, want >= 0", metrics.AverageResponseTime)
	}
}

func TestGenerateRequestIDUnique(t *testing.T) {
	a := GenerateRequestID()
	b := GenerateRequestID()
	if a == b {
		t.Errorf("expected distinct request IDs, both were %q", a)
	}
}

func TestGetRequestIDMissing(t *testing.T) {
	if id := GetRequestID(context.Background()); id != "" {
		t.Errorf("GetRequestID on empty context = %q, want empty", id)
	}
}
