package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestRecovery_ReturnsJSON500AndLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	handler := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/entries/e-1", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "internal server error") {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
	if !strings.Contains(buf.String(), "panic recovered") || !strings.Contains(buf.String(), "boom") {
		t.Fatalf("expected panic to be logged, got %s", buf.String())
	}
}

func TestLoggingMiddleware_LogsStatus(t *testing.T) {
	var buf bytes.Buffer
	mw := NewLoggingMiddleware(zerolog.New(&buf))

	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ready", nil))

	out := buf.String()
	if !strings.Contains(out, `"status":503`) || !strings.Contains(out, `"level":"error"`) {
		t.Fatalf("unexpected log line %s", out)
	}
}
