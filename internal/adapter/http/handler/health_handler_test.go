package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHealthHandler_Liveness(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler().Liveness(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	ok := func(context.Context) error { return nil }

	h := NewHealthHandler().AddCheck("postgres", ok).AddCheck("redis", ok)
	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"redis":"ok"`) {
		t.Fatalf("expected ready, got %d %s", rec.Code, rec.Body.String())
	}

	h.AddCheck("redis", func(context.Context) error { return errors.New("connection refused") })
	rec = httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "redis unhealthy") {
		t.Fatalf("expected redis failure, got %d %s", rec.Code, rec.Body.String())
	}
}
