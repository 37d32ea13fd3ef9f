package handler

import (
	"context"
	"net/http"
	"time"
)

// CheckFunc reports whether a dependency is reachable.
type CheckFunc func(ctx context.Context) error

// HealthHandler handles health check requests.
type HealthHandler struct {
	checks  map[string]CheckFunc
	order   []string
	timeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. Checks run in the order
// they are added.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		checks:  make(map[string]CheckFunc),
		timeout: 5 * time.Second,
	}
}

// AddCheck registers a readiness check.
func (h *HealthHandler) AddCheck(name string, check CheckFunc) *HealthHandler {
	if _, ok := h.checks[name]; !ok {
		h.order = append(h.order, name)
	}
	h.checks[name] = check
	return h
}

// Liveness returns 200 if the service is alive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness returns 200 if every dependency check passes.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	status := map[string]string{"status": "ready"}
	for _, name := range h.order {
		if err := h.checks[name](ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, name+" unhealthy", err.Error())
			return
		}
		status[name] = "ok"
	}

	writeJSON(w, http.StatusOK, status)
}
