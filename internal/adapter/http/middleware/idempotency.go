package middleware

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/custbalance/internal/usecase"
)

const (
	// IdempotencyKeyHeader is the header name for idempotency keys.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayHeader marks a response served from the idempotency store.
	IdempotencyReplayHeader = "X-Idempotency-Replay"

	defaultIdempotencyTTL = 24 * time.Hour
)

// IdempotencyMiddleware replays the stored response of a POST request sent
// again with the same Idempotency-Key.
type IdempotencyMiddleware struct {
	store  usecase.IdempotencyStore
	ttl    time.Duration
	logger zerolog.Logger
}

// NewIdempotencyMiddleware creates a new IdempotencyMiddleware. A non-positive
// ttl falls back to 24 hours.
func NewIdempotencyMiddleware(store usecase.IdempotencyStore, ttl time.Duration, logger zerolog.Logger) *IdempotencyMiddleware {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyMiddleware{store: store, ttl: ttl, logger: logger}
}

// Wrap wraps an http.Handler with idempotency checking.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(IdempotencyKeyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		key = r.URL.Path + ":" + key

		reserved, cached, err := m.store.Reserve(r.Context(), key, m.ttl)
		if err != nil {
			m.logger.Error().Err(err).Str("key", key).Msg("idempotency check failed")
			writeJSONError(w, http.StatusInternalServerError, "idempotency check failed")
			return
		}

		if !reserved {
			if cached == nil {
				writeJSONError(w, http.StatusConflict, "request with this idempotency key is in progress")
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.Header().Set(IdempotencyReplayHeader, "true")
			w.WriteHeader(cached.StatusCode)
			_, _ = w.Write(cached.Body)
			return
		}

		recorder := &responseRecorder{
			ResponseWriter: w,
			body:           &bytes.Buffer{},
			statusCode:     http.StatusOK,
		}

		// Record the outcome even if the client has gone away.
		ctx := context.WithoutCancel(r.Context())

		finished := false
		defer func() {
			if finished {
				return
			}
			// The handler panicked; free the key so the client can retry.
			m.release(ctx, key)
		}()

		next.ServeHTTP(recorder, r)
		finished = true

		if recorder.statusCode >= 200 && recorder.statusCode < 300 {
			resp := usecase.IdempotentResponse{
				StatusCode: recorder.statusCode,
				Body:       recorder.body.Bytes(),
			}
			if err := m.store.Complete(ctx, key, resp, m.ttl); err != nil {
				m.logger.Warn().Err(err).Str("key", key).Msg("failed to store idempotent response")
			}
			return
		}

		m.release(ctx, key)
	})
}

func (m *IdempotencyMiddleware) release(ctx context.Context, key string) {
	if err := m.store.Release(ctx, key); err != nil {
		m.logger.Warn().Err(err).Str("key", key).Msg("failed to release idempotency key")
	}
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}
