package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/iho/switchledger/internal/infrastructure/logger"
	"github.com/iho/switchledger/internal/infrastructure/metrics"
	"github.com/iho/switchledger/internal/usecase"
)

const (
	// IdempotencyKeyHeader is the header name for idempotency keys.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayHeader marks a response served from the cache.
	IdempotencyReplayHeader = "X-Idempotency-Replay"
)

// cachedResponse is what the store keeps for a completed request.
type cachedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// IdempotencyMiddleware replays completed 2xx responses for a repeated
// Idempotency-Key.
type IdempotencyMiddleware struct {
	store   usecase.IdempotencyStore
	ttl     time.Duration
	metrics *metrics.Metrics
}

// NewIdempotencyMiddleware creates a new IdempotencyMiddleware. m may be nil.
func NewIdempotencyMiddleware(store usecase.IdempotencyStore, ttl time.Duration, m *metrics.Metrics) *IdempotencyMiddleware {
	if ttl <= 0 {
		ttl = usecase.IdempotencyKeyTTL
	}
	return &IdempotencyMiddleware{store: store, ttl: ttl, metrics: m}
}

// Wrap wraps an http.Handler with idempotency checking.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPut {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get(IdempotencyKeyHeader)
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		key := idempotencyScope(r) + ":" + header

		exists, stored, err := m.store.CheckAndSet(r.Context(), key, nil, m.ttl)
		if err != nil {
			logger.FromContext(r.Context()).Error().Err(err).Msg("idempotency check failed")
			writeJSONError(w, http.StatusInternalServerError, "idempotency_unavailable")
			return
		}

		if exists {
			m.replay(w, stored)
			return
		}

		// The claim must be settled even if the client went away or the
		// handler panicked, or the key stays "processing" until its TTL.
		settleCtx := context.WithoutCancel(r.Context())

		recorder := &responseRecorder{
			ResponseWriter: w,
			body:           &bytes.Buffer{},
			statusCode:     http.StatusOK,
		}

		completed := false
		defer func() {
			if !completed {
				m.release(settleCtx, key)
			}
		}()

		next.ServeHTTP(recorder, r)
		completed = true

		m.settle(settleCtx, key, recorder)
	})
}

// settle caches a 2xx response under key, or releases key otherwise.
func (m *IdempotencyMiddleware) settle(ctx context.Context, key string, recorder *responseRecorder) {
	if recorder.statusCode < 200 || recorder.statusCode >= 300 {
		m.release(ctx, key)
		return
	}

	cached := cachedResponse{Status: recorder.statusCode}
	if recorder.body.Len() > 0 {
		cached.Body = json.RawMessage(recorder.body.Bytes())
	}

	payload, err := json.Marshal(cached)
	if err == nil {
		err = m.store.Update(ctx, key, payload, m.ttl)
	}
	if err != nil {
		logger.FromContext(ctx).Warn().Err(err).Msg("idempotency response not cached")
		m.release(ctx, key)
	}
}

func (m *IdempotencyMiddleware) replay(w http.ResponseWriter, stored []byte) {
	if string(stored) == usecase.IdempotencyProcessing {
		writeJSONError(w, http.StatusConflict, "request_in_progress")
		return
	}

	var cached cachedResponse
	if err := json.Unmarshal(stored, &cached); err != nil || cached.Status == 0 {
		writeJSONError(w, http.StatusConflict, "request_in_progress")
		return
	}

	if m.metrics != nil {
		m.metrics.IdempotencyReplays.Inc()
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(IdempotencyReplayHeader, "true")
	w.WriteHeader(cached.Status)
	w.Write(cached.Body)
}

// idempotencyScope keeps one key from replaying another endpoint or another
// client's response.
func idempotencyScope(r *http.Request) string {
	scope := r.Method + ":" + r.URL.Path
	if client, ok := ClientFromContext(r.Context()); ok {
		scope = client.Name + "@" + scope
	}
	return scope
}

// release frees key so a retry runs the handler again.
func (m *IdempotencyMiddleware) release(ctx context.Context, key string) {
	if err := m.store.Release(ctx, key); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Msg("idempotency key release failed")
	}
}

func writeJSONError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": code})
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
