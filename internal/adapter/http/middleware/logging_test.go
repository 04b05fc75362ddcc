package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/switchledger/internal/infrastructure/logger"
)

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	var ctxLogged bool
	handler := chimw.RequestID(NewLoggingMiddleware(log).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Info().Msg("inside handler")
		ctxLogged = true
		w.WriteHeader(http.StatusCreated)
	})))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/accounts", nil))

	if !ctxLogged {
		t.Fatalf("handler not invoked")
	}

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %s", len(lines), buf.String())
	}

	var access map[string]any
	if err := json.Unmarshal(lines[1], &access); err != nil {
		t.Fatalf("invalid log line: %v", err)
	}
	if access["status"] != float64(http.StatusCreated) || access["path"] != "/api/v1/accounts" {
		t.Fatalf("unexpected access log %v", access)
	}
	if access["request_id"] == nil || access["request_id"] == "" {
		t.Fatalf("expected request id on access log, got %v", access)
	}
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	handler := NewLoggingMiddleware(log).Wrap(Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/accounts/1", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if !bytes.Contains(buf.Bytes(), []byte("panic recovered")) {
		t.Fatalf("expected panic to be logged, got %s", buf.String())
	}
}
