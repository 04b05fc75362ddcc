package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/switchledger/internal/domain"
	"github.com/iho/switchledger/internal/infrastructure/auth"
	"github.com/iho/switchledger/internal/infrastructure/config"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("STORAGE_DRIVER", config.StorageDriverMemory)
	t.Setenv("SIGNING_KEY", "")
	t.Setenv("RATE_LIMIT_RPS", "0")
	t.Setenv("JWT_SECRET", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestNewSigner(t *testing.T) {
	signer, err := newSigner("")
	require.NoError(t, err)
	assert.Nil(t, signer)

	signer, err = newSigner("secret")
	require.NoError(t, err)
	assert.NotNil(t, signer)
}

func TestOpenStorageMemory(t *testing.T) {
	cfg := memoryConfig(t)

	st, err := openStorage(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer st.close()

	assert.NotNil(t, st.txManager)
	assert.Empty(t, st.checks)
}

func TestApplicationServesMemoryLedger(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.SigningKey = "secret"

	st, err := openStorage(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)

	app, err := newApplication(cfg, zerolog.Nop(), st, nil)
	require.NoError(t, err)
	assert.Nil(t, app.rateLimiter)

	rec := httptest.NewRecorder()
	app.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/accounts/",
		strings.NewReader(`{"code":"ACC-1","holder_reference":"h","initial_balance":"10"}`)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	app.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/accounts/1/movements",
		strings.NewReader(`{"kind":"DEBIT","amount":"2.50"}`)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Account struct {
			Balance string `json:"balance"`
		} `json:"account"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "7.50", body.Account.Balance)

	rec = httptest.NewRecorder()
	app.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "switchledger_movements_total")
}

func TestApplicationWithRedisAndRateLimit(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.RateLimitRPS = 100
	cfg.RateLimitBurst = 10

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	st, err := openStorage(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)

	app, err := newApplication(cfg, zerolog.Nop(), st, client)
	require.NoError(t, err)
	require.NotNil(t, app.rateLimiter)

	rec := httptest.NewRecorder()
	app.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"ok"`)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/", strings.NewReader(`{"code":"IDEM","holder_reference":"h"}`))
		req.Header.Set("Idempotency-Key", "create-idem")
		rec := httptest.NewRecorder()
		app.handler.ServeHTTP(rec, req)
		return rec
	}

	first := send()
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second := send()
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("X-Idempotency-Replay"))
}

func TestApplicationRequiresTokenWhenSecretSet(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.JWTSecret = "api-secret"

	st, err := openStorage(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)

	app, err := newApplication(cfg, zerolog.Nop(), st, nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	app.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/accounts/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	issuer, err := auth.NewJWTManager(cfg.JWTSecret, time.Minute)
	require.NoError(t, err)
	token, err := issuer.Generate("ops", domain.RoleViewer)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	app.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	app.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
