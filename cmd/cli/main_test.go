package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/switchledger/internal/domain"
	"github.com/iho/switchledger/internal/infrastructure/auth"
)

type recordedRequest struct {
	Method        string
	Path          string
	Authorization string
	Body          map[string]any
}

func newTestServer(t *testing.T, status int, response string) (*httptest.Server, *recordedRequest) {
	t.Helper()

	rec := &recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.Method = r.Method
		rec.Path = r.URL.RequestURI()
		rec.Authorization = r.Header.Get("Authorization")
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			_ = json.Unmarshal(data, &rec.Body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)

	return srv, rec
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("expected short unchanged, got %q", got)
	}

	if got := truncate("longerstring", 6); got != "lon..." {
		t.Fatalf("expected lon..., got %q", got)
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, struct {
		A int `json:"a"`
	}{A: 1}))

	expected := "{\n  \"a\": 1\n}\n"
	if buf.String() != expected {
		t.Fatalf("unexpected json output:\n%s", buf.String())
	}
}

func TestAccountPath(t *testing.T) {
	assert.Equal(t, "/api/v1/accounts/42", accountPath("42"))
	assert.Equal(t, "/api/v1/accounts/code/DEUTDEFF", accountPath("DEUTDEFF"))
}

func TestAccountCreateCmd(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusCreated, `{"id":1,"code":"DEUTDEFF","balance":"100.00"}`)

	out, err := execute(t, "--url", srv.URL, "account", "create", "--code", "deutdeff", "--holder", "client-1", "--initial-balance", "100")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, rec.Method)
	assert.Equal(t, "/api/v1/accounts", rec.Path)
	assert.Equal(t, "deutdeff", rec.Body["code"])
	assert.Equal(t, "100", rec.Body["initial_balance"])
	assert.Contains(t, out, `"balance": "100.00"`)
}

func TestAccountListCmd(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `{"accounts":[{"id":7,"code":"ACC","holder_reference":"h","balance":"1.00","revision":2}],"total":1}`)

	out, err := execute(t, "--url", srv.URL, "account", "list", "--limit", "5")
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/accounts?limit=5&offset=0", rec.Path)
	assert.Contains(t, out, "ACC")
	assert.Contains(t, out, "1.00")
}

func TestMovementDebitCmd(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusCreated, `{"account":{"id":3,"balance":"70.00"},"movement":{"kind":"DEBIT"},"replayed":false}`)

	out, err := execute(t, "--url", srv.URL, "movement", "debit", "3", "30.00", "--reference", "r-1")
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/accounts/3/movements", rec.Path)
	assert.Equal(t, "debit", rec.Body["kind"])
	assert.Equal(t, "30", rec.Body["amount"])
	assert.Equal(t, "r-1", rec.Body["reference"])
	assert.Contains(t, out, `"balance": "70.00"`)
}

func TestMovementCmdRejectsBadAmount(t *testing.T) {
	_, err := execute(t, "--url", "http://127.0.0.1:1", "movement", "credit", "3", "ten")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid amount")
}

func TestLedgerInstructionGeneratesID(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `{"account":{"balance":"0.00"},"movement":{},"replayed":false}`)

	_, err := execute(t, "--url", srv.URL, "ledger", "instruction", "--account-code", "ACC", "--kind", "CREDIT", "--amount", "5")
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/ledger/movements", rec.Path)
	id, _ := rec.Body["instruction_id"].(string)
	assert.Len(t, id, 36)
}

func TestAPIErrorIsReturned(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusBadRequest, `{"error":"insufficient_funds","message":"insufficient funds"}`)

	_, err := execute(t, "--url", srv.URL, "movement", "debit", "1", "80")
	require.Error(t, err)

	var apiErr *apiError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "insufficient_funds", apiErr.Code)
}

func TestAPIErrorWithoutJSONBody(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusBadGateway, `upstream down`)

	_, err := execute(t, "--url", srv.URL, "account", "get", "1")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "upstream down"))
}

func TestMigrateCmd(t *testing.T) {
	origUp, origDown := migrateUp, migrateDown
	defer func() { migrateUp, migrateDown = origUp, origDown }()

	var gotURL, gotPath, direction string
	migrateUp = func(databaseURL, migrationsPath string, _ zerolog.Logger) error {
		gotURL, gotPath, direction = databaseURL, migrationsPath, "up"
		return nil
	}
	migrateDown = func(databaseURL, migrationsPath string, _ zerolog.Logger) error {
		direction = "down"
		return nil
	}

	_, err := execute(t, "migrate", "up", "--database-url", "postgres://x", "--path", "db/migrations")
	require.NoError(t, err)
	assert.Equal(t, "postgres://x", gotURL)
	assert.Equal(t, "db/migrations", gotPath)
	assert.Equal(t, "up", direction)

	_, err = execute(t, "migrate", "down", "--database-url", "postgres://x")
	require.NoError(t, err)
	assert.Equal(t, "down", direction)
}

func TestMigrateCmdRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := execute(t, "migrate", "up")
	require.Error(t, err)
}

func TestTokenFlagSetsAuthorization(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `{"accounts":[],"total":0}`)

	_, err := execute(t, "--url", srv.URL, "--token", "abc", "account", "list")
	require.NoError(t, err)

	assert.Equal(t, "Bearer abc", rec.Authorization)
}

func TestTokenIssueCmd(t *testing.T) {
	out, err := execute(t, "token", "issue", "--secret", "cli-secret", "--subject", "switch-01", "--role", "admin")
	require.NoError(t, err)

	manager, err := auth.NewJWTManager("cli-secret", 0)
	require.NoError(t, err)
	claims, err := manager.Verify(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "switch-01", claims.Subject)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
}

func TestTokenIssueCmdValidates(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := execute(t, "token", "issue", "--subject", "switch-01")
	assert.ErrorContains(t, err, "JWT_SECRET")

	_, err = execute(t, "token", "issue", "--secret", "s", "--subject", "switch-01", "--role", "root")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}
