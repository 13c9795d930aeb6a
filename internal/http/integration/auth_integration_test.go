package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wellnest/wellnest/internal/config"
	apphttp "github.com/wellnest/wellnest/internal/http"
)

func testConfig() config.Config {
	return config.Config{
		Env:              "test",
		JWTSecret:        "test-secret-key",
		JWTAccessTTLMins: 60,
		OTPLength:        6,
		OTPExpiryMinutes: 5,
	}
}

func setupRouter(t *testing.T) (*gin.Engine, *pgxpool.Pool) {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")

	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	gin.SetMode(gin.TestMode)

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)

	if err != nil {
		t.Fatalf("failed to create pgx pool: %v", err)
	}

	t.Cleanup(pool.Close)

	for _, table := range []string{"jobs", "otps", "trainer_assignments", "reports", "fitness_profiles", "users"} {
		if _, err := pool.Exec(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("failed to clear %s: %v", table, err)
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := apphttp.NewRouter(apphttp.Deps{
		Cfg:  testConfig(),
		Log:  logger,
		Pool: pool,
	})

	return router, pool
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func latestCode(t *testing.T, pool *pgxpool.Pool, email, purpose string) string {
	t.Helper()

	var code string

	err := pool.QueryRow(context.Background(), `
		SELECT code FROM otps
		WHERE email = $1 AND purpose = $2 AND used = FALSE
		ORDER BY created_at DESC
		LIMIT 1
	`, email, purpose).Scan(&code)

	if err != nil {
		t.Fatalf("no pending code for %s/%s: %v", email, purpose, err)
	}

	return code
}

func TestFullAccountLifecycle(t *testing.T) {
	router, pool := setupRouter(t)

	// register
	w := postJSON(t, router, "/auth/register", gin.H{
		"username": "alice",
		"email":    "a@x.com",
		"password": "pw123456",
		"fullName": "Alice Example",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}

	// login blocked until verified
	w = postJSON(t, router, "/auth/login", gin.H{"identifier": "alice", "password": "pw123456"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("unverified login: expected 403, got %d %s", w.Code, w.Body.String())
	}

	// verify with the stored code
	code := latestCode(t, pool, "a@x.com", "EMAIL_VERIFICATION")

	w = postJSON(t, router, "/auth/verify-email", gin.H{"email": "a@x.com", "otp": code})
	if w.Code != http.StatusOK {
		t.Fatalf("verify-email: %d %s", w.Code, w.Body.String())
	}

	var session struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &session); err != nil || session.Token == "" {
		t.Fatalf("no session from verification: %v %s", err, w.Body.String())
	}

	// login now works
	w = postJSON(t, router, "/auth/login", gin.H{"identifier": "a@x.com", "password": "pw123456"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}

	// password reset round trip
	w = postJSON(t, router, "/auth/forgot-password", gin.H{"email": "a@x.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("forgot-password: %d %s", w.Code, w.Body.String())
	}

	resetCode := latestCode(t, pool, "a@x.com", "PASSWORD_RESET")

	w = postJSON(t, router, "/auth/verify-reset-otp", gin.H{"email": "a@x.com", "otp": resetCode})
	if w.Code != http.StatusOK {
		t.Fatalf("verify-reset-otp: %d %s", w.Code, w.Body.String())
	}

	w = postJSON(t, router, "/auth/reset-password", gin.H{"email": "a@x.com", "otp": resetCode, "newPassword": "pw7654321"})
	if w.Code != http.StatusOK {
		t.Fatalf("reset-password: %d %s", w.Code, w.Body.String())
	}

	w = postJSON(t, router, "/auth/login", gin.H{"identifier": "alice", "password": "pw123456"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("old password still valid: %d", w.Code)
	}

	w = postJSON(t, router, "/auth/login", gin.H{"identifier": "alice", "password": "pw7654321"})
	if w.Code != http.StatusOK {
		t.Fatalf("new password rejected: %d %s", w.Code, w.Body.String())
	}

	// registration queued a verification mail job
	var jobCount int
	if err := pool.QueryRow(context.Background(), `SELECT COUNT(*) FROM jobs WHERE type = 'send_verification_code'`).Scan(&jobCount); err != nil {
		t.Fatalf("count jobs: %v", err)
	}
	if jobCount == 0 {
		t.Fatal("expected a queued verification mail job")
	}
}

func TestDuplicateRegistration(t *testing.T) {
	router, _ := setupRouter(t)

	reg := func(username, email string) *httptest.ResponseRecorder {
		return postJSON(t, router, "/auth/register", gin.H{
			"username": username,
			"email":    email,
			"password": "pw123456",
			"fullName": "Someone",
		})
	}

	if w := reg("alice", "a@x.com"); w.Code != http.StatusCreated {
		t.Fatalf("first register: %d %s", w.Code, w.Body.String())
	}
	if w := reg("alice", "other@x.com"); w.Code != http.StatusConflict {
		t.Fatalf("dup username: expected 409, got %d", w.Code)
	}
	if w := reg("alice2", "a@x.com"); w.Code != http.StatusConflict {
		t.Fatalf("dup email: expected 409, got %d", w.Code)
	}
}
