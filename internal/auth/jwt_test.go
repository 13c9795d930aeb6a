package auth_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/wellnest/wellnest/internal/auth"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	m := auth.NewManager("test-secret-key", time.Hour)

	token, err := m.Issue("user-123", "alice", "CUSTOMER")

	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	claims, err := m.Verify(token)

	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	if claims.UserID() != "user-123" {
		t.Errorf("expected subject user-123, got %q", claims.UserID())
	}
	if claims.Username != "alice" {
		t.Errorf("expected username alice, got %q", claims.Username)
	}
	if claims.Role != "CUSTOMER" {
		t.Errorf("expected role CUSTOMER, got %q", claims.Role)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	m := auth.NewManager("test-secret-key", -time.Minute)

	token, err := m.Issue("user-123", "alice", "CUSTOMER")

	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	_, err = m.Verify(token)

	if !errors.Is(err, auth.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyTamperedSignature(t *testing.T) {
	m := auth.NewManager("test-secret-key", time.Hour)

	token, err := m.Issue("user-123", "alice", "CUSTOMER")

	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	parts := strings.Split(token, ".")

	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", token)
	}

	// flip the signature
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	_, err = m.Verify(tampered)

	if !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyWrongKey(t *testing.T) {
	issuer := auth.NewManager("key-one", time.Hour)
	verifier := auth.NewManager("key-two", time.Hour)

	token, err := issuer.Issue("user-123", "alice", "CUSTOMER")

	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	_, err = verifier.Verify(token)

	if !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	m := auth.NewManager("test-secret-key", time.Hour)

	for _, tok := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		_, err := m.Verify(tok)

		if !errors.Is(err, auth.ErrInvalidToken) {
			t.Errorf("token %q: expected ErrInvalidToken, got %v", tok, err)
		}
	}
}
