package security_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/wellnest/wellnest/internal/security"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := security.HashPassword("pw123456")

	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if hash == "pw123456" {
		t.Fatalf("hash must never equal the plaintext")
	}

	if err := security.CheckPassword(hash, "pw123456"); err != nil {
		t.Fatalf("expected matching password to verify, got %v", err)
	}

	if err := security.CheckPassword(hash, "wrong-password"); err == nil {
		t.Fatalf("expected mismatch for wrong password")
	}
}

func TestCheckPasswordMalformedHash(t *testing.T) {
	// A corrupted stored hash must read as a plain mismatch, not a
	// distinguishable failure mode.
	if err := security.CheckPassword("not-a-bcrypt-hash", "pw123456"); err == nil {
		t.Fatalf("expected error for malformed hash")
	}
}

func TestHashPasswordRejectsOverlongInput(t *testing.T) {
	// 72 bytes is bcrypt's hard limit; anything past it would be
	// silently dropped from the hash input.
	at72 := strings.Repeat("a", 72)
	if _, err := security.HashPassword(at72); err != nil {
		t.Fatalf("72-byte password should hash, got %v", err)
	}

	if _, err := security.HashPassword(at72 + "a"); !errors.Is(err, security.ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong for 73 bytes, got %v", err)
	}

	// 72 runes but more than 72 bytes
	multibyte := strings.Repeat("ä", 72)
	if _, err := security.HashPassword(multibyte); !errors.Is(err, security.ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong for multibyte overflow, got %v", err)
	}
}

func TestHashesAreSalted(t *testing.T) {
	h1, err := security.HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	h2, err := security.HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if h1 == h2 {
		t.Fatalf("two hashes of the same password should differ (salt)")
	}
}
