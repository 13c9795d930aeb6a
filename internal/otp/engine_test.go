package otp_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	domainotp "github.com/wellnest/wellnest/internal/domain/otp"
	"github.com/wellnest/wellnest/internal/otp"
	"github.com/wellnest/wellnest/internal/repo/memory"
)

func newEngine(t *testing.T, ttl time.Duration) (*otp.Engine, *memory.OtpsRepo) {
	t.Helper()

	store := memory.NewOtpsRepo()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	return otp.NewEngine(store, 6, ttl, log), store
}

func TestGenerateProducesSixDigitCode(t *testing.T) {
	e, _ := newEngine(t, 5*time.Minute)

	code, err := e.Generate(context.Background(), "a@x.com", domainotp.PurposeEmailVerification)

	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", code)
	}

	for _, c := range code {
		if c < '0' || c > '9' {
			t.Fatalf("expected numeric code, got %q", code)
		}
	}
}

func TestValidateHappyPathConsumes(t *testing.T) {
	e, _ := newEngine(t, 5*time.Minute)
	ctx := context.Background()

	code, err := e.Generate(ctx, "a@x.com", domainotp.PurposeEmailVerification)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	ok, err := e.Validate(ctx, "a@x.com", code, domainotp.PurposeEmailVerification)
	if err != nil || !ok {
		t.Fatalf("expected first validate to pass, got ok=%v err=%v", ok, err)
	}

	// terminal: a consumed code never validates again
	ok, err = e.Validate(ctx, "a@x.com", code, domainotp.PurposeEmailVerification)
	if err != nil {
		t.Fatalf("second validate errored: %v", err)
	}
	if ok {
		t.Fatalf("expected consumed code to be rejected")
	}
}

func TestValidateWrongCodeDoesNotConsume(t *testing.T) {
	e, _ := newEngine(t, 5*time.Minute)
	ctx := context.Background()

	code, err := e.Generate(ctx, "a@x.com", domainotp.PurposeEmailVerification)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	ok, err := e.Validate(ctx, "a@x.com", wrong, domainotp.PurposeEmailVerification)
	if err != nil {
		t.Fatalf("validate errored: %v", err)
	}
	if ok {
		t.Fatalf("wrong code must not validate")
	}

	// the real code survives the failed guess
	ok, err = e.Validate(ctx, "a@x.com", code, domainotp.PurposeEmailVerification)
	if err != nil || !ok {
		t.Fatalf("expected real code to still validate, got ok=%v err=%v", ok, err)
	}
}

func TestGenerateSupersedesPriorCode(t *testing.T) {
	e, _ := newEngine(t, 5*time.Minute)
	ctx := context.Background()

	first, err := e.Generate(ctx, "a@x.com", domainotp.PurposeEmailVerification)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	second, err := e.Generate(ctx, "a@x.com", domainotp.PurposeEmailVerification)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if first != second {
		ok, err := e.Validate(ctx, "a@x.com", first, domainotp.PurposeEmailVerification)
		if err != nil {
			t.Fatalf("validate errored: %v", err)
		}
		if ok {
			t.Fatalf("superseded code must not validate")
		}
	}

	ok, err := e.Validate(ctx, "a@x.com", second, domainotp.PurposeEmailVerification)
	if err != nil || !ok {
		t.Fatalf("expected latest code to validate, got ok=%v err=%v", ok, err)
	}
}

func TestValidateExpiredCode(t *testing.T) {
	e, _ := newEngine(t, -time.Second) // already expired on insert
	ctx := context.Background()

	code, err := e.Generate(ctx, "a@x.com", domainotp.PurposePasswordReset)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	ok, err := e.Validate(ctx, "a@x.com", code, domainotp.PurposePasswordReset)
	if err != nil {
		t.Fatalf("validate errored: %v", err)
	}
	if ok {
		t.Fatalf("expired code must not validate")
	}
}

func TestPurposesAreIsolated(t *testing.T) {
	e, _ := newEngine(t, 5*time.Minute)
	ctx := context.Background()

	code, err := e.Generate(ctx, "a@x.com", domainotp.PurposeEmailVerification)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	ok, err := e.Validate(ctx, "a@x.com", code, domainotp.PurposePasswordReset)
	if err != nil {
		t.Fatalf("validate errored: %v", err)
	}
	if ok {
		t.Fatalf("verification code must not validate for the reset purpose")
	}
}

func TestValidateAndExtendKeepsCodeSpendable(t *testing.T) {
	e, _ := newEngine(t, 5*time.Minute)
	ctx := context.Background()

	code, err := e.Generate(ctx, "a@x.com", domainotp.PurposePasswordReset)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	ok, err := e.ValidateAndExtend(ctx, "a@x.com", code, domainotp.PurposePasswordReset, 5*time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected extend to pass, got ok=%v err=%v", ok, err)
	}

	// proving the code did not spend it
	ok, err = e.Validate(ctx, "a@x.com", code, domainotp.PurposePasswordReset)
	if err != nil || !ok {
		t.Fatalf("expected code to remain spendable after extend, got ok=%v err=%v", ok, err)
	}
}

func TestValidateAndExtendPushesExpiry(t *testing.T) {
	e, store := newEngine(t, time.Minute)
	ctx := context.Background()

	code, err := e.Generate(ctx, "a@x.com", domainotp.PurposePasswordReset)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	ok, err := e.ValidateAndExtend(ctx, "a@x.com", code, domainotp.PurposePasswordReset, 30*time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected extend to pass, got ok=%v err=%v", ok, err)
	}

	rec, err := store.FindLatestUnused(ctx, "a@x.com", domainotp.PurposePasswordReset)
	if err != nil {
		t.Fatalf("FindLatestUnused failed: %v", err)
	}

	if time.Until(rec.ExpiresAt) < 20*time.Minute {
		t.Fatalf("expected expiry pushed out, got %v", rec.ExpiresAt)
	}
}

func TestMarkUsedIsIdempotent(t *testing.T) {
	e, _ := newEngine(t, 5*time.Minute)
	ctx := context.Background()

	code, err := e.Generate(ctx, "a@x.com", domainotp.PurposePasswordReset)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if err := e.MarkUsed(ctx, "a@x.com", domainotp.PurposePasswordReset); err != nil {
		t.Fatalf("first MarkUsed failed: %v", err)
	}

	// nothing left to consume: still no error
	if err := e.MarkUsed(ctx, "a@x.com", domainotp.PurposePasswordReset); err != nil {
		t.Fatalf("second MarkUsed failed: %v", err)
	}

	ok, err := e.Validate(ctx, "a@x.com", code, domainotp.PurposePasswordReset)
	if err != nil {
		t.Fatalf("validate errored: %v", err)
	}
	if ok {
		t.Fatalf("code must be unusable after MarkUsed")
	}
}

func TestConcurrentValidateSingleWinner(t *testing.T) {
	e, _ := newEngine(t, 5*time.Minute)
	ctx := context.Background()

	code, err := e.Generate(ctx, "a@x.com", domainotp.PurposeEmailVerification)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	const n = 16
	results := make(chan bool, n)

	for i := 0; i < n; i++ {
		go func() {
			ok, _ := e.Validate(ctx, "a@x.com", code, domainotp.PurposeEmailVerification)
			results <- ok
		}()
	}

	wins := 0
	for i := 0; i < n; i++ {
		if <-results {
			wins++
		}
	}

	if wins != 1 {
		t.Fatalf("expected exactly one successful validation, got %d", wins)
	}
}
