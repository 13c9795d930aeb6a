package notifications

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubNotifier struct {
	err   error
	calls int
}

func (s *stubNotifier) SendVerificationCode(ctx context.Context, in SendVerificationCodeInput) error {
	s.calls++
	return s.err
}

func (s *stubNotifier) SendResetCode(ctx context.Context, in SendResetCodeInput) error {
	s.calls++
	return s.err
}

func TestCircuitOpensAfterThreshold(t *testing.T) {
	stub := &stubNotifier{err: errors.New("provider down")}

	pn := NewProtectedNotifier(stub, ProtectedNotifierConfig{
		FailureThreshold: 2,
		Cooldown:         time.Minute,
	})

	in := SendVerificationCodeInput{Email: "a@x.com", Code: "123456"}

	for i := 0; i < 2; i++ {
		if err := pn.SendVerificationCode(context.Background(), in); err == nil {
			t.Fatalf("call %d: expected provider error", i)
		}
	}

	// circuit should now be open and fail fast without touching the provider
	before := stub.calls

	err := pn.SendVerificationCode(context.Background(), in)

	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if stub.calls != before {
		t.Fatalf("provider was called while circuit open")
	}
}

func TestCircuitRecoversAfterCooldown(t *testing.T) {
	stub := &stubNotifier{err: errors.New("provider down")}

	pn := NewProtectedNotifier(stub, ProtectedNotifierConfig{
		FailureThreshold: 1,
		Cooldown:         10 * time.Millisecond,
	})

	in := SendResetCodeInput{Email: "a@x.com", Code: "654321"}

	if err := pn.SendResetCode(context.Background(), in); err == nil {
		t.Fatal("expected provider error")
	}

	time.Sleep(20 * time.Millisecond)

	// provider back up, half-open trial should succeed and close the circuit
	stub.err = nil

	if err := pn.SendResetCode(context.Background(), in); err != nil {
		t.Fatalf("half-open trial failed: %v", err)
	}
	if err := pn.SendResetCode(context.Background(), in); err != nil {
		t.Fatalf("closed circuit rejected call: %v", err)
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	stub := &stubNotifier{}

	pn := NewProtectedNotifier(stub, ProtectedNotifierConfig{FailureThreshold: 2})

	in := SendVerificationCodeInput{Email: "a@x.com", Code: "123456"}

	stub.err = errors.New("blip")
	_ = pn.SendVerificationCode(context.Background(), in)

	stub.err = nil
	if err := pn.SendVerificationCode(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stub.err = errors.New("blip")
	_ = pn.SendVerificationCode(context.Background(), in)

	// one failure after a success should not trip a threshold of two
	stub.err = nil
	if err := pn.SendVerificationCode(context.Background(), in); err != nil {
		t.Fatalf("circuit tripped too early: %v", err)
	}
}
