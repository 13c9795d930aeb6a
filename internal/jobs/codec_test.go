package jobs_test

import (
	"errors"
	"testing"
	"time"

	"github.com/wellnest/wellnest/internal/domain/job"
	"github.com/wellnest/wellnest/internal/jobs"
)

func TestEncodeDecodeVerificationPayload(t *testing.T) {
	p := jobs.SendVerificationCodePayload{
		Email:       "a@x.com",
		Code:        "123456",
		RequestedAt: time.Now().UTC(),
	}

	b, err := jobs.EncodePayload(jobs.JobSendVerificationCode, p)

	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	j := job.New(job.CreateRequest{Type: string(jobs.JobSendVerificationCode), Payload: b})

	decoded, err := jobs.DecodePayload(j)

	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	got, ok := decoded.(jobs.SendVerificationCodePayload)

	if !ok {
		t.Fatalf("expected SendVerificationCodePayload, got %T", decoded)
	}
	if got.Email != p.Email || got.Code != p.Code {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestEncodeRejectsMismatchedPayload(t *testing.T) {
	_, err := jobs.EncodePayload(jobs.JobSendResetCode, jobs.SendVerificationCodePayload{})

	if !errors.Is(err, jobs.ErrPayloadTypeMismatch) {
		t.Fatalf("expected ErrPayloadTypeMismatch, got %v", err)
	}
}

func TestEncodeRejectsUnknownType(t *testing.T) {
	_, err := jobs.EncodePayload(jobs.JobType("nonsense"), jobs.SendResetCodePayload{})

	if !errors.Is(err, jobs.ErrInvalidJobType) {
		t.Fatalf("expected ErrInvalidJobType, got %v", err)
	}
}

func TestDecodeRejectsEmptyPayload(t *testing.T) {
	j := job.New(job.CreateRequest{Type: string(jobs.JobSendResetCode)})

	_, err := jobs.DecodePayload(j)

	if !errors.Is(err, jobs.ErrInvalidJobPayload) {
		t.Fatalf("expected ErrInvalidJobPayload, got %v", err)
	}
}
