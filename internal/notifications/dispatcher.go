package notifications

import (
	"context"
	"log/slog"
	"time"

	"github.com/wellnest/wellnest/internal/domain/job"
	"github.com/wellnest/wellnest/internal/jobs"
)

type JobCreator interface {
	Create(ctx context.Context, req job.CreateRequest) (job.Job, error)
}

// QueueDispatcher hands OTP mails off to the jobs table. The worker picks
// them up asynchronously, so an enqueue failure is logged but never surfaced
// to the caller: losing a mail must not fail registration or password reset.
type QueueDispatcher struct {
	repo JobCreator
	log  *slog.Logger
}

func NewQueueDispatcher(repo JobCreator, log *slog.Logger) *QueueDispatcher {
	return &QueueDispatcher{repo: repo, log: log}
}

func (d *QueueDispatcher) DispatchVerificationCode(ctx context.Context, email, code string) {
	payload, err := jobs.EncodePayload(jobs.JobSendVerificationCode, jobs.SendVerificationCodePayload{
		Email:       email,
		Code:        code,
		RequestedAt: time.Now().UTC(),
	})
	if err != nil {
		d.log.Error("encode verification job", "error", err)
		return
	}

	d.enqueue(ctx, string(jobs.JobSendVerificationCode), payload, email)
}

func (d *QueueDispatcher) DispatchResetCode(ctx context.Context, email, code string) {
	payload, err := jobs.EncodePayload(jobs.JobSendResetCode, jobs.SendResetCodePayload{
		Email:       email,
		Code:        code,
		RequestedAt: time.Now().UTC(),
	})
	if err != nil {
		d.log.Error("encode reset job", "error", err)
		return
	}

	d.enqueue(ctx, string(jobs.JobSendResetCode), payload, email)
}

func (d *QueueDispatcher) enqueue(ctx context.Context, jobType string, payload []byte, email string) {
	j, err := d.repo.Create(ctx, job.CreateRequest{Type: jobType, Payload: payload})

	if err != nil {
		d.log.Error("enqueue mail job", "type", jobType, "email", email, "error", err)
		return
	}

	d.log.Info("mail job enqueued", "type", jobType, "jobId", j.ID)
}
