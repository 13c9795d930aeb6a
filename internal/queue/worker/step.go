package worker

import (
	"context"
	"errors"
	"time"

	"github.com/wellnest/wellnest/internal/domain/job"
	"github.com/wellnest/wellnest/internal/jobs"
	"github.com/wellnest/wellnest/internal/notifications"
)

// ProcessOne claims and executes a single job. It returns false when the
// queue is empty.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)

	j, err := w.repo.ClaimNext(claimCtx, w.cfg.WorkerID)
	cancel()

	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			return false, nil
		}

		return false, err
	}

	w.metrics.IncClaimed()

	if w.prom != nil {
		w.prom.JobsInFlight.Inc()
		defer w.prom.JobsInFlight.Dec()
	}

	start := time.Now()

	err = w.execute(ctx, j)

	elapsed := time.Since(start)
	w.metrics.ObserveDuration(elapsed)

	if err != nil {
		w.handleFailure(ctx, j, err, elapsed)
		return true, nil
	}

	w.observeResult(j.Type, "done", elapsed)
	w.metrics.IncDone()

	err = w.repo.MarkDone(ctx, j.ID)

	if err != nil {
		_ = w.repo.MarkFailed(ctx, j.ID, "mark_done_failed: "+err.Error())
		return true, err
	}

	return true, nil
}

func (w *Worker) execute(ctx context.Context, j job.Job) error {
	payload, err := jobs.DecodePayload(j)

	if err != nil {
		return err
	}

	switch p := payload.(type) {
	case jobs.SendVerificationCodePayload:
		return w.notifier.SendVerificationCode(ctx, notifications.SendVerificationCodeInput{
			Email: p.Email,
			Code:  p.Code,
		})

	case jobs.SendResetCodePayload:
		return w.notifier.SendResetCode(ctx, notifications.SendResetCodeInput{
			Email: p.Email,
			Code:  p.Code,
		})

	default:
		return jobs.ErrInvalidJobType
	}
}

func (w *Worker) handleFailure(ctx context.Context, j job.Job, execErr error, elapsed time.Duration) {
	// malformed jobs will never succeed, fail them immediately
	if errors.Is(execErr, jobs.ErrInvalidJobType) || errors.Is(execErr, jobs.ErrInvalidJobPayload) {
		w.observeResult(j.Type, "failed", elapsed)
		w.metrics.IncFailed()
		w.metrics.IncDeadLettered()

		if err := w.repo.MarkFailed(ctx, j.ID, execErr.Error()); err != nil {
			w.log.Error("mark malformed job failed", "jobId", j.ID, "error", err)
		}
		return
	}

	// Reschedule bumps attempts, so this run counts as j.Attempts+1
	if j.Attempts+1 >= j.MaxAttempts {
		w.observeResult(j.Type, "failed", elapsed)
		w.metrics.IncFailed()
		w.metrics.IncDeadLettered()

		w.log.Error("job exhausted attempts", "jobId", j.ID, "type", j.Type, "attempts", j.Attempts, "error", execErr)

		if err := w.repo.MarkFailed(ctx, j.ID, execErr.Error()); err != nil {
			w.log.Error("mark job failed", "jobId", j.ID, "error", err)
		}
		return
	}

	delay := ExponentialBackoff(j.Attempts)
	runAt := time.Now().UTC().Add(delay)

	w.observeResult(j.Type, "retry", elapsed)
	w.metrics.IncRetried()

	w.log.Warn("job rescheduled", "jobId", j.ID, "type", j.Type, "attempt", j.Attempts, "delay", delay, "error", execErr)

	if err := w.repo.Reschedule(ctx, j.ID, runAt, execErr.Error()); err != nil {
		w.log.Error("reschedule job", "jobId", j.ID, "error", err)
	}
}

func (w *Worker) observeResult(jobType, result string, elapsed time.Duration) {
	if w.prom == nil {
		return
	}

	w.prom.JobResults.WithLabelValues(jobType, result).Inc()
	w.prom.JobDuration.WithLabelValues(jobType, result).Observe(elapsed.Seconds())
}
