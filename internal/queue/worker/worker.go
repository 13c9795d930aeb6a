package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/wellnest/wellnest/internal/domain/job"
	"github.com/wellnest/wellnest/internal/notifications"
	"github.com/wellnest/wellnest/internal/observability"
)

type JobsRepository interface {
	ClaimNext(ctx context.Context, workerID string) (job.Job, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
	Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error
	RequeueStaleProcessing(ctx context.Context, lockTTL time.Duration) (int64, error)
}

// OtpSweeper removes spent and expired codes, the worker runs it on the
// same cadence as the stale-lock sweep.
type OtpSweeper interface {
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

type Config struct {
	PollInterval  time.Duration
	WorkerID      string
	Concurrency   int
	ShutdownGrace time.Duration

	// stale-lock + otp sweep
	SweepInterval time.Duration
	StaleLockTTL  time.Duration
}

type Worker struct {
	cfg      Config
	repo     JobsRepository
	notifier notifications.Notifier
	otps     OtpSweeper
	metrics  *observability.JobMetrics
	prom     *observability.Prom
	log      *slog.Logger

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, repo JobsRepository, notifier notifications.Notifier, otps OtpSweeper, prom *observability.Prom, log *slog.Logger) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 10 * time.Second
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.StaleLockTTL <= 0 {
		cfg.StaleLockTTL = 2 * time.Minute
	}

	return &Worker{
		cfg:      cfg,
		repo:     repo,
		notifier: notifier,
		otps:     otps,
		metrics:  observability.NewJobMetrics(),
		prom:     prom,
		log:      log,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	defer w.setReady(false)

	var wg sync.WaitGroup

	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()
			w.pollLoop(ctx)
		}()
	}

	wg.Add(1)

	go func() {
		defer wg.Done()
		w.sweepLoop(ctx)
	}()

	<-ctx.Done()

	w.log.Info("worker received shutdown signal")
	w.setReady(false)

	// let in-flight jobs finish, then give up
	done := make(chan struct{})

	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(w.cfg.ShutdownGrace):
		w.log.Warn("shutdown grace elapsed with jobs still in flight")
	}

	return nil
}

func (w *Worker) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// drain the queue before going back to sleep
			for {
				processed, err := w.ProcessOne(ctx)

				if err != nil {
					w.log.Error("process job", "error", err)
					break
				}
				if !processed {
					break
				}
			}
		}
	}
}

func (w *Worker) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := w.repo.RequeueStaleProcessing(ctx, w.cfg.StaleLockTTL)

			if err != nil {
				w.log.Error("requeue stale jobs", "error", err)
			} else if n > 0 {
				w.log.Warn("requeued stale jobs", "count", n)
			}

			if w.otps == nil {
				continue
			}

			deleted, err := w.otps.DeleteExpired(ctx, time.Now().UTC())

			if err != nil {
				w.log.Error("sweep expired otps", "error", err)
			} else if deleted > 0 {
				w.log.Info("swept expired otps", "count", deleted)
			}
		}
	}
}

func (w *Worker) Stats() observability.JobMetricsSnapshot {
	return w.metrics.Snapshot()
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}
