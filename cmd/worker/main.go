package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/wellnest/wellnest/internal/config"
	"github.com/wellnest/wellnest/internal/db"
	"github.com/wellnest/wellnest/internal/notifications"
	"github.com/wellnest/wellnest/internal/observability"
	"github.com/wellnest/wellnest/internal/queue/worker"
	"github.com/wellnest/wellnest/internal/repo/postgres"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	jobsRepo := postgres.NewJobsRepo(pool, nil)
	otpsRepo := postgres.NewOtpsRepo(pool, nil)

	// mail transport: SMTP when configured, log output otherwise
	var notifier notifications.Notifier

	if cfg.SMTPHost != "" {
		notifier = notifications.NewSMTPNotifier(notifications.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.MailFrom,
		})
	} else {
		log.Warn("SMTP_HOST not set, mails go to the process log")
		notifier = notifications.NewLogNotifier()
	}

	protected := notifications.NewProtectedNotifier(notifier, notifications.ProtectedNotifierConfig{
		Timeout:          5 * time.Second,
		FailureThreshold: 3,
		Cooldown:         30 * time.Second,
	})

	host, _ := os.Hostname()
	workerID := host + "-" + strconv.Itoa(os.Getpid())

	w := worker.New(worker.Config{
		PollInterval:  100 * time.Millisecond,
		WorkerID:      workerID,
		Concurrency:   4,
		ShutdownGrace: 10 * time.Second,
		SweepInterval: time.Minute,
		StaleLockTTL:  2 * time.Minute,
	}, jobsRepo, protected, otpsRepo, nil, log)

	// health endpoint for the orchestrator
	healthSrv := &http.Server{
		Addr:              ":9090",
		Handler:           w.HealthHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("health server failed", "err", err)
		}
	}()

	log.Info("worker has started", "workerId", workerID)

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	shutdownCtx, cancel := config.WithTimeout(5 * time.Second)
	_ = healthSrv.Shutdown(shutdownCtx)
	cancel()

	log.Info("worker shutdown complete")
}
