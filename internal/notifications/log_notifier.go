package notifications

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// LogNotifier writes the mail to the process log instead of sending it.
// Used in dev and in tests where an SMTP server is not available.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) SendVerificationCode(ctx context.Context, in SendVerificationCodeInput) error {
	if err := n.simulate(ctx); err != nil {
		return err
	}

	log.Printf("notification.verification_code email=%s code=%s", in.Email, in.Code)
	return nil
}

func (n *LogNotifier) SendResetCode(ctx context.Context, in SendResetCodeInput) error {
	if err := n.simulate(ctx); err != nil {
		return err
	}

	log.Printf("notification.reset_code email=%s code=%s", in.Email, in.Code)
	return nil
}

func (n *LogNotifier) simulate(ctx context.Context) error {
	// Optional: simulate slow provider
	if msStr := os.Getenv("NOTIFIER_SLEEP_MS"); msStr != "" {
		ms, _ := strconv.Atoi(msStr)
		if ms > 0 {
			select {
			case <-time.After(time.Duration(ms) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	// Optional: simulate provider outage
	if os.Getenv("NOTIFIER_FAIL") == "1" {
		return fmt.Errorf("provider down (simulated)")
	}

	return nil
}
