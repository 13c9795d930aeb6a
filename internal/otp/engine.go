package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/wellnest/wellnest/internal/domain/otp"
)

var (
	// ErrNoActiveCode is the store's "nothing unused for this pair".
	ErrNoActiveCode = errors.New("no active code")
	// ErrCodeConsumed means another request spent the code first; the
	// compare-and-set on the used flag lost.
	ErrCodeConsumed = errors.New("code already consumed")
)

// Store is the keyed record store the engine drives. MarkUsed and
// ExtendExpiry must be atomic on the used flag so two concurrent
// validations cannot both succeed on one code.
type Store interface {
	Insert(ctx context.Context, rec otp.Record) error
	FindLatestUnused(ctx context.Context, email string, purpose otp.Purpose) (otp.Record, error)
	MarkUsed(ctx context.Context, id string) error
	ExtendExpiry(ctx context.Context, id string, until time.Time) error
	DeleteAll(ctx context.Context, email string, purpose otp.Purpose) error
}

type Engine struct {
	store  Store
	length int
	ttl    time.Duration
	log    *slog.Logger
}

func NewEngine(store Store, length int, ttl time.Duration, log *slog.Logger) *Engine {
	if length <= 0 {
		length = 6
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}

	return &Engine{store: store, length: length, ttl: ttl, log: log}
}

// Generate supersedes every prior code for (email, purpose) and issues
// a fresh one. Returns the plaintext code for out-of-band transport;
// it is never logged.
func (e *Engine) Generate(ctx context.Context, email string, purpose otp.Purpose) (string, error) {
	if err := e.store.DeleteAll(ctx, email, purpose); err != nil {
		return "", fmt.Errorf("supersede previous codes: %w", err)
	}

	code, err := e.randomCode()

	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}

	rec := otp.NewRecord(email, purpose, code, e.ttl)

	if err := e.store.Insert(ctx, rec); err != nil {
		return "", fmt.Errorf("store code: %w", err)
	}

	e.log.InfoContext(ctx, "otp_generated", "email", email, "purpose", purpose)

	return code, nil
}

// Validate is the consuming check: on match it marks the record used,
// terminally. Absent, expired and mismatched codes all come back as a
// bare false so callers cannot tell them apart. A mismatch leaves the
// record untouched; guessing does not burn the real code.
func (e *Engine) Validate(ctx context.Context, email, code string, purpose otp.Purpose) (bool, error) {
	rec, ok, err := e.match(ctx, email, code, purpose)

	if err != nil || !ok {
		return false, err
	}

	err = e.store.MarkUsed(ctx, rec.ID)

	if err != nil {
		if errors.Is(err, ErrCodeConsumed) {
			// lost the race against a concurrent validation
			return false, nil
		}
		return false, err
	}

	e.log.InfoContext(ctx, "otp_validated", "email", email, "purpose", purpose)

	return true, nil
}

// ValidateAndExtend proves possession of the code without spending it,
// pushing the expiry to now+extend. Used to split "prove code" from
// "spend code" across two calls in the reset flow.
func (e *Engine) ValidateAndExtend(ctx context.Context, email, code string, purpose otp.Purpose, extend time.Duration) (bool, error) {
	rec, ok, err := e.match(ctx, email, code, purpose)

	if err != nil || !ok {
		return false, err
	}

	err = e.store.ExtendExpiry(ctx, rec.ID, time.Now().UTC().Add(extend))

	if err != nil {
		if errors.Is(err, ErrCodeConsumed) {
			return false, nil
		}
		return false, err
	}

	e.log.InfoContext(ctx, "otp_extended", "email", email, "purpose", purpose)

	return true, nil
}

// MarkUsed consumes the active code without comparing it, for callers
// that already validated through another path. Best effort, idempotent.
func (e *Engine) MarkUsed(ctx context.Context, email string, purpose otp.Purpose) error {
	rec, err := e.store.FindLatestUnused(ctx, email, purpose)

	if err != nil {
		if errors.Is(err, ErrNoActiveCode) {
			return nil
		}
		return err
	}

	err = e.store.MarkUsed(ctx, rec.ID)

	if err != nil && !errors.Is(err, ErrCodeConsumed) {
		return err
	}
	return nil
}

// match loads the active record and compares codes in constant time.
func (e *Engine) match(ctx context.Context, email, code string, purpose otp.Purpose) (otp.Record, bool, error) {
	rec, err := e.store.FindLatestUnused(ctx, email, purpose)

	if err != nil {
		if errors.Is(err, ErrNoActiveCode) {
			return otp.Record{}, false, nil
		}
		return otp.Record{}, false, err
	}

	if rec.IsExpired(time.Now().UTC()) {
		e.log.WarnContext(ctx, "otp_expired", "email", email, "purpose", purpose)
		return otp.Record{}, false, nil
	}

	if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(code)) != 1 {
		e.log.WarnContext(ctx, "otp_mismatch", "email", email, "purpose", purpose)
		return otp.Record{}, false, nil
	}

	return rec, true, nil
}

// randomCode draws a fixed-length, zero-padded numeric code from
// crypto/rand.
func (e *Engine) randomCode() (string, error) {
	bound := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(e.length)), nil)

	n, err := rand.Int(rand.Reader, bound)

	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%0*d", e.length, n), nil
}
