package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wellnest/wellnest/internal/domain/otp"
	"github.com/wellnest/wellnest/internal/observability"
	otpengine "github.com/wellnest/wellnest/internal/otp"
)

// OtpsRepo backs the OTP engine. The used flag only ever flips through
// `AND used = FALSE` updates, so exactly one of two concurrent
// validations can consume a code.
type OtpsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewOtpsRepo(pool *pgxpool.Pool, prom *observability.Prom) *OtpsRepo {
	return &OtpsRepo{pool: pool, prom: prom}
}

func (r *OtpsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *OtpsRepo) Insert(ctx context.Context, rec otp.Record) error {
	return r.observe("otps.insert", func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO otps (id, email, purpose, code, used, created_at, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, rec.ID, rec.Email, string(rec.Purpose), rec.Code, rec.Used, rec.CreatedAt, rec.ExpiresAt)

		return err
	})
}

func (r *OtpsRepo) FindLatestUnused(ctx context.Context, email string, purpose otp.Purpose) (otp.Record, error) {
	var rec otp.Record
	var purposeStr string

	err := r.observe("otps.find_latest_unused", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT id, email, purpose, code, used, created_at, expires_at
			FROM otps
			WHERE email = $1 AND purpose = $2 AND used = FALSE
			ORDER BY created_at DESC
			LIMIT 1
		`, email, string(purpose)).Scan(
			&rec.ID, &rec.Email, &purposeStr, &rec.Code, &rec.Used, &rec.CreatedAt, &rec.ExpiresAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return otp.Record{}, otpengine.ErrNoActiveCode
		}
		return otp.Record{}, err
	}

	rec.Purpose = otp.Purpose(purposeStr)
	return rec, nil
}

func (r *OtpsRepo) MarkUsed(ctx context.Context, id string) error {
	var tag pgconn.CommandTag
	var err error

	err = r.observe("otps.mark_used", func() error {
		tag, err = r.pool.Exec(ctx, `
			UPDATE otps
			SET used = TRUE
			WHERE id = $1 AND used = FALSE
		`, id)
		return err
	})

	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return otpengine.ErrCodeConsumed
	}
	return nil
}

func (r *OtpsRepo) ExtendExpiry(ctx context.Context, id string, until time.Time) error {
	var tag pgconn.CommandTag
	var err error

	err = r.observe("otps.extend_expiry", func() error {
		tag, err = r.pool.Exec(ctx, `
			UPDATE otps
			SET expires_at = $2
			WHERE id = $1 AND used = FALSE
		`, id, until)
		return err
	})

	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return otpengine.ErrCodeConsumed
	}
	return nil
}

func (r *OtpsRepo) DeleteAll(ctx context.Context, email string, purpose otp.Purpose) error {
	return r.observe("otps.delete_all", func() error {
		_, err := r.pool.Exec(ctx, `
			DELETE FROM otps
			WHERE email = $1 AND purpose = $2
		`, email, string(purpose))

		return err
	})
}

// DeleteExpired is the worker's GC sweep. Correctness never depends on
// it; expiry is also checked on read.
func (r *OtpsRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	var tag pgconn.CommandTag
	var err error

	err = r.observe("otps.delete_expired", func() error {
		tag, err = r.pool.Exec(ctx, `
			DELETE FROM otps
			WHERE expires_at < $1
		`, now)
		return err
	})

	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
