package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wellnest/wellnest/internal/config"
	"github.com/wellnest/wellnest/internal/domain/user"
	"github.com/wellnest/wellnest/internal/security"
)

// EnsureAdminUser creates the bootstrap admin account on first start. The
// account is born verified so it can log in without an OTP round trip.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	// check if the user exists

	var dummy string

	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1 OR username = $2`,
		cfg.AdminEmail, cfg.AdminUsername).Scan(&dummy)

	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	now := time.Now().UTC()

	u := user.User{
		ID:            uuid.NewString(),
		Username:      cfg.AdminUsername,
		Email:         cfg.AdminEmail,
		PasswordHash:  hash,
		FullName:      cfg.AdminName,
		Role:          user.RoleAdmin,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO users (id, username, email, password_hash, full_name, role, email_verified, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.FullName, u.Role, u.EmailVerified, u.CreatedAt, u.UpdatedAt,
	)

	return err
}
