package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wellnest/wellnest/internal/domain/user"
	"github.com/wellnest/wellnest/internal/observability"
)

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}

// UsersRepo persists users. Username and email uniqueness lives in the
// unique indexes, not in handler existence checks; the insert path maps
// constraint violations back to domain sentinels so check-then-act
// races still come out as the right error.
type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

const userColumns = `id, username, email, password_hash, full_name, role, email_verified, created_at, updated_at`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	var role string

	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.FullName,
		&role,
		&u.EmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		return user.User{}, err
	}

	u.Role = user.Role(role)
	return u, nil
}

func (r *UsersRepo) GetByUsernameOrEmail(ctx context.Context, identifier string) (user.User, error) {
	var u user.User
	var err error

	err = r.observe("users.get_by_identifier", func() error {
		u, err = scanUser(r.pool.QueryRow(ctx, `
			SELECT `+userColumns+`
			FROM users
			WHERE username = $1 OR email = $1
		`, identifier))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User
	var err error

	err = r.observe("users.get_by_email", func() error {
		u, err = scanUser(r.pool.QueryRow(ctx, `
			SELECT `+userColumns+`
			FROM users
			WHERE email = $1
		`, email))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User
	var err error

	err = r.observe("users.get_by_id", func() error {
		u, err = scanUser(r.pool.QueryRow(ctx, `
			SELECT `+userColumns+`
			FROM users
			WHERE id = $1
		`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool

	err := r.observe("users.exists_by_username", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`,
			username,
		).Scan(&exists)
	})

	return exists, err
}

func (r *UsersRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool

	err := r.observe("users.exists_by_email", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`,
			email,
		).Scan(&exists)
	})

	return exists, err
}

// Save inserts or updates by id. updated_at is stamped here so every
// orchestrator-issued mutation moves it.
func (r *UsersRepo) Save(ctx context.Context, u user.User) (user.User, error) {
	err := r.observe("users.save", func() error {
		return r.pool.QueryRow(ctx, `
			INSERT INTO users (id, username, email, password_hash, full_name, role, email_verified, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
			ON CONFLICT (id) DO UPDATE
			SET username = EXCLUDED.username,
			    email = EXCLUDED.email,
			    password_hash = EXCLUDED.password_hash,
			    full_name = EXCLUDED.full_name,
			    email_verified = EXCLUDED.email_verified,
			    updated_at = NOW()
			RETURNING updated_at
		`,
			u.ID, u.Username, u.Email, u.PasswordHash, u.FullName, string(u.Role), u.EmailVerified, u.CreatedAt,
		).Scan(&u.UpdatedAt)
	})

	if err != nil {
		if IsUniqueViolation(err) {
			var pgErr *pgconn.PgError
			errors.As(err, &pgErr)

			if strings.Contains(pgErr.ConstraintName, "email") {
				return user.User{}, user.ErrEmailTaken
			}
			return user.User{}, user.ErrUsernameTaken
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	var tag pgconn.CommandTag
	var err error

	err = r.observe("users.delete", func() error {
		tag, err = r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		return err
	})

	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *UsersRepo) ListByRole(ctx context.Context, role user.Role) ([]user.User, error) {
	var out []user.User

	err := r.observe("users.list_by_role", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT `+userColumns+`
			FROM users
			WHERE role = $1
			ORDER BY created_at DESC
		`, string(role))

		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)

			if err != nil {
				return err
			}
			out = append(out, u)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *UsersRepo) CountByRole(ctx context.Context, role user.Role) (int, error) {
	var n int

	err := r.observe("users.count_by_role", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM users WHERE role = $1`, string(role),
		).Scan(&n)
	})

	return n, err
}
