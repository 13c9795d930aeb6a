package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wellnest/wellnest/internal/domain/assignment"
	"github.com/wellnest/wellnest/internal/observability"
)

// AssignmentsRepo tracks trainee→trainer selections. The unique index
// on (trainee_id, date) enforces one trainer per trainee per day; the
// upsert replaces the trainer when a trainee re-selects.
type AssignmentsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewAssignmentsRepo(pool *pgxpool.Pool, prom *observability.Prom) *AssignmentsRepo {
	return &AssignmentsRepo{pool: pool, prom: prom}
}

func (r *AssignmentsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// Upsert writes the day's assignment, replacing any existing trainer
// for that (trainee, date). Returns true when a prior row was replaced.
func (r *AssignmentsRepo) Upsert(ctx context.Context, a assignment.Assignment) (replaced bool, err error) {
	err = r.observe("assignments.upsert", func() error {
		var inserted bool

		err := r.pool.QueryRow(ctx, `
			INSERT INTO trainer_assignments (id, trainee_id, trainer_id, date, active, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (trainee_id, date) DO UPDATE
			SET trainer_id = EXCLUDED.trainer_id,
			    active = TRUE
			RETURNING (xmax = 0)
		`, a.ID, a.TraineeID, a.TrainerID, a.Date, a.Active, a.CreatedAt).Scan(&inserted)

		if err != nil {
			return err
		}

		replaced = !inserted
		return nil
	})

	return replaced, err
}

func (r *AssignmentsRepo) GetByTraineeAndDate(ctx context.Context, traineeID string, date time.Time) (assignment.Assignment, error) {
	var a assignment.Assignment

	err := r.observe("assignments.get_by_trainee_date", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT id, trainee_id, trainer_id, date, active, created_at
			FROM trainer_assignments
			WHERE trainee_id = $1 AND date = $2
		`, traineeID, assignment.Day(date)).Scan(
			&a.ID, &a.TraineeID, &a.TrainerID, &a.Date, &a.Active, &a.CreatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return assignment.Assignment{}, assignment.ErrNotFound
		}
		return assignment.Assignment{}, err
	}
	return a, nil
}

func (r *AssignmentsRepo) ListActiveByTrainer(ctx context.Context, trainerID string) ([]assignment.Assignment, error) {
	var out []assignment.Assignment

	err := r.observe("assignments.list_active_by_trainer", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT id, trainee_id, trainer_id, date, active, created_at
			FROM trainer_assignments
			WHERE trainer_id = $1 AND active = TRUE
			ORDER BY date DESC
		`, trainerID)

		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var a assignment.Assignment

			err := rows.Scan(&a.ID, &a.TraineeID, &a.TrainerID, &a.Date, &a.Active, &a.CreatedAt)

			if err != nil {
				return err
			}
			out = append(out, a)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *AssignmentsRepo) CountActiveByTrainer(ctx context.Context, trainerID string) (int, error) {
	var n int

	err := r.observe("assignments.count_active_by_trainer", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT COUNT(*) FROM trainer_assignments
			WHERE trainer_id = $1 AND active = TRUE
		`, trainerID).Scan(&n)
	})

	return n, err
}

func (r *AssignmentsRepo) CountActive(ctx context.Context) (int, error) {
	var n int

	err := r.observe("assignments.count_active", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM trainer_assignments WHERE active = TRUE`,
		).Scan(&n)
	})

	return n, err
}

// DeleteAllForUser removes assignments where the user appears on either
// side, used when an admin deletes an account.
func (r *AssignmentsRepo) DeleteAllForUser(ctx context.Context, userID string) error {
	return r.observe("assignments.delete_all_for_user", func() error {
		_, err := r.pool.Exec(ctx, `
			DELETE FROM trainer_assignments
			WHERE trainee_id = $1 OR trainer_id = $1
		`, userID)
		return err
	})
}
