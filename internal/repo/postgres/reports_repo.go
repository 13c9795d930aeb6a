package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wellnest/wellnest/internal/domain/report"
	"github.com/wellnest/wellnest/internal/observability"
)

type ReportsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewReportsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ReportsRepo {
	return &ReportsRepo{pool: pool, prom: prom}
}

func (r *ReportsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

const reportColumns = `id, customer_id, customer_name, customer_email, trainer_id, trainer_name, trainer_email, message, status, created_at, resolved_at, resolved_by`

func scanReport(row pgx.Row) (report.Report, error) {
	var rep report.Report
	var status string

	err := row.Scan(
		&rep.ID, &rep.CustomerID, &rep.CustomerName, &rep.CustomerEmail,
		&rep.TrainerID, &rep.TrainerName, &rep.TrainerEmail,
		&rep.Message, &status, &rep.CreatedAt, &rep.ResolvedAt, &rep.ResolvedBy,
	)

	if err != nil {
		return report.Report{}, err
	}

	rep.Status = report.Status(status)
	return rep, nil
}

func (r *ReportsRepo) Create(ctx context.Context, rep report.Report) (report.Report, error) {
	err := r.observe("reports.create", func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO reports (`+reportColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`,
			rep.ID, rep.CustomerID, rep.CustomerName, rep.CustomerEmail,
			rep.TrainerID, rep.TrainerName, rep.TrainerEmail,
			rep.Message, string(rep.Status), rep.CreatedAt, rep.ResolvedAt, rep.ResolvedBy,
		)
		return err
	})

	if err != nil {
		return report.Report{}, err
	}
	return rep, nil
}

func (r *ReportsRepo) GetByID(ctx context.Context, id string) (report.Report, error) {
	var rep report.Report
	var err error

	err = r.observe("reports.get_by_id", func() error {
		rep, err = scanReport(r.pool.QueryRow(ctx, `
			SELECT `+reportColumns+`
			FROM reports
			WHERE id = $1
		`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return report.Report{}, report.ErrNotFound
		}
		return report.Report{}, err
	}
	return rep, nil
}

func (r *ReportsRepo) list(ctx context.Context, op, where string, args ...any) ([]report.Report, error) {
	var out []report.Report

	err := r.observe(op, func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT `+reportColumns+`
			FROM reports
			`+where+`
			ORDER BY created_at DESC
		`, args...)

		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			rep, err := scanReport(rows)

			if err != nil {
				return err
			}
			out = append(out, rep)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ReportsRepo) ListAll(ctx context.Context) ([]report.Report, error) {
	return r.list(ctx, "reports.list_all", "")
}

func (r *ReportsRepo) ListByStatus(ctx context.Context, status report.Status) ([]report.Report, error) {
	return r.list(ctx, "reports.list_by_status", "WHERE status = $1", string(status))
}

func (r *ReportsRepo) ListByCustomer(ctx context.Context, customerID string) ([]report.Report, error) {
	return r.list(ctx, "reports.list_by_customer", "WHERE customer_id = $1", customerID)
}

func (r *ReportsRepo) ListByTrainer(ctx context.Context, trainerID string) ([]report.Report, error) {
	return r.list(ctx, "reports.list_by_trainer", "WHERE trainer_id = $1", trainerID)
}

func (r *ReportsRepo) CountByStatus(ctx context.Context, status report.Status) (int, error) {
	var n int

	err := r.observe("reports.count_by_status", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM reports WHERE status = $1`, string(status),
		).Scan(&n)
	})

	return n, err
}

func (r *ReportsRepo) Count(ctx context.Context) (int, error) {
	var n int

	err := r.observe("reports.count", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reports`).Scan(&n)
	})

	return n, err
}

// UpdateStatus stamps resolved_at/resolved_by for terminal statuses and
// clears them when a report is reopened.
func (r *ReportsRepo) UpdateStatus(ctx context.Context, id string, status report.Status, resolvedBy *string, resolvedAt *time.Time) (report.Report, error) {
	var rep report.Report
	var err error

	err = r.observe("reports.update_status", func() error {
		rep, err = scanReport(r.pool.QueryRow(ctx, `
			UPDATE reports
			SET status = $2,
			    resolved_at = $3,
			    resolved_by = $4
			WHERE id = $1
			RETURNING `+reportColumns+`
		`, id, string(status), resolvedAt, resolvedBy))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return report.Report{}, report.ErrNotFound
		}
		return report.Report{}, err
	}
	return rep, nil
}

func (r *ReportsRepo) Delete(ctx context.Context, id string) error {
	var tag pgconn.CommandTag
	var err error

	err = r.observe("reports.delete", func() error {
		tag, err = r.pool.Exec(ctx, `DELETE FROM reports WHERE id = $1`, id)
		return err
	})

	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return report.ErrNotFound
	}
	return nil
}
