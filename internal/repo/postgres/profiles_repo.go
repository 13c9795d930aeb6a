package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wellnest/wellnest/internal/domain/profile"
	"github.com/wellnest/wellnest/internal/observability"
)

type ProfilesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewProfilesRepo(pool *pgxpool.Pool, prom *observability.Prom) *ProfilesRepo {
	return &ProfilesRepo{pool: pool, prom: prom}
}

func (r *ProfilesRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *ProfilesRepo) GetByUserID(ctx context.Context, userID string) (profile.FitnessProfile, error) {
	var p profile.FitnessProfile

	err := r.observe("profiles.get_by_user", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT id, user_id, age, weight_kg, height_cm, gender, fitness_goal, activity_level, medical_notes
			FROM fitness_profiles
			WHERE user_id = $1
		`, userID).Scan(
			&p.ID, &p.UserID, &p.Age, &p.WeightKg, &p.HeightCm, &p.Gender, &p.FitnessGoal, &p.ActivityLevel, &p.MedicalNotes,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return profile.FitnessProfile{}, profile.ErrNotFound
		}
		return profile.FitnessProfile{}, err
	}
	return p, nil
}

// Save upserts on the unique user_id, one profile per user.
func (r *ProfilesRepo) Save(ctx context.Context, p profile.FitnessProfile) (profile.FitnessProfile, error) {
	err := r.observe("profiles.save", func() error {
		return r.pool.QueryRow(ctx, `
			INSERT INTO fitness_profiles (id, user_id, age, weight_kg, height_cm, gender, fitness_goal, activity_level, medical_notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (user_id) DO UPDATE
			SET age = EXCLUDED.age,
			    weight_kg = EXCLUDED.weight_kg,
			    height_cm = EXCLUDED.height_cm,
			    gender = EXCLUDED.gender,
			    fitness_goal = EXCLUDED.fitness_goal,
			    activity_level = EXCLUDED.activity_level,
			    medical_notes = EXCLUDED.medical_notes
			RETURNING id
		`, p.ID, p.UserID, p.Age, p.WeightKg, p.HeightCm, p.Gender, p.FitnessGoal, p.ActivityLevel, p.MedicalNotes,
		).Scan(&p.ID)
	})

	if err != nil {
		return profile.FitnessProfile{}, err
	}
	return p, nil
}

func (r *ProfilesRepo) DeleteByUserID(ctx context.Context, userID string) error {
	return r.observe("profiles.delete_by_user", func() error {
		_, err := r.pool.Exec(ctx, `DELETE FROM fitness_profiles WHERE user_id = $1`, userID)
		return err
	})
}
