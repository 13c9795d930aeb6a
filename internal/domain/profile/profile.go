package profile

import (
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("fitness profile not found")

// FitnessProfile stores a customer's health details, one per user.
type FitnessProfile struct {
	ID            string   `json:"id"`
	UserID        string   `json:"userId"`
	Age           *int     `json:"age,omitempty"`
	WeightKg      *float64 `json:"weight,omitempty"`
	HeightCm      *float64 `json:"height,omitempty"`
	Gender        *string  `json:"gender,omitempty"`
	FitnessGoal   *string  `json:"fitnessGoal,omitempty"`   // WEIGHT_LOSS, MUSCLE_GAIN, GENERAL_HEALTH, ENDURANCE, FLEXIBILITY
	ActivityLevel *string  `json:"activityLevel,omitempty"` // SEDENTARY, LIGHTLY_ACTIVE, MODERATELY_ACTIVE, VERY_ACTIVE
	MedicalNotes  *string  `json:"medicalNotes,omitempty"`
}

func New(userID string) FitnessProfile {
	return FitnessProfile{
		ID:     uuid.NewString(),
		UserID: userID,
	}
}

// BMI returns weight/height² or 0 when either measure is missing.
func (p FitnessProfile) BMI() float64 {
	if p.WeightKg == nil || p.HeightCm == nil || *p.HeightCm <= 0 {
		return 0
	}

	m := *p.HeightCm / 100

	return *p.WeightKg / (m * m)
}
