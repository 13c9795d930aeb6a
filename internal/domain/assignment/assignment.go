package assignment

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("assignment not found")

// Assignment links a trainee to a trainer for one calendar day.
// Unique on (trainee_id, date): one trainer per trainee per day,
// re-selecting replaces the trainer on the existing row.
type Assignment struct {
	ID        string    `json:"id"`
	TraineeID string    `json:"traineeId"`
	TrainerID string    `json:"trainerId"`
	Date      time.Time `json:"date"` // date only, UTC midnight
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

func New(traineeID, trainerID string, date time.Time) Assignment {
	return Assignment{
		ID:        uuid.NewString(),
		TraineeID: traineeID,
		TrainerID: trainerID,
		Date:      Day(date),
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
}

// Day truncates a timestamp to its UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
