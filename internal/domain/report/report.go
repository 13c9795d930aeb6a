package report

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("report not found")

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusResolved  Status = "RESOLVED"
	StatusDismissed Status = "DISMISSED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusResolved, StatusDismissed:
		return true
	default:
		return false
	}
}

// Terminal statuses stamp resolved_at/resolved_by.
func (s Status) IsTerminal() bool {
	return s == StatusResolved || s == StatusDismissed
}

// Report is a customer complaint against a trainer. Names and emails
// are denormalized at creation time so the report survives account
// deletion.
type Report struct {
	ID            string     `json:"id"`
	CustomerID    string     `json:"customerId"`
	CustomerName  string     `json:"customerName"`
	CustomerEmail string     `json:"customerEmail"`
	TrainerID     string     `json:"trainerId"`
	TrainerName   string     `json:"trainerName"`
	TrainerEmail  string     `json:"trainerEmail"`
	Message       string     `json:"message"`
	Status        Status     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	ResolvedAt    *time.Time `json:"resolvedAt,omitempty"`
	ResolvedBy    *string    `json:"resolvedBy,omitempty"`
}

func New(customerID, customerName, customerEmail, trainerID, trainerName, trainerEmail, message string) Report {
	return Report{
		ID:            uuid.NewString(),
		CustomerID:    customerID,
		CustomerName:  customerName,
		CustomerEmail: customerEmail,
		TrainerID:     trainerID,
		TrainerName:   trainerName,
		TrainerEmail:  trainerEmail,
		Message:       message,
		Status:        StatusPending,
		CreatedAt:     time.Now().UTC(),
	}
}
