package otp

import (
	"time"

	"github.com/google/uuid"
)

type Purpose string

const (
	PurposeEmailVerification Purpose = "EMAIL_VERIFICATION"
	PurposePasswordReset     Purpose = "PASSWORD_RESET"
)

func (p Purpose) IsValid() bool {
	switch p {
	case PurposeEmailVerification, PurposePasswordReset:
		return true
	default:
		return false
	}
}

// Record is one issued code. At most one unused, unexpired record per
// (email, purpose) is ever consulted as "the" active code; generation
// deletes all prior records for the pair before inserting.
type Record struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Purpose   Purpose   `json:"purpose"`
	Code      string    `json:"-"` // never serialize the code
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func NewRecord(email string, purpose Purpose, code string, ttl time.Duration) Record {
	now := time.Now().UTC()

	return Record{
		ID:        uuid.NewString(),
		Email:     email,
		Purpose:   purpose,
		Code:      code,
		Used:      false,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func (r Record) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
