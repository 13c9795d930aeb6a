package user

import (
	"errors"
	"strings"
	"time"
)

// Store sentinels, shared by the postgres and in-memory repos.
var (
	ErrNotFound      = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already registered")
)

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleTrainer  Role = "TRAINER"
	RoleAdmin    Role = "ADMIN"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleTrainer, RoleAdmin:
		return true
	default:
		return false
	}
}

// ResolveRole maps a self-declared registration hint to a role.
// Only TRAINER can be self-assigned; anything else is a customer.
// Admin is seeded at boot, never chosen at registration.
func ResolveRole(hint string) Role {
	if strings.EqualFold(strings.TrimSpace(hint), string(RoleTrainer)) {
		return RoleTrainer
	}

	return RoleCustomer
}

type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"` // never expose hash in JSON
	FullName      string    `json:"fullName"`
	Role          Role      `json:"role"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
