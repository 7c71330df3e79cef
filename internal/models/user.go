package models

import (
	"time"
)

// User roles
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
)

type User struct {
	ID           string
	Role         string // "patient" or "doctor"
	FullName     string
	Email        string
	Phone        *string
	PasswordHash string

	// Brute-force defense state. FailedLoginAttempts counts consecutive
	// wrong-password attempts; LockCount counts how many times the account
	// has been locked and drives lockout escalation. Both reset to zero on
	// a successful login.
	FailedLoginAttempts int
	LockCount           int
	LockedUntil         *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Locked reports whether the account is locked at the given instant.
func (u *User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// Specialty is a medical specialty a doctor can be registered under.
type Specialty struct {
	ID   string
	Name string
}
