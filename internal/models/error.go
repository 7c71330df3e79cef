package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Login failures
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is temporarily locked")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
	ErrIPBlocked          = errors.New("ip address is temporarily blocked")

	// Booking failures
	ErrSlotNotFound         = errors.New("slot not found")
	ErrSlotNotAvailable     = errors.New("slot is not available")
	ErrSlotAlreadyBooked    = errors.New("slot is already booked for that date")
	ErrDateOutOfRange       = errors.New("chosen date is outside the slot range")
	ErrBookingTooSoon       = errors.New("bookings must be made at least one day in advance")
	ErrPatientAlreadyBooked = errors.New("patient already has an appointment on that date")
	ErrInvalidTimeRange     = errors.New("invalid time range")
)

// LockedError reports how long an account lock has left to run.
// errors.Is(err, ErrAccountLocked) matches it.
type LockedError struct {
	Until time.Time
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account is temporarily locked, try again in %d minutes", e.MinutesLeft())
}

func (e *LockedError) Is(target error) bool { return target == ErrAccountLocked }

// MinutesLeft returns the remaining lock time rounded up to whole minutes.
func (e *LockedError) MinutesLeft() int {
	left := time.Until(e.Until)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Minutes()))
}

// TooManyAttemptsError carries the duration of a freshly applied lock.
// errors.Is(err, ErrTooManyAttempts) matches it.
type TooManyAttemptsError struct {
	LockedFor time.Duration
}

func (e *TooManyAttemptsError) Error() string {
	return fmt.Sprintf("too many failed login attempts, account locked for %d minutes", int(math.Round(e.LockedFor.Minutes())))
}

func (e *TooManyAttemptsError) Is(target error) bool { return target == ErrTooManyAttempts }
