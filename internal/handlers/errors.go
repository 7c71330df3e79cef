package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/kritsw/telemed/internal/models"
	pkghttp "github.com/kritsw/telemed/pkg/http"
)

// writeServiceError maps service-layer sentinels onto the wire envelope. The
// typed lock errors are matched first because they also satisfy errors.Is
// against their sentinel.
func writeServiceError(w http.ResponseWriter, err error) {
	var locked *models.LockedError
	var tooMany *models.TooManyAttemptsError

	switch {
	case errors.As(err, &locked):
		pkghttp.WriteError(w, http.StatusLocked, "ACCOUNT_LOCKED",
			fmt.Sprintf("account temporarily locked, try again in %d minutes", locked.MinutesLeft()))
	case errors.As(err, &tooMany):
		pkghttp.WriteError(w, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS",
			fmt.Sprintf("too many failed login attempts, account locked for %d minutes", int(math.Round(tooMany.LockedFor.Minutes()))))
	case errors.Is(err, models.ErrInvalidCredentials):
		pkghttp.WriteError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
	case errors.Is(err, models.ErrIPBlocked):
		pkghttp.WriteError(w, http.StatusTooManyRequests, "IP_BLOCKED", "too many failed attempts from this address, try again later")
	case errors.Is(err, models.ErrSlotNotFound):
		pkghttp.WriteError(w, http.StatusNotFound, "SLOT_NOT_FOUND", "slot not found")
	case errors.Is(err, models.ErrSlotNotAvailable):
		pkghttp.WriteError(w, http.StatusConflict, "SLOT_NOT_AVAILABLE", "slot is not available")
	case errors.Is(err, models.ErrSlotAlreadyBooked):
		pkghttp.WriteError(w, http.StatusConflict, "SLOT_ALREADY_BOOKED", "slot is already booked for that date")
	case errors.Is(err, models.ErrDateOutOfRange):
		pkghttp.WriteError(w, http.StatusBadRequest, "DATE_OUT_OF_RANGE", "chosen date is outside the slot range")
	case errors.Is(err, models.ErrBookingTooSoon):
		pkghttp.WriteError(w, http.StatusBadRequest, "BOOKING_TOO_SOON", "bookings must be made at least one day in advance")
	case errors.Is(err, models.ErrPatientAlreadyBooked):
		pkghttp.WriteError(w, http.StatusConflict, "PATIENT_ALREADY_BOOKED_ON_DATE", "you already have an appointment on that date")
	case errors.Is(err, models.ErrInvalidTimeRange):
		pkghttp.WriteError(w, http.StatusBadRequest, "INVALID_TIME_RANGE", "end must not be before start")
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteError(w, http.StatusConflict, "DUPLICATE", "resource already exists")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request")
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, "unauthorized")
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "insufficient permissions")
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "resource not found")
	default:
		pkghttp.WriteInternalError(w)
	}
}
