package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kritsw/telemed/internal/auth"
	"github.com/kritsw/telemed/internal/services"
	pkghttp "github.com/kritsw/telemed/pkg/http"
)

// AppointmentHandler exposes booking, status updates and listings.
type AppointmentHandler struct {
	booking *services.BookingService
	logger  *slog.Logger
}

func NewAppointmentHandler(booking *services.BookingService, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		booking: booking,
		logger:  logger,
	}
}

// BookRequest is the booking DTO.
type BookRequest struct {
	SlotID     string `json:"slot_id" validate:"required,uuid"`
	ChosenDate string `json:"chosen_date" validate:"required,datetime=2006-01-02"`
}

// Book handles POST /appointments (patients only).
func (h *AppointmentHandler) Book(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	if details := ValidateRequest(&req); details != nil {
		pkghttp.WriteValidationError(w, details)
		return
	}

	appt, err := h.booking.BookAppointment(r.Context(), identity.UserID, req.SlotID, req.ChosenDate)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"id":          appt.ID,
		"patient_id":  appt.PatientID,
		"doctor_id":   appt.DoctorID,
		"slot_id":     appt.SlotID,
		"chosen_date": appt.ChosenDay(),
		"status":      appt.Status,
	})
}

// UpdateStatusRequest is the status transition DTO.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed rejected cancelled"`
}

// UpdateStatus handles PATCH /appointments/{id}/status (doctors only).
func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	if details := ValidateRequest(&req); details != nil {
		pkghttp.WriteValidationError(w, details)
		return
	}

	appt, err := h.booking.UpdateStatus(r.Context(), identity.UserID, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"id":          appt.ID,
		"patient_id":  appt.PatientID,
		"doctor_id":   appt.DoctorID,
		"slot_id":     appt.SlotID,
		"chosen_date": appt.ChosenDay(),
		"status":      appt.Status,
	})
}

// ListMine handles GET /appointments/me
func (h *AppointmentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	views, err := h.booking.ListAppointments(r.Context(), identity.UserID, identity.Role)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{"appointments": views})
}
