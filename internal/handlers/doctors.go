package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kritsw/telemed/internal/auth"
	"github.com/kritsw/telemed/internal/models"
	"github.com/kritsw/telemed/internal/services"
	pkghttp "github.com/kritsw/telemed/pkg/http"
)

// DoctorHandler exposes doctor search, the specialty catalog and slot
// publication/listing.
type DoctorHandler struct {
	users   *services.UserService
	booking *services.BookingService
	logger  *slog.Logger
}

func NewDoctorHandler(users *services.UserService, booking *services.BookingService, logger *slog.Logger) *DoctorHandler {
	return &DoctorHandler{
		users:   users,
		booking: booking,
		logger:  logger,
	}
}

// Search handles GET /doctors?q=&specialty_id=&specialty=
func (h *DoctorHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	results, err := h.users.SearchDoctors(r.Context(), q.Get("q"), q.Get("specialty_id"), q.Get("specialty"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{"doctors": results})
}

// ListSpecialties handles GET /specialties
func (h *DoctorHandler) ListSpecialties(w http.ResponseWriter, r *http.Request) {
	specs, err := h.users.ListSpecialties(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{"specialties": specs})
}

// CreateSlotRequest is the slot publication DTO. Bounds are dates
// (YYYY-MM-DD) or RFC 3339 timestamps.
type CreateSlotRequest struct {
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

// CreateSlot handles POST /doctors/{id}/slots. Doctors publish slots for
// themselves only.
func (h *DoctorHandler) CreateSlot(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	doctorID := chi.URLParam(r, "id")
	if doctorID != identity.UserID {
		pkghttp.WriteForbidden(w, "doctors can only manage their own slots")
		return
	}

	var req CreateSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	if details := ValidateRequest(&req); details != nil {
		pkghttp.WriteValidationError(w, details)
		return
	}

	slot, err := h.booking.CreateSlot(r.Context(), doctorID, req.StartTime, req.EndTime)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"id":         slot.ID,
		"doctor_id":  slot.DoctorID,
		"start_time": slot.StartTime,
		"end_time":   slot.EndTime,
		"status":     slot.Status,
	})
}

// ListSlots handles GET /doctors/{id}/slots?from=&to=
func (h *DoctorHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	doctorID := chi.URLParam(r, "id")

	from, ok := parseDayParam(w, r, "from")
	if !ok {
		return
	}
	to, ok := parseDayParam(w, r, "to")
	if !ok {
		return
	}

	days, err := h.booking.ListAvailability(r.Context(), doctorID, from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{"slots": days})
}

// parseDayParam reads an optional YYYY-MM-DD query parameter. On a malformed
// value it writes the validation error and reports false.
func parseDayParam(w http.ResponseWriter, r *http.Request, name string) (*time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}

	day, err := time.ParseInLocation(models.DateLayout, raw, time.Local)
	if err != nil {
		pkghttp.WriteValidationError(w, []pkghttp.FieldError{
			{Field: name, Message: "must be a date formatted as 2006-01-02"},
		})
		return nil, false
	}
	return &day, true
}
