package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/kritsw/telemed/internal/auth"
	"github.com/kritsw/telemed/internal/services"
	pkghttp "github.com/kritsw/telemed/pkg/http"
)

// UserHandler exposes the caller's own profile.
type UserHandler struct {
	service *services.UserService
	logger  *slog.Logger
}

func NewUserHandler(service *services.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

// Me handles GET /users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	profile, err := h.service.GetProfile(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, profile)
}

// UpdateMeRequest is the profile update DTO. Absent fields are left unchanged.
type UpdateMeRequest struct {
	FullName *string `json:"full_name,omitempty" validate:"omitempty,min=2,max=100"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=20"`
}

// UpdateMe handles PUT /users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	var req UpdateMeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	if details := ValidateRequest(&req); details != nil {
		pkghttp.WriteValidationError(w, details)
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), identity.UserID, req.FullName, req.Phone)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, profile)
}
