package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/kritsw/telemed/internal/models"
	"github.com/kritsw/telemed/internal/services"
	pkghttp "github.com/kritsw/telemed/pkg/http"
)

// AuthHandler exposes registration and login.
type AuthHandler struct {
	service  *services.AuthService
	ipConfig *pkghttp.IPConfig
	logger   *slog.Logger
}

func NewAuthHandler(service *services.AuthService, ipConfig *pkghttp.IPConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service:  service,
		ipConfig: ipConfig,
		logger:   logger,
	}
}

// RegisterRequest is the registration DTO.
type RegisterRequest struct {
	Role         string   `json:"role" validate:"required,oneof=patient doctor"`
	FullName     string   `json:"full_name" validate:"required,min=2,max=100"`
	Email        string   `json:"email" validate:"required,email"`
	Phone        *string  `json:"phone,omitempty" validate:"omitempty,min=6,max=20"`
	Password     string   `json:"password" validate:"required,min=4,max=128"`
	SpecialtyIDs []string `json:"specialty_ids,omitempty" validate:"omitempty,dive,uuid"`
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	if details := ValidateRequest(&req); details != nil {
		pkghttp.WriteValidationError(w, details)
		return
	}
	if req.Role == models.RoleDoctor && len(req.SpecialtyIDs) == 0 {
		pkghttp.WriteValidationError(w, []pkghttp.FieldError{
			{Field: "specialty_ids", Message: "doctors must list at least one specialty"},
		})
		return
	}

	user, err := h.service.Register(r.Context(), services.RegisterInput{
		Role:         req.Role,
		FullName:     req.FullName,
		Email:        req.Email,
		Phone:        req.Phone,
		Password:     req.Password,
		SpecialtyIDs: req.SpecialtyIDs,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, user)
}

// LoginRequest is the login DTO.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	if details := ValidateRequest(&req); details != nil {
		pkghttp.WriteValidationError(w, details)
		return
	}

	ip := pkghttp.ExtractClientIP(r, h.ipConfig)
	resp, err := h.service.Login(r.Context(), req.Email, req.Password, ip)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}
