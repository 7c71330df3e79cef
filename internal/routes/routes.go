package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/kritsw/telemed/internal/auth"
	"github.com/kritsw/telemed/internal/handlers"
	"github.com/kritsw/telemed/internal/middleware"
	"github.com/kritsw/telemed/internal/models"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	doctorHandler *handlers.DoctorHandler,
	appointmentHandler *handlers.AppointmentHandler,
	tokenManager *auth.TokenManager,
) {
	loginLimit := middleware.DefaultLoginRateLimit()

	// Public routes - no authentication required
	router.Post("/auth/register", authHandler.Register)
	router.With(middleware.RateLimitByIP(loginLimit)).Post("/auth/login", authHandler.Login)
	router.Get("/specialties", doctorHandler.ListSpecialties)
	router.Get("/doctors", doctorHandler.Search)
	router.Get("/doctors/{id}/slots", doctorHandler.ListSlots)

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokenManager))
		r.Get("/users/me", userHandler.Me)
		r.Put("/users/me", userHandler.UpdateMe)
		r.Get("/appointments/me", appointmentHandler.ListMine)
	})

	// Patient-only routes
	router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokenManager, models.RolePatient))
		r.Post("/appointments", appointmentHandler.Book)
	})

	// Doctor-only routes
	router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokenManager, models.RoleDoctor))
		r.Post("/doctors/{id}/slots", doctorHandler.CreateSlot)
		r.Patch("/appointments/{id}/status", appointmentHandler.UpdateStatus)
	})
}
