package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kritsw/telemed/internal/models"
	"github.com/kritsw/telemed/internal/repositories"
)

// ProfileRepository defines the account operations the profile flows need.
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, fullName, phone *string) (*models.User, error)
	SearchDoctors(ctx context.Context, nameQuery, specialtyID, specialtyName string) ([]*repositories.DoctorSummary, error)
}

// SpecialtyRepository defines the specialty catalog operations.
type SpecialtyRepository interface {
	List(ctx context.Context) ([]*models.Specialty, error)
	ListForDoctor(ctx context.Context, doctorID string) ([]*models.Specialty, error)
}

// UserService handles profiles, the specialty catalog and doctor search.
type UserService struct {
	repo        ProfileRepository
	specialties SpecialtyRepository
	logger      *slog.Logger
}

func NewUserService(repo ProfileRepository, specialties SpecialtyRepository, logger *slog.Logger) *UserService {
	return &UserService{
		repo:        repo,
		specialties: specialties,
		logger:      logger,
	}
}

// GetProfile returns the caller's own account.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*UserSummary, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return userToSummary(user), nil
}

// UpdateProfile applies the provided fields to the caller's account. Nil
// means leave unchanged; a non-nil empty phone clears the stored number.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, fullName, phone *string) (*UserSummary, error) {
	user, err := s.repo.UpdateProfile(ctx, userID, fullName, phone)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to update profile", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("profile updated", slog.String("user_id", userID))
	return userToSummary(user), nil
}

// DoctorResult is a doctor search hit with their specialties attached.
type DoctorResult struct {
	ID          string              `json:"id"`
	FullName    string              `json:"full_name"`
	Email       string              `json:"email"`
	Phone       *string             `json:"phone,omitempty"`
	Specialties []*models.Specialty `json:"specialties"`
}

// SearchDoctors finds doctors by (partial) name and/or specialty.
func (s *UserService) SearchDoctors(ctx context.Context, nameQuery, specialtyID, specialtyName string) ([]*DoctorResult, error) {
	doctors, err := s.repo.SearchDoctors(ctx, nameQuery, specialtyID, specialtyName)
	if err != nil {
		s.logger.Error("failed to search doctors", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	results := make([]*DoctorResult, 0, len(doctors))
	for _, d := range doctors {
		specs, err := s.specialties.ListForDoctor(ctx, d.ID)
		if err != nil {
			s.logger.Error("failed to list doctor specialties", slog.String("doctor_id", d.ID), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		results = append(results, &DoctorResult{
			ID:          d.ID,
			FullName:    d.FullName,
			Email:       d.Email,
			Phone:       d.Phone,
			Specialties: specs,
		})
	}
	return results, nil
}

// ListSpecialties returns the full specialty catalog.
func (s *UserService) ListSpecialties(ctx context.Context) ([]*models.Specialty, error) {
	specs, err := s.specialties.List(ctx)
	if err != nil {
		s.logger.Error("failed to list specialties", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return specs, nil
}
