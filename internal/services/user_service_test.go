package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/kritsw/telemed/internal/models"
	"github.com/kritsw/telemed/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_GetProfile_NotFound(t *testing.T) {
	svc := NewUserService(&MockProfileRepository{}, &MockSpecialtyRepository{}, slog.Default())

	profile, err := svc.GetProfile(context.Background(), "missing")

	assert.Nil(t, profile)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserService_UpdateProfile_PassesFieldsThrough(t *testing.T) {
	var gotFullName, gotPhone *string
	repo := &MockProfileRepository{
		UpdateProfileFunc: func(ctx context.Context, id string, fullName, phone *string) (*models.User, error) {
			gotFullName, gotPhone = fullName, phone
			return &models.User{ID: id, FullName: *fullName, Phone: phone}, nil
		},
	}
	svc := NewUserService(repo, &MockSpecialtyRepository{}, slog.Default())

	name := "New Name"
	phone := "+33612345678"
	profile, err := svc.UpdateProfile(context.Background(), "user123", &name, &phone)

	require.NoError(t, err)
	assert.Equal(t, "New Name", profile.FullName)
	require.NotNil(t, gotFullName)
	assert.Equal(t, name, *gotFullName)
	require.NotNil(t, gotPhone)
	assert.Equal(t, phone, *gotPhone)
}

func TestUserService_SearchDoctors_AttachesSpecialties(t *testing.T) {
	repo := &MockProfileRepository{
		SearchDoctorsFunc: func(ctx context.Context, nameQuery, specialtyID, specialtyName string) ([]*repositories.DoctorSummary, error) {
			return []*repositories.DoctorSummary{
				{ID: "doc1", FullName: "Dr. Who", Email: "who@example.com"},
			}, nil
		},
	}
	specs := &MockSpecialtyRepository{
		ListForDoctorFunc: func(ctx context.Context, doctorID string) ([]*models.Specialty, error) {
			return []*models.Specialty{{ID: "spec1", Name: "Cardiology"}}, nil
		},
	}
	svc := NewUserService(repo, specs, slog.Default())

	results, err := svc.SearchDoctors(context.Background(), "who", "", "")

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc1", results[0].ID)
	require.Len(t, results[0].Specialties, 1)
	assert.Equal(t, "Cardiology", results[0].Specialties[0].Name)
}
