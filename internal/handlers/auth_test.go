package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kritsw/telemed/internal/auth"
	"github.com/kritsw/telemed/internal/ipblock"
	"github.com/kritsw/telemed/internal/models"
	"github.com/kritsw/telemed/internal/services"
	pkghttp "github.com/kritsw/telemed/pkg/http"
	pkglogger "github.com/kritsw/telemed/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthHandlerForTest(repo services.UserRepository) *AuthHandler {
	logger := slog.Default()
	svc := services.NewAuthService(
		repo,
		&services.MockSpecialtyAssigner{},
		ipblock.NewMemoryRegistry(),
		auth.NewTokenManager("test-secret-0123456789abcdef0123456789abcdef", 2*time.Hour),
		auth.NewEnumerationDelay(0),
		logger,
		pkglogger.NewAuditLogger(logger),
	)
	return NewAuthHandler(svc, &pkghttp.IPConfig{}, logger)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) pkghttp.ErrorResponse {
	t.Helper()
	var resp pkghttp.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestAuthHandler_Login_InvalidBody(t *testing.T) {
	h := newAuthHandlerForTest(&services.MockUserRepository{})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rec).Error.Code)
}

func TestAuthHandler_Login_MissingFields(t *testing.T) {
	h := newAuthHandlerForTest(&services.MockUserRepository{})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":"not-an-email"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.NotEmpty(t, resp.Error.Details)
}

func TestAuthHandler_Login_UnknownEmail(t *testing.T) {
	h := newAuthHandlerForTest(&services.MockUserRepository{})

	body := `{"email":"nobody@example.com","password":"whatever"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decodeError(t, rec).Error.Code)
}

func TestAuthHandler_Login_LockedAccount(t *testing.T) {
	user := services.NewTestUser("user123", "patient@example.com", "correct-horse")
	lockedUntil := time.Now().Add(45 * time.Minute)
	user.LockedUntil = &lockedUntil

	h := newAuthHandlerForTest(&services.MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	})

	body := `{"email":"patient@example.com","password":"correct-horse"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusLocked, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "ACCOUNT_LOCKED", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "45 minutes")
}

func TestAuthHandler_Login_Success(t *testing.T) {
	user := services.NewTestUser("user123", "patient@example.com", "correct-horse")
	h := newAuthHandlerForTest(&services.MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	})

	body := `{"email":"patient@example.com","password":"correct-horse"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp services.LoginResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "user123", resp.User.ID)
}

func TestAuthHandler_Register_DoctorWithoutSpecialties(t *testing.T) {
	h := newAuthHandlerForTest(&services.MockUserRepository{})

	body := `{"role":"doctor","full_name":"Dr. Strange","email":"doc@example.com","password":"hunter2"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "specialty_ids", resp.Error.Details[0].Field)
}

func TestAuthHandler_Register_DuplicateEmail(t *testing.T) {
	h := newAuthHandlerForTest(&services.MockUserRepository{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			return nil, models.ErrConflict
		},
	})

	body := `{"role":"patient","full_name":"Jane Doe","email":"jane@example.com","password":"hunter2"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "DUPLICATE", decodeError(t, rec).Error.Code)
}
