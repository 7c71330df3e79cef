package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/kritsw/telemed/internal/auth"
	"github.com/kritsw/telemed/internal/ipblock"
	"github.com/kritsw/telemed/internal/lockout"
	"github.com/kritsw/telemed/internal/models"
	pkgauth "github.com/kritsw/telemed/pkg/auth"
	pkglogger "github.com/kritsw/telemed/pkg/logger"
)

// UserRepository defines the credential-store operations the auth flow needs.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	IncrementFailedAttempts(ctx context.Context, id string) (failed int, lockCount int, err error)
	LockAccount(ctx context.Context, id string, until time.Time) error
	ResetLoginState(ctx context.Context, id string) error
}

// SpecialtyAssigner attaches specialties to a freshly registered doctor.
type SpecialtyAssigner interface {
	ReplaceForDoctor(ctx context.Context, doctorID string, specialtyIDs []string) error
}

// AuthService is the login orchestrator: it coordinates the credential check,
// lockout escalation, IP blocking and token issuance.
type AuthService struct {
	repo        UserRepository
	specialties SpecialtyAssigner
	blocks      ipblock.Registry
	tm          *auth.TokenManager
	delay       *auth.EnumerationDelay
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	now         func() time.Time
}

func NewAuthService(
	repo UserRepository,
	specialties SpecialtyAssigner,
	blocks ipblock.Registry,
	tm *auth.TokenManager,
	delay *auth.EnumerationDelay,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *AuthService {
	return &AuthService{
		repo:        repo,
		specialties: specialties,
		blocks:      blocks,
		tm:          tm,
		delay:       delay,
		logger:      logger,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// UserSummary is the account as returned to a freshly authenticated client.
type UserSummary struct {
	ID       string  `json:"id"`
	Role     string  `json:"role"`
	FullName string  `json:"full_name"`
	Email    string  `json:"email"`
	Phone    *string `json:"phone,omitempty"`
}

// LoginResponse carries the session token and account summary.
type LoginResponse struct {
	Token string       `json:"token"`
	User  *UserSummary `json:"user"`
}

// Login runs one authentication attempt. The checks run in a fixed order;
// in particular the password is verified before the IP block is consulted,
// so a correct password from a blocked IP still succeeds and clears the
// block for that IP.
func (s *AuthService) Login(ctx context.Context, email, password, ip string) (*LoginResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, models.ErrInvalidCredentials
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Unknown email answers as slowly as a real password check
			// would, so the response time does not confirm which emails
			// are registered.
			s.delay.Wait()
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_failed",
				IPAddress:     ip,
				FailureReason: "unknown_email",
				Success:       false,
			})
			return nil, models.ErrInvalidCredentials
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	now := s.now()
	if user.Locked(now) {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			IPAddress:     ip,
			FailureReason: "account_locked",
			Success:       false,
		})
		return nil, &models.LockedError{Until: *user.LockedUntil}
	}

	if pkgauth.VerifyPassword(password, user.PasswordHash) {
		return s.loginSucceeded(ctx, user, ip)
	}

	return s.loginFailed(ctx, user, ip, now)
}

func (s *AuthService) loginSucceeded(ctx context.Context, user *models.User, ip string) (*LoginResponse, error) {
	if err := s.repo.ResetLoginState(ctx, user.ID); err != nil {
		s.logger.Error("failed to reset login state", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// Any successful login from this IP clears the block, even when the
	// block was earned by a different account.
	if err := s.blocks.Unblock(ctx, ip); err != nil {
		s.logger.Error("failed to unblock ip", slog.String("ip_address", ip), slog.Any("error", err))
	}

	token, err := s.tm.Generate(user.ID, user.Role)
	if err != nil {
		s.logger.Error("failed to generate token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		IPAddress: ip,
		Success:   true,
	})

	return &LoginResponse{
		Token: token,
		User:  userToSummary(user),
	}, nil
}

func (s *AuthService) loginFailed(ctx context.Context, user *models.User, ip string, now time.Time) (*LoginResponse, error) {
	// The IP block only gates wrong-password attempts; it is checked after
	// password verification on purpose.
	blocked, err := s.blocks.IsBlocked(ctx, ip)
	if err != nil {
		// Fail open on registry errors so an outage cannot lock everyone out.
		s.logger.Error("failed to check ip block", slog.String("ip_address", ip), slog.Any("error", err))
		blocked = false
	}
	if blocked {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			IPAddress:     ip,
			FailureReason: "ip_blocked",
			Success:       false,
		})
		return nil, models.ErrIPBlocked
	}

	failed, lockCount, err := s.repo.IncrementFailedAttempts(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to record login failure", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if failed >= lockout.FailureThreshold {
		duration := lockout.LockDuration(lockCount)
		until := now.Add(duration)

		if err := s.repo.LockAccount(ctx, user.ID, until); err != nil {
			s.logger.Error("failed to lock account", slog.String("user_id", user.ID), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		if err := s.blocks.Block(ctx, ip, duration); err != nil {
			s.logger.Error("failed to block ip", slog.String("ip_address", ip), slog.Any("error", err))
		}

		s.logger.Warn("account locked after repeated failures",
			slog.String("user_id", user.ID),
			slog.Int("failed_attempts", failed),
			slog.Duration("lock_duration", duration))
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "account_locked",
			UserID:        user.ID,
			IPAddress:     ip,
			FailureReason: "too_many_attempts",
			Success:       false,
		})

		return nil, &models.TooManyAttemptsError{LockedFor: duration}
	}

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login_failed",
		UserID:        user.ID,
		IPAddress:     ip,
		FailureReason: "wrong_password",
		Success:       false,
	})
	return nil, models.ErrInvalidCredentials
}

// RegisterInput is a registration request after DTO validation.
type RegisterInput struct {
	Role         string
	FullName     string
	Email        string
	Phone        *string
	Password     string
	SpecialtyIDs []string
}

// Register creates a new patient or doctor account. Doctors must name at
// least one specialty.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*UserSummary, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if input.Role != models.RolePatient && input.Role != models.RoleDoctor {
		return nil, models.ErrBadRequest
	}
	if input.Role == models.RoleDoctor && len(input.SpecialtyIDs) == 0 {
		return nil, models.ErrBadRequest
	}

	passwordHash, err := pkgauth.HashPassword(input.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user := &models.User{
		Role:         input.Role,
		FullName:     strings.TrimSpace(input.FullName),
		Email:        email,
		Phone:        input.Phone,
		PasswordHash: passwordHash,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			s.logger.Info("registration failed: email or phone already in use")
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if created.Role == models.RoleDoctor {
		if err := s.specialties.ReplaceForDoctor(ctx, created.ID, input.SpecialtyIDs); err != nil {
			s.logger.Error("failed to assign specialties", slog.String("user_id", created.ID), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
	}

	s.logger.Info("user registered", slog.String("user_id", created.ID), slog.String("role", created.Role))
	return userToSummary(created), nil
}

func userToSummary(user *models.User) *UserSummary {
	return &UserSummary{
		ID:       user.ID,
		Role:     user.Role,
		FullName: user.FullName,
		Email:    user.Email,
		Phone:    user.Phone,
	}
}
