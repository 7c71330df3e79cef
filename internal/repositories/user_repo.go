package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kritsw/telemed/internal/database"
	"github.com/kritsw/telemed/internal/models"
)

// UserRepository wraps lookups and updates of account rows, including the
// lockout counters. All counter mutations go through single atomic UPDATEs so
// concurrent login attempts cannot lose increments.
type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// rowScanner covers both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const userColumns = `id, role, full_name, email, phone, password_hash, failed_login_attempts, lock_count, locked_until, created_at, updated_at`

func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User

	err := scanner.Scan(
		&user.ID, &user.Role, &user.FullName, &user.Email, &user.Phone,
		&user.PasswordHash, &user.FailedLoginAttempts, &user.LockCount,
		&user.LockedUntil, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (id, role, full_name, email, phone, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + userColumns

	created, err := scanUserRow(r.db.Pool.QueryRow(ctx, query,
		user.ID, user.Role, user.FullName, user.Email, user.Phone,
		user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	))
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUserRow(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return scanUserRow(r.db.Pool.QueryRow(ctx, query, email))
}

// UpdateProfile applies the non-nil fields. A non-nil empty phone clears the
// stored number.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, fullName, phone *string) (*models.User, error) {
	query := `
		UPDATE users
		SET full_name = COALESCE($1, full_name),
		    phone = CASE WHEN $2::bool THEN NULLIF($3, '') ELSE phone END,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $4
		RETURNING ` + userColumns

	var phoneVal string
	if phone != nil {
		phoneVal = *phone
	}

	return scanUserRow(r.db.Pool.QueryRow(ctx, query, fullName, phone != nil, phoneVal, id))
}

// IncrementFailedAttempts atomically bumps the failure counter and returns
// the resulting count together with the current lock count.
func (r *UserRepository) IncrementFailedAttempts(ctx context.Context, id string) (failed int, lockCount int, err error) {
	query := `
		UPDATE users
		SET failed_login_attempts = failed_login_attempts + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING failed_login_attempts, lock_count
	`

	if err := r.db.Pool.QueryRow(ctx, query, id).Scan(&failed, &lockCount); err != nil {
		return 0, 0, database.MapPostgresError(err)
	}
	return failed, lockCount, nil
}

// LockAccount sets locked_until and bumps lock_count in one statement.
func (r *UserRepository) LockAccount(ctx context.Context, id string, until time.Time) error {
	query := `
		UPDATE users
		SET locked_until = $1, lock_count = lock_count + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
	`

	result, err := r.db.Pool.Exec(ctx, query, until, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ResetLoginState clears all brute-force state after a successful login.
func (r *UserRepository) ResetLoginState(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET failed_login_attempts = 0, lock_count = 0, locked_until = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	result, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DoctorSummary is a doctor as returned by search.
type DoctorSummary struct {
	ID       string  `json:"id"`
	FullName string  `json:"full_name"`
	Email    string  `json:"email"`
	Phone    *string `json:"phone"`
}

// SearchDoctors finds doctors by name and/or specialty.
func (r *UserRepository) SearchDoctors(ctx context.Context, nameQuery, specialtyID, specialtyName string) ([]*DoctorSummary, error) {
	query := `SELECT DISTINCT u.id, u.full_name, u.email, u.phone FROM users u `
	var params []interface{}

	if specialtyID != "" || specialtyName != "" {
		query += `JOIN doctor_specialties ds ON ds.doctor_id = u.id JOIN specialties s ON s.id = ds.specialty_id `
	}
	query += `WHERE u.role = 'doctor' `

	if nameQuery != "" {
		params = append(params, "%"+nameQuery+"%")
		query += fmt.Sprintf("AND u.full_name ILIKE $%d ", len(params))
	}
	if specialtyID != "" {
		params = append(params, specialtyID)
		query += fmt.Sprintf("AND s.id = $%d ", len(params))
	} else if specialtyName != "" {
		params = append(params, "%"+specialtyName+"%")
		query += fmt.Sprintf("AND s.name ILIKE $%d ", len(params))
	}
	query += `ORDER BY u.full_name ASC LIMIT 100`

	rows, err := r.db.Pool.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to search doctors: %w", err)
	}
	defer rows.Close()

	doctors := make([]*DoctorSummary, 0)
	for rows.Next() {
		var d DoctorSummary
		if err := rows.Scan(&d.ID, &d.FullName, &d.Email, &d.Phone); err != nil {
			return nil, fmt.Errorf("failed to scan doctor: %w", err)
		}
		doctors = append(doctors, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return doctors, nil
}
