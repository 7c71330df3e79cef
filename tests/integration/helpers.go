//go:build integration

package integration

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/google/uuid"
	"github.com/kritsw/telemed/internal/database"
	"github.com/kritsw/telemed/internal/models"
	pkgauth "github.com/kritsw/telemed/pkg/auth"
)

// TestDB manages the PostgreSQL testcontainer and database handles.
type TestDB struct {
	Container  testcontainers.Container
	ConnString string
	Pool       *pgxpool.Pool
	DB         *database.DB
}

// SetupTestDatabase creates a PostgreSQL testcontainer, runs migrations and
// returns the handles.
func SetupTestDatabase(ctx context.Context) (*TestDB, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("telemed"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &TestDB{
		Container:  container,
		ConnString: connStr,
		Pool:       pool,
		DB:         &database.DB{Pool: pool},
	}, nil
}

// runMigrations executes all goose migrations against the container.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir, err := filepath.Abs("../../migrations")
	if err != nil {
		return fmt.Errorf("failed to get migrations path: %w", err)
	}

	goose.SetLogger(log.New(nil, "", 0))

	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer sqlDB.Close()

	if err := goose.UpContext(ctx, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// Teardown stops the container and closes the connection pool.
func (db *TestDB) Teardown(ctx context.Context) error {
	if db.Pool != nil {
		db.Pool.Close()
	}
	if db.Container != nil {
		return db.Container.Terminate(ctx)
	}
	return nil
}

// CleanupTables truncates all tables for test isolation.
func (db *TestDB) CleanupTables(ctx context.Context) error {
	tables := []string{
		"appointments",
		"doctor_slots",
		"doctor_specialties",
		"users",
	}

	for _, table := range tables {
		if _, err := db.Pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return nil
}

// SeedUser inserts an account with the password hashed for real.
func SeedUser(ctx context.Context, pool *pgxpool.Pool, role, email, password string) (*models.User, error) {
	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO users (id, role, full_name, email, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, role, full_name, email, password_hash, failed_login_attempts, lock_count, locked_until, created_at, updated_at
	`

	var user models.User
	err = pool.QueryRow(ctx, query, uuid.New().String(), role, "Test "+role, email, hash).Scan(
		&user.ID, &user.Role, &user.FullName, &user.Email, &user.PasswordHash,
		&user.FailedLoginAttempts, &user.LockCount, &user.LockedUntil,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return &user, nil
}

// FetchLoginState reads the lockout columns for assertions.
func FetchLoginState(ctx context.Context, pool *pgxpool.Pool, userID string) (failed int, lockCount int, lockedUntil *time.Time, err error) {
	err = pool.QueryRow(ctx,
		`SELECT failed_login_attempts, lock_count, locked_until FROM users WHERE id = $1`,
		userID,
	).Scan(&failed, &lockCount, &lockedUntil)
	return failed, lockCount, lockedUntil, err
}

// SeedSlot inserts an availability range for a doctor. Days are offsets from
// today, so tests never hard-code dates that drift into the past.
func SeedSlot(ctx context.Context, pool *pgxpool.Pool, doctorID string, startDayOffset, endDayOffset int) (*models.Slot, error) {
	now := time.Now()
	startDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local).AddDate(0, 0, startDayOffset)
	endDay := startDay.AddDate(0, 0, endDayOffset-startDayOffset).Add(24*time.Hour - time.Second)

	slot := &models.Slot{
		ID:        uuid.New().String(),
		DoctorID:  doctorID,
		StartTime: startDay,
		EndTime:   endDay,
		Status:    models.SlotAvailable,
	}

	query := `
		INSERT INTO doctor_slots (id, doctor_id, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	err := pool.QueryRow(ctx, query, slot.ID, slot.DoctorID, slot.StartTime, slot.EndTime, slot.Status).
		Scan(&slot.CreatedAt, &slot.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert slot: %w", err)
	}

	return slot, nil
}

// DayOffset formats today+offset as a wire date.
func DayOffset(offset int) string {
	return time.Now().AddDate(0, 0, offset).Format(models.DateLayout)
}
