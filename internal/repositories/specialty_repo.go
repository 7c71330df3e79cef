package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/kritsw/telemed/internal/database"
	"github.com/kritsw/telemed/internal/models"
)

type SpecialtyRepository struct {
	db *database.DB
}

func NewSpecialtyRepository(db *database.DB) *SpecialtyRepository {
	return &SpecialtyRepository{db: db}
}

func (r *SpecialtyRepository) List(ctx context.Context) ([]*models.Specialty, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT id, name FROM specialties ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query specialties: %w", err)
	}
	defer rows.Close()

	specialties := make([]*models.Specialty, 0)
	for rows.Next() {
		var s models.Specialty
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("failed to scan specialty: %w", err)
		}
		specialties = append(specialties, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return specialties, nil
}

func (r *SpecialtyRepository) ListForDoctor(ctx context.Context, doctorID string) ([]*models.Specialty, error) {
	query := `
		SELECT s.id, s.name
		FROM specialties s
		JOIN doctor_specialties ds ON ds.specialty_id = s.id
		WHERE ds.doctor_id = $1
		ORDER BY s.name ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query doctor specialties: %w", err)
	}
	defer rows.Close()

	specialties := make([]*models.Specialty, 0)
	for rows.Next() {
		var s models.Specialty
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("failed to scan specialty: %w", err)
		}
		specialties = append(specialties, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return specialties, nil
}

// ReplaceForDoctor swaps the doctor's specialty set inside one transaction.
// Unknown specialty ids fail the whole operation with ErrBadRequest.
func (r *SpecialtyRepository) ReplaceForDoctor(ctx context.Context, doctorID string, specialtyIDs []string) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		var role string
		err := tx.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, doctorID).Scan(&role)
		if err != nil {
			return database.MapPostgresError(err)
		}
		if role != models.RoleDoctor {
			return models.ErrForbidden
		}

		if _, err := tx.Exec(ctx, `DELETE FROM doctor_specialties WHERE doctor_id = $1`, doctorID); err != nil {
			return database.MapPostgresError(err)
		}

		if len(specialtyIDs) == 0 {
			return nil
		}

		var known int
		err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM specialties WHERE id = ANY($1)`, specialtyIDs).Scan(&known)
		if err != nil {
			return database.MapPostgresError(err)
		}
		if known != len(specialtyIDs) {
			return models.ErrBadRequest
		}

		for _, sid := range specialtyIDs {
			_, err := tx.Exec(ctx,
				`INSERT INTO doctor_specialties (doctor_id, specialty_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				doctorID, sid)
			if err != nil {
				return database.MapPostgresError(err)
			}
		}
		return nil
	})
}
