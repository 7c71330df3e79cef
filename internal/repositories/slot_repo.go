package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kritsw/telemed/internal/database"
	"github.com/kritsw/telemed/internal/models"
)

// SlotRepository stores doctor parent slots. Per-day availability is never
// persisted; it is derived from the parent range on read.
type SlotRepository struct {
	db *database.DB
}

func NewSlotRepository(db *database.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

const slotColumns = `id, doctor_id, start_time, end_time, status, created_at, updated_at`

func scanSlotRow(scanner rowScanner) (*models.Slot, error) {
	var s models.Slot
	err := scanner.Scan(&s.ID, &s.DoctorID, &s.StartTime, &s.EndTime, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &s, nil
}

// Insert creates a parent slot. Re-submitting an identical range for the same
// doctor is a no-op rather than an error.
func (r *SlotRepository) Insert(ctx context.Context, slot *models.Slot) error {
	slot.ID = uuid.New().String()
	slot.Status = models.SlotAvailable

	query := `
		INSERT INTO doctor_slots (id, doctor_id, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (doctor_id, start_time, end_time) DO NOTHING
	`

	_, err := r.db.Pool.Exec(ctx, query, slot.ID, slot.DoctorID, slot.StartTime, slot.EndTime, slot.Status)
	if err != nil {
		return database.MapPostgresError(err)
	}
	return nil
}

// ListOverlapping fetches parent slots overlapping [fromDay, toDay] (either
// bound optional), ordered by start time.
func (r *SlotRepository) ListOverlapping(ctx context.Context, doctorID string, fromDay, toDay *time.Time) ([]*models.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM doctor_slots WHERE doctor_id = $1`
	params := []interface{}{doctorID}

	if fromDay != nil {
		params = append(params, *fromDay)
		query += fmt.Sprintf(" AND end_time::date >= $%d::date", len(params))
	}
	if toDay != nil {
		params = append(params, *toDay)
		query += fmt.Sprintf(" AND start_time::date <= $%d::date", len(params))
	}
	query += " ORDER BY start_time ASC LIMIT 500"

	rows, err := r.db.Pool.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to query slots: %w", err)
	}
	defer rows.Close()

	slots := make([]*models.Slot, 0)
	for rows.Next() {
		slot, err := scanSlotRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return slots, nil
}

// GetForUpdate locks the parent slot row for the duration of the transaction,
// serializing concurrent booking attempts against it.
func (r *SlotRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*models.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM doctor_slots WHERE id = $1 FOR UPDATE`
	return scanSlotRow(tx.QueryRow(ctx, query, id))
}

// MarkBooked closes the whole parent range to further bookings.
func (r *SlotRepository) MarkBooked(ctx context.Context, tx pgx.Tx, id string) error {
	query := `UPDATE doctor_slots SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`

	result, err := tx.Exec(ctx, query, models.SlotBooked, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrSlotNotFound
	}
	return nil
}

// CloseExpired flips slots whose range has fully passed to closed and
// returns how many rows changed.
func (r *SlotRepository) CloseExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE doctor_slots
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE end_time < $2 AND status <> $1
	`

	result, err := r.db.Pool.Exec(ctx, query, models.SlotClosed, now)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}
