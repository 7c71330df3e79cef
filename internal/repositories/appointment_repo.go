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

type AppointmentRepository struct {
	db *database.DB
}

func NewAppointmentRepository(db *database.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

const appointmentColumns = `id, patient_id, doctor_id, slot_id, chosen_date, status, created_at, updated_at`

func scanAppointmentRow(scanner rowScanner) (*models.Appointment, error) {
	var a models.Appointment
	err := scanner.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.SlotID, &a.ChosenDate, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &a, nil
}

// InsertTx inserts the appointment inside the caller's booking transaction.
// The UNIQUE (slot_id, chosen_date) constraint is the backstop against two
// transactions racing on the same day; the violation surfaces as ErrConflict.
func (r *AppointmentRepository) InsertTx(ctx context.Context, tx pgx.Tx, appt *models.Appointment) error {
	appt.ID = uuid.New().String()

	query := `
		INSERT INTO appointments (id, patient_id, doctor_id, slot_id, chosen_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := tx.Exec(ctx, query,
		appt.ID, appt.PatientID, appt.DoctorID, appt.SlotID, appt.ChosenDate, appt.Status)
	if err != nil {
		return database.MapPostgresError(err)
	}
	return nil
}

// ExistsForPatientOnDateTx reports whether the patient already holds an
// active appointment (with any doctor) on the given date. Runs inside the
// booking transaction so the answer stays valid until commit.
func (r *AppointmentRepository) ExistsForPatientOnDateTx(ctx context.Context, tx pgx.Tx, patientID string, date time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE patient_id = $1 AND chosen_date = $2 AND status IN ($3, $4)
		)
	`

	var exists bool
	err := tx.QueryRow(ctx, query, patientID, date, models.AppointmentPending, models.AppointmentConfirmed).Scan(&exists)
	if err != nil {
		return false, database.MapPostgresError(err)
	}
	return exists, nil
}

// ListForDoctorWindow returns the doctor's appointments within [fromDay,
// toDay] (either bound optional); used to mark virtual daily slots booked.
func (r *AppointmentRepository) ListForDoctorWindow(ctx context.Context, doctorID string, fromDay, toDay *time.Time) ([]*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE doctor_id = $1`
	params := []interface{}{doctorID}

	if fromDay != nil {
		params = append(params, *fromDay)
		query += fmt.Sprintf(" AND chosen_date >= $%d", len(params))
	}
	if toDay != nil {
		params = append(params, *toDay)
		query += fmt.Sprintf(" AND chosen_date <= $%d", len(params))
	}

	rows, err := r.db.Pool.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	appts := make([]*models.Appointment, 0)
	for rows.Next() {
		appt, err := scanAppointmentRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appts = append(appts, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return appts, nil
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	return scanAppointmentRow(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE appointments SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`

	result, err := r.db.Pool.Exec(ctx, query, status, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListForPatient returns the patient's appointments joined with the doctor's
// name, newest first.
func (r *AppointmentRepository) ListForPatient(ctx context.Context, patientID string) ([]*models.AppointmentView, error) {
	query := `
		SELECT a.id, a.patient_id, a.doctor_id, a.slot_id, a.chosen_date, a.status, a.created_at, a.updated_at,
		       d.id, d.full_name
		FROM appointments a
		JOIN users d ON d.id = a.doctor_id
		WHERE a.patient_id = $1
		ORDER BY a.chosen_date DESC, a.created_at DESC
		LIMIT 200
	`
	return r.listViews(ctx, query, patientID)
}

// ListForDoctor returns the doctor's appointments joined with the patient's
// name, newest first.
func (r *AppointmentRepository) ListForDoctor(ctx context.Context, doctorID string) ([]*models.AppointmentView, error) {
	query := `
		SELECT a.id, a.patient_id, a.doctor_id, a.slot_id, a.chosen_date, a.status, a.created_at, a.updated_at,
		       p.id, p.full_name
		FROM appointments a
		JOIN users p ON p.id = a.patient_id
		WHERE a.doctor_id = $1
		ORDER BY a.chosen_date DESC, a.created_at DESC
		LIMIT 200
	`
	return r.listViews(ctx, query, doctorID)
}

func (r *AppointmentRepository) listViews(ctx context.Context, query, userID string) ([]*models.AppointmentView, error) {
	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	views := make([]*models.AppointmentView, 0)
	for rows.Next() {
		var v models.AppointmentView
		err := rows.Scan(
			&v.ID, &v.PatientID, &v.DoctorID, &v.SlotID, &v.ChosenDate, &v.Status, &v.CreatedAt, &v.UpdatedAt,
			&v.CounterpartID, &v.CounterpartName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		views = append(views, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return views, nil
}
