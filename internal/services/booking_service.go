package services

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/kritsw/telemed/internal/models"
	pkglogger "github.com/kritsw/telemed/pkg/logger"
)

// SlotStore defines the parent-slot operations the booking flow needs.
type SlotStore interface {
	Insert(ctx context.Context, slot *models.Slot) error
	ListOverlapping(ctx context.Context, doctorID string, fromDay, toDay *time.Time) ([]*models.Slot, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*models.Slot, error)
	MarkBooked(ctx context.Context, tx pgx.Tx, id string) error
}

// AppointmentStore defines the appointment operations the booking flow needs.
type AppointmentStore interface {
	InsertTx(ctx context.Context, tx pgx.Tx, appt *models.Appointment) error
	ExistsForPatientOnDateTx(ctx context.Context, tx pgx.Tx, patientID string, date time.Time) (bool, error)
	ListForDoctorWindow(ctx context.Context, doctorID string, fromDay, toDay *time.Time) ([]*models.Appointment, error)
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	UpdateStatus(ctx context.Context, id, status string) error
	ListForPatient(ctx context.Context, patientID string) ([]*models.AppointmentView, error)
	ListForDoctor(ctx context.Context, doctorID string) ([]*models.AppointmentView, error)
}

// TxRunner runs a function inside one database transaction.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(pgx.Tx) error) error
}

// PatientDirectory resolves account details for notifications.
type PatientDirectory interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// BookingService owns slot publication, availability expansion and the
// transactional booking protocol.
type BookingService struct {
	tx          TxRunner
	slots       SlotStore
	appts       AppointmentStore
	users       PatientDirectory
	notifier    Notifier
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	now         func() time.Time
}

func NewBookingService(
	tx TxRunner,
	slots SlotStore,
	appts AppointmentStore,
	users PatientDirectory,
	notifier Notifier,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *BookingService {
	return &BookingService{
		tx:          tx,
		slots:       slots,
		appts:       appts,
		users:       users,
		notifier:    notifier,
		logger:      logger,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// CreateSlot publishes a parent availability range for the doctor. Date-only
// inputs cover the whole day; re-submitting an identical range is a no-op.
func (s *BookingService) CreateSlot(ctx context.Context, doctorID, start, end string) (*models.Slot, error) {
	startTime, err := parseSlotBound(start, false)
	if err != nil {
		return nil, models.ErrBadRequest
	}
	endTime, err := parseSlotBound(end, true)
	if err != nil {
		return nil, models.ErrBadRequest
	}
	if endTime.Before(startTime) {
		return nil, models.ErrInvalidTimeRange
	}

	slot := &models.Slot{
		DoctorID:  doctorID,
		StartTime: startTime,
		EndTime:   endTime,
	}
	if err := s.slots.Insert(ctx, slot); err != nil {
		s.logger.Error("failed to insert slot", slog.String("doctor_id", doctorID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("slot published",
		slog.String("doctor_id", doctorID),
		slog.Time("start_time", slot.StartTime),
		slog.Time("end_time", slot.EndTime))
	return slot, nil
}

// parseSlotBound accepts either a bare date or an RFC 3339 timestamp. A bare
// date expands to the start or end of that day depending on which bound it is.
func parseSlotBound(value string, endOfDay bool) (time.Time, error) {
	if t, err := time.ParseInLocation(models.DateLayout, value, time.Local); err == nil {
		if endOfDay {
			return t.Add(24*time.Hour - time.Second), nil
		}
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// ListAvailability expands the doctor's parent slots into per-day entries
// within the optional [from, to] window, sorted by date.
func (s *BookingService) ListAvailability(ctx context.Context, doctorID string, from, to *time.Time) ([]*models.DailySlot, error) {
	slots, err := s.slots.ListOverlapping(ctx, doctorID, from, to)
	if err != nil {
		s.logger.Error("failed to list slots", slog.String("doctor_id", doctorID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if len(slots) == 0 {
		return []*models.DailySlot{}, nil
	}

	appts, err := s.appts.ListForDoctorWindow(ctx, doctorID, from, to)
	if err != nil {
		s.logger.Error("failed to list appointments", slog.String("doctor_id", doctorID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	booked := make(map[string]bool, len(appts))
	for _, a := range appts {
		if a.Status == models.AppointmentPending || a.Status == models.AppointmentConfirmed {
			booked[a.SlotID+":"+a.ChosenDay()] = true
		}
	}

	today := startOfDay(s.now())
	days := make([]*models.DailySlot, 0)
	for _, slot := range slots {
		for _, day := range slot.Days() {
			date, err := time.ParseInLocation(models.DateLayout, day, time.Local)
			if err != nil {
				continue
			}
			if from != nil && date.Before(startOfDay(*from)) {
				continue
			}
			if to != nil && date.After(startOfDay(*to)) {
				continue
			}

			id := slot.ID + ":" + day
			status := models.SlotAvailable
			switch {
			case date.Before(today):
				status = models.SlotClosed
			case booked[id]:
				status = models.SlotBooked
			case slot.Status == models.SlotClosed:
				status = models.SlotClosed
			case slot.Status != models.SlotAvailable:
				// Parent marked booked closes every day in the range.
				status = models.SlotBooked
			}

			days = append(days, &models.DailySlot{
				ID:       id,
				SlotID:   slot.ID,
				DoctorID: slot.DoctorID,
				Date:     day,
				Status:   status,
			})
		}
	}

	sort.Slice(days, func(i, j int) bool {
		if days[i].Date != days[j].Date {
			return days[i].Date < days[j].Date
		}
		return days[i].SlotID < days[j].SlotID
	})
	return days, nil
}

// BookAppointment books one day of a parent slot for the patient. The whole
// protocol runs in a single transaction with the parent row locked, so
// concurrent attempts on the same slot serialize; the unique
// (slot_id, chosen_date) constraint backstops anything the lock misses.
func (s *BookingService) BookAppointment(ctx context.Context, patientID, slotID, chosenDate string) (*models.Appointment, error) {
	date, err := time.ParseInLocation(models.DateLayout, chosenDate, time.Local)
	if err != nil {
		return nil, models.ErrBadRequest
	}

	var created *models.Appointment
	txErr := s.tx.WithTransaction(ctx, func(tx pgx.Tx) error {
		slot, err := s.slots.GetForUpdate(ctx, tx, slotID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return models.ErrSlotNotFound
			}
			return err
		}
		if slot.Status != models.SlotAvailable {
			return models.ErrSlotNotAvailable
		}

		if !slotCoversDay(slot, chosenDate) {
			return models.ErrDateOutOfRange
		}

		tomorrow := startOfDay(s.now()).AddDate(0, 0, 1)
		if date.Before(tomorrow) {
			return models.ErrBookingTooSoon
		}

		taken, err := s.appts.ExistsForPatientOnDateTx(ctx, tx, patientID, date)
		if err != nil {
			return err
		}
		if taken {
			return models.ErrPatientAlreadyBooked
		}

		appt := &models.Appointment{
			PatientID:  patientID,
			DoctorID:   slot.DoctorID,
			SlotID:     slot.ID,
			ChosenDate: date,
			Status:     models.AppointmentPending,
		}
		if err := s.appts.InsertTx(ctx, tx, appt); err != nil {
			if errors.Is(err, models.ErrConflict) {
				return models.ErrSlotAlreadyBooked
			}
			return err
		}

		if err := s.slots.MarkBooked(ctx, tx, slot.ID); err != nil {
			return err
		}

		created = appt
		return nil
	})
	if txErr != nil {
		switch {
		case errors.Is(txErr, models.ErrSlotNotFound),
			errors.Is(txErr, models.ErrSlotNotAvailable),
			errors.Is(txErr, models.ErrDateOutOfRange),
			errors.Is(txErr, models.ErrBookingTooSoon),
			errors.Is(txErr, models.ErrPatientAlreadyBooked):
			return nil, txErr
		case errors.Is(txErr, models.ErrSlotAlreadyBooked):
			s.auditLogger.LogBookingEvent(pkglogger.AuditEvent{
				EventType: "booking_conflict",
				UserID:    patientID,
				Metadata:  map[string]string{"slot_id": slotID, "chosen_date": chosenDate},
			})
			return nil, txErr
		default:
			s.logger.Error("booking transaction failed",
				slog.String("patient_id", patientID),
				slog.String("slot_id", slotID),
				slog.Any("error", txErr))
			return nil, models.ErrInternalServer
		}
	}

	s.logger.Info("appointment booked",
		slog.String("appointment_id", created.ID),
		slog.String("patient_id", patientID),
		slog.String("slot_id", slotID),
		slog.String("chosen_date", chosenDate))
	return created, nil
}

func slotCoversDay(slot *models.Slot, day string) bool {
	for _, d := range slot.Days() {
		if d == day {
			return true
		}
	}
	return false
}

// UpdateStatus lets the owning doctor move an appointment to a new status.
// A missing appointment and one owned by another doctor answer identically,
// so the endpoint cannot be used to probe for valid IDs.
func (s *BookingService) UpdateStatus(ctx context.Context, doctorID, appointmentID, status string) (*models.Appointment, error) {
	switch status {
	case models.AppointmentPending, models.AppointmentConfirmed,
		models.AppointmentRejected, models.AppointmentCancelled:
	default:
		return nil, models.ErrBadRequest
	}

	appt, err := s.appts.GetByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get appointment", slog.String("appointment_id", appointmentID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if appt.DoctorID != doctorID {
		return nil, models.ErrNotFound
	}

	if err := s.appts.UpdateStatus(ctx, appointmentID, status); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update appointment status", slog.String("appointment_id", appointmentID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	appt.Status = status

	s.logger.Info("appointment status updated",
		slog.String("appointment_id", appointmentID),
		slog.String("doctor_id", doctorID),
		slog.String("status", status))

	if status == models.AppointmentConfirmed || status == models.AppointmentRejected {
		s.notifyPatient(appt)
	}

	return appt, nil
}

// notifyPatient emails the patient about a status change. Best effort: a
// failed send is logged and otherwise ignored.
func (s *BookingService) notifyPatient(appt *models.Appointment) {
	if s.notifier == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		patient, err := s.users.GetByID(ctx, appt.PatientID)
		if err != nil {
			s.logger.Error("failed to load patient for notification",
				slog.String("patient_id", appt.PatientID), slog.Any("error", err))
			return
		}
		doctor, err := s.users.GetByID(ctx, appt.DoctorID)
		if err != nil {
			s.logger.Error("failed to load doctor for notification",
				slog.String("doctor_id", appt.DoctorID), slog.Any("error", err))
			return
		}

		err = s.notifier.SendAppointmentUpdate(ctx, patient.Email, patient.FullName, doctor.FullName, appt.ChosenDay(), appt.Status)
		if err != nil {
			s.logger.Error("failed to send appointment notification",
				slog.String("appointment_id", appt.ID), slog.Any("error", err))
		}
	}()
}

// ListAppointments returns the caller's appointments, newest first.
func (s *BookingService) ListAppointments(ctx context.Context, userID, role string) ([]*models.AppointmentView, error) {
	var (
		views []*models.AppointmentView
		err   error
	)
	if role == models.RoleDoctor {
		views, err = s.appts.ListForDoctor(ctx, userID)
	} else {
		views, err = s.appts.ListForPatient(ctx, userID)
	}
	if err != nil {
		s.logger.Error("failed to list appointments", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return views, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
