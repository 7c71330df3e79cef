package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/kritsw/telemed/internal/models"
	pkglogger "github.com/kritsw/telemed/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBookingService(slots SlotStore, appts AppointmentStore, users PatientDirectory, notifier Notifier) *BookingService {
	logger := slog.Default()
	return NewBookingService(
		&MockTxRunner{},
		slots,
		appts,
		users,
		notifier,
		logger,
		pkglogger.NewAuditLogger(logger),
	)
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.Local)
}

func TestBookingService_CreateSlot_NormalizesDateOnlyBounds(t *testing.T) {
	var inserted *models.Slot
	slots := &MockSlotStore{
		InsertFunc: func(ctx context.Context, slot *models.Slot) error {
			inserted = slot
			return nil
		},
	}
	svc := newTestBookingService(slots, &MockAppointmentStore{}, &MockUserRepository{}, nil)

	slot, err := svc.CreateSlot(context.Background(), "doc1", "2026-03-10", "2026-03-12")

	require.NoError(t, err)
	require.NotNil(t, inserted)
	assert.Equal(t, day(2026, 3, 10), slot.StartTime)
	assert.Equal(t, time.Date(2026, 3, 12, 23, 59, 59, 0, time.Local), slot.EndTime)
}

func TestBookingService_CreateSlot_EndBeforeStart(t *testing.T) {
	svc := newTestBookingService(&MockSlotStore{}, &MockAppointmentStore{}, &MockUserRepository{}, nil)

	slot, err := svc.CreateSlot(context.Background(), "doc1", "2026-03-12", "2026-03-10")

	assert.Nil(t, slot)
	assert.ErrorIs(t, err, models.ErrInvalidTimeRange)
}

func TestBookingService_CreateSlot_UnparsableBound(t *testing.T) {
	svc := newTestBookingService(&MockSlotStore{}, &MockAppointmentStore{}, &MockUserRepository{}, nil)

	slot, err := svc.CreateSlot(context.Background(), "doc1", "next tuesday", "2026-03-10")

	assert.Nil(t, slot)
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestBookingService_ListAvailability_ExpandsDays(t *testing.T) {
	parent := NewTestSlot("slot1", "doc1", day(2026, 3, 11), day(2026, 3, 13))
	slots := &MockSlotStore{
		ListOverlappingFunc: func(ctx context.Context, doctorID string, fromDay, toDay *time.Time) ([]*models.Slot, error) {
			return []*models.Slot{parent}, nil
		},
	}
	svc := newTestBookingService(slots, &MockAppointmentStore{}, &MockUserRepository{}, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local) }

	days, err := svc.ListAvailability(context.Background(), "doc1", nil, nil)

	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, "2026-03-11", days[0].Date)
	assert.Equal(t, "2026-03-12", days[1].Date)
	assert.Equal(t, "2026-03-13", days[2].Date)
	for _, d := range days {
		assert.Equal(t, models.SlotAvailable, d.Status)
		assert.Equal(t, "slot1:"+d.Date, d.ID)
	}
}

func TestBookingService_ListAvailability_MarksBookedAndPastDays(t *testing.T) {
	parent := NewTestSlot("slot1", "doc1", day(2026, 3, 9), day(2026, 3, 11))
	slots := &MockSlotStore{
		ListOverlappingFunc: func(ctx context.Context, doctorID string, fromDay, toDay *time.Time) ([]*models.Slot, error) {
			return []*models.Slot{parent}, nil
		},
	}
	appts := &MockAppointmentStore{
		ListForDoctorWindowFunc: func(ctx context.Context, doctorID string, fromDay, toDay *time.Time) ([]*models.Appointment, error) {
			return []*models.Appointment{
				{SlotID: "slot1", ChosenDate: day(2026, 3, 11), Status: models.AppointmentPending},
			}, nil
		},
	}
	svc := newTestBookingService(slots, appts, &MockUserRepository{}, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local) }

	days, err := svc.ListAvailability(context.Background(), "doc1", nil, nil)

	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, models.SlotClosed, days[0].Status, "yesterday is closed")
	assert.Equal(t, models.SlotAvailable, days[1].Status)
	assert.Equal(t, models.SlotBooked, days[2].Status)
}

func TestBookingService_ListAvailability_CancelledAppointmentFreesDay(t *testing.T) {
	parent := NewTestSlot("slot1", "doc1", day(2026, 3, 11), day(2026, 3, 11))
	slots := &MockSlotStore{
		ListOverlappingFunc: func(ctx context.Context, doctorID string, fromDay, toDay *time.Time) ([]*models.Slot, error) {
			return []*models.Slot{parent}, nil
		},
	}
	appts := &MockAppointmentStore{
		ListForDoctorWindowFunc: func(ctx context.Context, doctorID string, fromDay, toDay *time.Time) ([]*models.Appointment, error) {
			return []*models.Appointment{
				{SlotID: "slot1", ChosenDate: day(2026, 3, 11), Status: models.AppointmentCancelled},
			}, nil
		},
	}
	svc := newTestBookingService(slots, appts, &MockUserRepository{}, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local) }

	days, err := svc.ListAvailability(context.Background(), "doc1", nil, nil)

	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, models.SlotAvailable, days[0].Status)
}

func TestBookingService_BookAppointment_Success(t *testing.T) {
	parent := NewTestSlot("slot1", "doc1", day(2026, 3, 11), day(2026, 3, 13))

	markedBooked := false
	slots := &MockSlotStore{
		GetForUpdateFunc: func(ctx context.Context, tx pgx.Tx, id string) (*models.Slot, error) {
			return parent, nil
		},
		MarkBookedFunc: func(ctx context.Context, tx pgx.Tx, id string) error {
			markedBooked = true
			return nil
		},
	}
	svc := newTestBookingService(slots, &MockAppointmentStore{}, &MockUserRepository{}, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local) }

	appt, err := svc.BookAppointment(context.Background(), "pat1", "slot1", "2026-03-12")

	require.NoError(t, err)
	require.NotNil(t, appt)
	assert.Equal(t, models.AppointmentPending, appt.Status)
	assert.Equal(t, "doc1", appt.DoctorID)
	assert.Equal(t, "2026-03-12", appt.ChosenDay())
	assert.True(t, markedBooked)
}

func TestBookingService_BookAppointment_TodayTooSoon(t *testing.T) {
	parent := NewTestSlot("slot1", "doc1", day(2026, 3, 10), day(2026, 3, 13))
	slots := &MockSlotStore{
		GetForUpdateFunc: func(ctx context.Context, tx pgx.Tx, id string) (*models.Slot, error) {
			return parent, nil
		},
	}
	svc := newTestBookingService(slots, &MockAppointmentStore{}, &MockUserRepository{}, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local) }

	appt, err := svc.BookAppointment(context.Background(), "pat1", "slot1", "2026-03-10")

	assert.Nil(t, appt)
	assert.ErrorIs(t, err, models.ErrBookingTooSoon)
}

func TestBookingService_BookAppointment_DateOutOfRange(t *testing.T) {
	parent := NewTestSlot("slot1", "doc1", day(2026, 3, 11), day(2026, 3, 13))
	slots := &MockSlotStore{
		GetForUpdateFunc: func(ctx context.Context, tx pgx.Tx, id string) (*models.Slot, error) {
			return parent, nil
		},
	}
	svc := newTestBookingService(slots, &MockAppointmentStore{}, &MockUserRepository{}, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local) }

	appt, err := svc.BookAppointment(context.Background(), "pat1", "slot1", "2026-03-14")

	assert.Nil(t, appt)
	assert.ErrorIs(t, err, models.ErrDateOutOfRange)
}

func TestBookingService_BookAppointment_SlotNotFound(t *testing.T) {
	svc := newTestBookingService(&MockSlotStore{}, &MockAppointmentStore{}, &MockUserRepository{}, nil)

	appt, err := svc.BookAppointment(context.Background(), "pat1", "missing", "2026-03-12")

	assert.Nil(t, appt)
	assert.ErrorIs(t, err, models.ErrSlotNotFound)
}

func TestBookingService_BookAppointment_SlotNotAvailable(t *testing.T) {
	parent := NewTestSlot("slot1", "doc1", day(2026, 3, 11), day(2026, 3, 13))
	parent.Status = models.SlotBooked
	slots := &MockSlotStore{
		GetForUpdateFunc: func(ctx context.Context, tx pgx.Tx, id string) (*models.Slot, error) {
			return parent, nil
		},
	}
	svc := newTestBookingService(slots, &MockAppointmentStore{}, &MockUserRepository{}, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local) }

	appt, err := svc.BookAppointment(context.Background(), "pat1", "slot1", "2026-03-12")

	assert.Nil(t, appt)
	assert.ErrorIs(t, err, models.ErrSlotNotAvailable)
}

func TestBookingService_BookAppointment_PatientAlreadyBookedThatDay(t *testing.T) {
	parent := NewTestSlot("slot1", "doc1", day(2026, 3, 11), day(2026, 3, 13))
	slots := &MockSlotStore{
		GetForUpdateFunc: func(ctx context.Context, tx pgx.Tx, id string) (*models.Slot, error) {
			return parent, nil
		},
	}
	appts := &MockAppointmentStore{
		ExistsForPatientOnDateTxFunc: func(ctx context.Context, tx pgx.Tx, patientID string, date time.Time) (bool, error) {
			return true, nil
		},
	}
	svc := newTestBookingService(slots, appts, &MockUserRepository{}, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local) }

	appt, err := svc.BookAppointment(context.Background(), "pat1", "slot1", "2026-03-12")

	assert.Nil(t, appt)
	assert.ErrorIs(t, err, models.ErrPatientAlreadyBooked)
}

func TestBookingService_BookAppointment_LostRaceOnUniqueConstraint(t *testing.T) {
	parent := NewTestSlot("slot1", "doc1", day(2026, 3, 11), day(2026, 3, 13))
	slots := &MockSlotStore{
		GetForUpdateFunc: func(ctx context.Context, tx pgx.Tx, id string) (*models.Slot, error) {
			return parent, nil
		},
	}
	appts := &MockAppointmentStore{
		InsertTxFunc: func(ctx context.Context, tx pgx.Tx, appt *models.Appointment) error {
			return models.ErrConflict
		},
	}
	svc := newTestBookingService(slots, appts, &MockUserRepository{}, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local) }

	appt, err := svc.BookAppointment(context.Background(), "pat1", "slot1", "2026-03-12")

	assert.Nil(t, appt)
	assert.ErrorIs(t, err, models.ErrSlotAlreadyBooked)
}

// Booking one day of a multi-day slot takes the whole range out of play.
func TestBookingService_BookAppointment_WholeRangeScenario(t *testing.T) {
	parent := NewTestSlot("slot1", "doc1", day(2026, 3, 11), day(2026, 3, 13))

	slots := &MockSlotStore{
		GetForUpdateFunc: func(ctx context.Context, tx pgx.Tx, id string) (*models.Slot, error) {
			snap := *parent
			return &snap, nil
		},
		MarkBookedFunc: func(ctx context.Context, tx pgx.Tx, id string) error {
			parent.Status = models.SlotBooked
			return nil
		},
		ListOverlappingFunc: func(ctx context.Context, doctorID string, fromDay, toDay *time.Time) ([]*models.Slot, error) {
			snap := *parent
			return []*models.Slot{&snap}, nil
		},
	}
	var stored []*models.Appointment
	appts := &MockAppointmentStore{
		InsertTxFunc: func(ctx context.Context, tx pgx.Tx, appt *models.Appointment) error {
			appt.ID = "appt1"
			stored = append(stored, appt)
			return nil
		},
		ListForDoctorWindowFunc: func(ctx context.Context, doctorID string, fromDay, toDay *time.Time) ([]*models.Appointment, error) {
			return stored, nil
		},
	}
	svc := newTestBookingService(slots, appts, &MockUserRepository{}, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local) }

	before, err := svc.ListAvailability(context.Background(), "doc1", nil, nil)
	require.NoError(t, err)
	require.Len(t, before, 3)
	for _, d := range before {
		assert.Equal(t, models.SlotAvailable, d.Status)
	}

	_, err = svc.BookAppointment(context.Background(), "pat1", "slot1", "2026-03-12")
	require.NoError(t, err)

	after, err := svc.ListAvailability(context.Background(), "doc1", nil, nil)
	require.NoError(t, err)
	require.Len(t, after, 3)
	for _, d := range after {
		assert.Equal(t, models.SlotBooked, d.Status)
	}

	_, err = svc.BookAppointment(context.Background(), "pat2", "slot1", "2026-03-13")
	assert.ErrorIs(t, err, models.ErrSlotNotAvailable)
}

func TestBookingService_UpdateStatus_NotOwnedLooksMissing(t *testing.T) {
	appts := &MockAppointmentStore{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Appointment, error) {
			return &models.Appointment{ID: id, DoctorID: "someone-else"}, nil
		},
	}
	svc := newTestBookingService(&MockSlotStore{}, appts, &MockUserRepository{}, nil)

	appt, err := svc.UpdateStatus(context.Background(), "doc1", "appt1", models.AppointmentConfirmed)

	assert.Nil(t, appt)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestBookingService_UpdateStatus_InvalidStatus(t *testing.T) {
	svc := newTestBookingService(&MockSlotStore{}, &MockAppointmentStore{}, &MockUserRepository{}, nil)

	appt, err := svc.UpdateStatus(context.Background(), "doc1", "appt1", "snoozed")

	assert.Nil(t, appt)
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestBookingService_UpdateStatus_ConfirmNotifiesPatient(t *testing.T) {
	appts := &MockAppointmentStore{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Appointment, error) {
			return &models.Appointment{
				ID:         id,
				DoctorID:   "doc1",
				PatientID:  "pat1",
				ChosenDate: day(2026, 3, 12),
				Status:     models.AppointmentPending,
			}, nil
		},
	}
	users := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, FullName: "Name " + id, Email: id + "@example.com"}, nil
		},
	}
	sent := make(chan string, 1)
	notifier := &MockNotifier{
		SendAppointmentUpdateFunc: func(ctx context.Context, email, patientName, doctorName, date, status string) error {
			sent <- email
			return nil
		},
	}
	svc := newTestBookingService(&MockSlotStore{}, appts, users, notifier)

	appt, err := svc.UpdateStatus(context.Background(), "doc1", "appt1", models.AppointmentConfirmed)

	require.NoError(t, err)
	assert.Equal(t, models.AppointmentConfirmed, appt.Status)

	select {
	case email := <-sent:
		assert.Equal(t, "pat1@example.com", email)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a notification email")
	}
}

func TestBookingService_ListAppointments_RoutesByRole(t *testing.T) {
	appts := &MockAppointmentStore{
		ListForPatientFunc: func(ctx context.Context, patientID string) ([]*models.AppointmentView, error) {
			return []*models.AppointmentView{{CounterpartName: "Dr. A"}}, nil
		},
		ListForDoctorFunc: func(ctx context.Context, doctorID string) ([]*models.AppointmentView, error) {
			return []*models.AppointmentView{{CounterpartName: "Patient B"}}, nil
		},
	}
	svc := newTestBookingService(&MockSlotStore{}, appts, &MockUserRepository{}, nil)

	patientViews, err := svc.ListAppointments(context.Background(), "pat1", models.RolePatient)
	require.NoError(t, err)
	require.Len(t, patientViews, 1)
	assert.Equal(t, "Dr. A", patientViews[0].CounterpartName)

	doctorViews, err := svc.ListAppointments(context.Background(), "doc1", models.RoleDoctor)
	require.NoError(t, err)
	require.Len(t, doctorViews, 1)
	assert.Equal(t, "Patient B", doctorViews[0].CounterpartName)
}
