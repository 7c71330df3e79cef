package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/kritsw/telemed/internal/models"
	"github.com/kritsw/telemed/internal/repositories"
	pkgauth "github.com/kritsw/telemed/pkg/auth"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByEmailFunc              func(ctx context.Context, email string) (*models.User, error)
	GetByIDFunc                 func(ctx context.Context, id string) (*models.User, error)
	CreateFunc                  func(ctx context.Context, user *models.User) (*models.User, error)
	IncrementFailedAttemptsFunc func(ctx context.Context, id string) (int, int, error)
	LockAccountFunc             func(ctx context.Context, id string, until time.Time) error
	ResetLoginStateFunc         func(ctx context.Context, id string) error
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) IncrementFailedAttempts(ctx context.Context, id string) (int, int, error) {
	if m.IncrementFailedAttemptsFunc != nil {
		return m.IncrementFailedAttemptsFunc(ctx, id)
	}
	return 1, 0, nil
}

func (m *MockUserRepository) LockAccount(ctx context.Context, id string, until time.Time) error {
	if m.LockAccountFunc != nil {
		return m.LockAccountFunc(ctx, id, until)
	}
	return nil
}

func (m *MockUserRepository) ResetLoginState(ctx context.Context, id string) error {
	if m.ResetLoginStateFunc != nil {
		return m.ResetLoginStateFunc(ctx, id)
	}
	return nil
}

// MockSpecialtyAssigner implements SpecialtyAssigner for testing
type MockSpecialtyAssigner struct {
	ReplaceForDoctorFunc func(ctx context.Context, doctorID string, specialtyIDs []string) error
}

func (m *MockSpecialtyAssigner) ReplaceForDoctor(ctx context.Context, doctorID string, specialtyIDs []string) error {
	if m.ReplaceForDoctorFunc != nil {
		return m.ReplaceForDoctorFunc(ctx, doctorID, specialtyIDs)
	}
	return nil
}

// MockSlotStore implements SlotStore for testing
type MockSlotStore struct {
	InsertFunc          func(ctx context.Context, slot *models.Slot) error
	ListOverlappingFunc func(ctx context.Context, doctorID string, fromDay, toDay *time.Time) ([]*models.Slot, error)
	GetForUpdateFunc    func(ctx context.Context, tx pgx.Tx, id string) (*models.Slot, error)
	MarkBookedFunc      func(ctx context.Context, tx pgx.Tx, id string) error
}

func (m *MockSlotStore) Insert(ctx context.Context, slot *models.Slot) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, slot)
	}
	slot.ID = "slot_test"
	slot.Status = models.SlotAvailable
	return nil
}

func (m *MockSlotStore) ListOverlapping(ctx context.Context, doctorID string, fromDay, toDay *time.Time) ([]*models.Slot, error) {
	if m.ListOverlappingFunc != nil {
		return m.ListOverlappingFunc(ctx, doctorID, fromDay, toDay)
	}
	return []*models.Slot{}, nil
}

func (m *MockSlotStore) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*models.Slot, error) {
	if m.GetForUpdateFunc != nil {
		return m.GetForUpdateFunc(ctx, tx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockSlotStore) MarkBooked(ctx context.Context, tx pgx.Tx, id string) error {
	if m.MarkBookedFunc != nil {
		return m.MarkBookedFunc(ctx, tx, id)
	}
	return nil
}

// MockAppointmentStore implements AppointmentStore for testing
type MockAppointmentStore struct {
	InsertTxFunc                 func(ctx context.Context, tx pgx.Tx, appt *models.Appointment) error
	ExistsForPatientOnDateTxFunc func(ctx context.Context, tx pgx.Tx, patientID string, date time.Time) (bool, error)
	ListForDoctorWindowFunc      func(ctx context.Context, doctorID string, fromDay, toDay *time.Time) ([]*models.Appointment, error)
	GetByIDFunc                  func(ctx context.Context, id string) (*models.Appointment, error)
	UpdateStatusFunc             func(ctx context.Context, id, status string) error
	ListForPatientFunc           func(ctx context.Context, patientID string) ([]*models.AppointmentView, error)
	ListForDoctorFunc            func(ctx context.Context, doctorID string) ([]*models.AppointmentView, error)
}

func (m *MockAppointmentStore) InsertTx(ctx context.Context, tx pgx.Tx, appt *models.Appointment) error {
	if m.InsertTxFunc != nil {
		return m.InsertTxFunc(ctx, tx, appt)
	}
	appt.ID = "appt_test"
	return nil
}

func (m *MockAppointmentStore) ExistsForPatientOnDateTx(ctx context.Context, tx pgx.Tx, patientID string, date time.Time) (bool, error) {
	if m.ExistsForPatientOnDateTxFunc != nil {
		return m.ExistsForPatientOnDateTxFunc(ctx, tx, patientID, date)
	}
	return false, nil
}

func (m *MockAppointmentStore) ListForDoctorWindow(ctx context.Context, doctorID string, fromDay, toDay *time.Time) ([]*models.Appointment, error) {
	if m.ListForDoctorWindowFunc != nil {
		return m.ListForDoctorWindowFunc(ctx, doctorID, fromDay, toDay)
	}
	return []*models.Appointment{}, nil
}

func (m *MockAppointmentStore) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockAppointmentStore) UpdateStatus(ctx context.Context, id, status string) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *MockAppointmentStore) ListForPatient(ctx context.Context, patientID string) ([]*models.AppointmentView, error) {
	if m.ListForPatientFunc != nil {
		return m.ListForPatientFunc(ctx, patientID)
	}
	return []*models.AppointmentView{}, nil
}

func (m *MockAppointmentStore) ListForDoctor(ctx context.Context, doctorID string) ([]*models.AppointmentView, error) {
	if m.ListForDoctorFunc != nil {
		return m.ListForDoctorFunc(ctx, doctorID)
	}
	return []*models.AppointmentView{}, nil
}

// MockTxRunner implements TxRunner for testing. The default runs the
// function with a nil transaction, which is enough because the mock stores
// never touch it.
type MockTxRunner struct {
	WithTransactionFunc func(ctx context.Context, fn func(pgx.Tx) error) error
}

func (m *MockTxRunner) WithTransaction(ctx context.Context, fn func(pgx.Tx) error) error {
	if m.WithTransactionFunc != nil {
		return m.WithTransactionFunc(ctx, fn)
	}
	return fn(nil)
}

// MockNotifier implements Notifier for testing
type MockNotifier struct {
	SendAppointmentUpdateFunc func(ctx context.Context, email, patientName, doctorName, date, status string) error
}

func (m *MockNotifier) SendAppointmentUpdate(ctx context.Context, email, patientName, doctorName, date, status string) error {
	if m.SendAppointmentUpdateFunc != nil {
		return m.SendAppointmentUpdateFunc(ctx, email, patientName, doctorName, date, status)
	}
	return nil
}

// MockProfileRepository implements ProfileRepository for testing
type MockProfileRepository struct {
	GetByIDFunc       func(ctx context.Context, id string) (*models.User, error)
	UpdateProfileFunc func(ctx context.Context, id string, fullName, phone *string) (*models.User, error)
	SearchDoctorsFunc func(ctx context.Context, nameQuery, specialtyID, specialtyName string) ([]*repositories.DoctorSummary, error)
}

func (m *MockProfileRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockProfileRepository) UpdateProfile(ctx context.Context, id string, fullName, phone *string) (*models.User, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, id, fullName, phone)
	}
	return nil, models.ErrNotFound
}

func (m *MockProfileRepository) SearchDoctors(ctx context.Context, nameQuery, specialtyID, specialtyName string) ([]*repositories.DoctorSummary, error) {
	if m.SearchDoctorsFunc != nil {
		return m.SearchDoctorsFunc(ctx, nameQuery, specialtyID, specialtyName)
	}
	return []*repositories.DoctorSummary{}, nil
}

// MockSpecialtyRepository implements SpecialtyRepository for testing
type MockSpecialtyRepository struct {
	ListFunc          func(ctx context.Context) ([]*models.Specialty, error)
	ListForDoctorFunc func(ctx context.Context, doctorID string) ([]*models.Specialty, error)
}

func (m *MockSpecialtyRepository) List(ctx context.Context) ([]*models.Specialty, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*models.Specialty{}, nil
}

func (m *MockSpecialtyRepository) ListForDoctor(ctx context.Context, doctorID string) ([]*models.Specialty, error) {
	if m.ListForDoctorFunc != nil {
		return m.ListForDoctorFunc(ctx, doctorID)
	}
	return []*models.Specialty{}, nil
}

// NewTestUser creates a patient account with the given password hashed for real,
// so Login exercises the actual scrypt verification.
func NewTestUser(id, email, password string) *models.User {
	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		panic(err)
	}
	now := time.Now()
	return &models.User{
		ID:           id,
		Role:         models.RolePatient,
		FullName:     "Test User",
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewTestSlot creates an available parent slot spanning [startDay, endDay].
func NewTestSlot(id, doctorID string, startDay, endDay time.Time) *models.Slot {
	return &models.Slot{
		ID:        id,
		DoctorID:  doctorID,
		StartTime: time.Date(startDay.Year(), startDay.Month(), startDay.Day(), 0, 0, 0, 0, time.Local),
		EndTime:   time.Date(endDay.Year(), endDay.Month(), endDay.Day(), 23, 59, 59, 0, time.Local),
		Status:    models.SlotAvailable,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}
