package models

import "time"

// Appointment statuses
const (
	AppointmentPending   = "pending"
	AppointmentConfirmed = "confirmed"
	AppointmentRejected  = "rejected"
	AppointmentCancelled = "cancelled"
)

type Appointment struct {
	ID         string
	PatientID  string
	DoctorID   string
	SlotID     string
	ChosenDate time.Time // calendar date, midnight
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ChosenDay returns the chosen date formatted YYYY-MM-DD.
func (a *Appointment) ChosenDay() string {
	return a.ChosenDate.Format(DateLayout)
}

// AppointmentView is an appointment joined with the counterparty's name,
// as returned by the listing queries.
type AppointmentView struct {
	Appointment
	CounterpartID   string
	CounterpartName string
}
