package models

import "time"

// Slot statuses
const (
	SlotAvailable = "available"
	SlotBooked    = "booked"
	SlotClosed    = "closed"
)

// Slot is a doctor-declared contiguous availability range (the "parent slot").
// Each whole calendar day inside [StartTime, EndTime] is a bookable unit,
// derived on read rather than stored.
type Slot struct {
	ID        string
	DoctorID  string
	StartTime time.Time
	EndTime   time.Time
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Days enumerates the calendar days spanned by the slot, formatted YYYY-MM-DD.
func (s *Slot) Days() []string {
	start := startOfDay(s.StartTime)
	end := startOfDay(s.EndTime)

	var out []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(DateLayout))
	}
	return out
}

// DailySlot is a virtual per-day bookable entry expanded from a parent slot.
// It is never persisted; the ID exists only so clients can reference a day.
type DailySlot struct {
	ID       string `json:"id"` // "<slot_id>:<YYYY-MM-DD>"
	SlotID   string `json:"slot_id"`
	DoctorID string `json:"doctor_id"`
	Date     string `json:"date"` // YYYY-MM-DD
	Status   string `json:"status"`
}

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
