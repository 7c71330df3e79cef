package auth

import "time"

// EnumerationDelay slows down login attempts against unknown emails so the
// "no such account" path does not return measurably faster than a real
// password check. The delay is fixed; wrong-password and lockout paths are
// not delayed (they already pay the KDF cost).
type EnumerationDelay struct {
	delay time.Duration
}

func NewEnumerationDelay(delay time.Duration) *EnumerationDelay {
	return &EnumerationDelay{delay: delay}
}

func (d *EnumerationDelay) Wait() {
	if d == nil || d.delay <= 0 {
		return
	}
	time.Sleep(d.delay)
}
