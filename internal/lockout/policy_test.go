package lockout

import (
	"testing"
	"time"
)

func TestLockDuration(t *testing.T) {
	tests := []struct {
		priorLockCount int
		want           time.Duration
	}{
		{-3, 30 * time.Minute},
		{0, 30 * time.Minute},
		{1, 60 * time.Minute},
		{2, 90 * time.Minute},
		{3, 120 * time.Minute},
		{4, 24 * time.Hour},
		{100, 24 * time.Hour},
	}

	for _, tt := range tests {
		if got := LockDuration(tt.priorLockCount); got != tt.want {
			t.Errorf("LockDuration(%d) = %v, want %v", tt.priorLockCount, got, tt.want)
		}
	}
}
