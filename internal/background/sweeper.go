package background

import (
	"context"
	"log/slog"
	"time"
)

// SlotCloser flips parent slots whose range has fully passed to closed.
type SlotCloser interface {
	CloseExpired(ctx context.Context, now time.Time) (int64, error)
}

// SlotSweeper periodically closes expired parent slots so availability reads
// never surface days that can no longer be booked.
type SlotSweeper struct {
	slots    SlotCloser
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

func NewSlotSweeper(slots SlotCloser, logger *slog.Logger, interval time.Duration) *SlotSweeper {
	return &SlotSweeper{
		slots:    slots,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep. It blocks until Stop is called or the
// context is cancelled; run it in its own goroutine.
func (s *SlotSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on startup
	s.sweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopCh:
			s.logger.Info("slot sweeper stopped")
			return
		case <-ctx.Done():
			s.logger.Info("slot sweeper context cancelled")
			return
		}
	}
}

func (s *SlotSweeper) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	closed, err := s.slots.CloseExpired(sweepCtx, time.Now())
	if err != nil {
		s.logger.Error("failed to close expired slots", slog.Any("error", err))
		return
	}

	if closed > 0 {
		s.logger.Info("expired slots closed", slog.Int64("rows_closed", closed))
	}
}

// Stop signals the sweeper to stop
func (s *SlotSweeper) Stop() {
	close(s.stopCh)
}
