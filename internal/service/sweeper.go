package service

import (
	"context"
	"time"

	"github.com/labstack/gommon/log"
)

type expiredHoldDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper periodically deletes hold rows that are no longer live.  Reads
// never rely on it; it only keeps seat_holds small.
type Sweeper struct {
	holds    expiredHoldDeleter
	interval time.Duration
	logger   *log.Logger
	now      Clock
}

// NewSweeper returns a sweeper running every interval.
func NewSweeper(holds expiredHoldDeleter, interval time.Duration, logger *log.Logger) *Sweeper {
	return &Sweeper{holds: holds, interval: interval, logger: logger}
}

// Start blocks until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Infof("hold sweeper started: interval=%s", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("hold sweeper stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	n, err := s.holds.DeleteExpired(ctx, s.now.read())
	if err != nil {
		s.logger.Errorf("hold sweeper: delete expired: %v", err)
		return
	}
	if n > 0 {
		s.logger.Debugf("hold sweeper: deleted %d expired holds", n)
	}
}
