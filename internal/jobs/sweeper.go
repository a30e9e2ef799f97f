package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"docvault/internal/repository"
)

// Sweeper periodically purges expired download tokens. Used tokens are kept
// until expiry so double-spend attempts stay distinguishable from unknown
// links.
type Sweeper struct {
	tokens   repository.TokenRepository
	interval time.Duration
	log      *zap.Logger
}

// NewSweeper constructs a Sweeper; interval <= 0 defaults to one hour.
func NewSweeper(tokens repository.TokenRepository, interval time.Duration, log *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{tokens: tokens, interval: interval, log: log}
}

// Run sweeps on a ticker until ctx is cancelled. Failures are logged and the
// loop keeps going.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.tokens.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		s.log.Error("expired-token sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.log.Info("expired download tokens swept", zap.Int64("count", n))
	}
}
