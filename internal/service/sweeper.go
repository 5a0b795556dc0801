package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SessionSweeper periodically discards idle study sessions.
type SessionSweeper struct {
	sessions IdleSweeper
	schedule string
	logger   *zap.Logger
}

// NewSessionSweeper creates a sweeper running on the given cron schedule.
func NewSessionSweeper(sessions IdleSweeper, schedule string, logger *zap.Logger) *SessionSweeper {
	return &SessionSweeper{
		sessions: sessions,
		schedule: schedule,
		logger:   logger,
	}
}

// Start runs the sweep schedule until ctx is cancelled.
func (s *SessionSweeper) Start(ctx context.Context) error {
	c := cron.New(cron.WithLocation(time.UTC))

	_, err := c.AddFunc(s.schedule, func() {
		if n := s.sessions.SweepIdle(time.Now()); n > 0 {
			s.logger.Info("idle study sessions discarded", zap.Int("count", n))
		}
	})
	if err != nil {
		return fmt.Errorf("add sweep job %q: %w", s.schedule, err)
	}

	c.Start()
	s.logger.Info("session sweeper started", zap.String("schedule", s.schedule))

	<-ctx.Done()

	<-c.Stop().Done()
	s.logger.Info("session sweeper stopped")

	return nil
}
