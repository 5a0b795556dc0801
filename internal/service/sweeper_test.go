package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

type countingSweeper struct {
	calls atomic.Int32
}

func (c *countingSweeper) SweepIdle(time.Time) int {
	c.calls.Add(1)
	return 1
}

func TestSessionSweeperInvalidSchedule(t *testing.T) {
	sw := NewSessionSweeper(&countingSweeper{}, "not a schedule", zaptest.NewLogger(t))
	if err := sw.Start(context.Background()); err == nil {
		t.Fatal("Start should reject an invalid schedule")
	}
}

func TestSessionSweeperRuns(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the cron tick")
	}

	counter := &countingSweeper{}
	sw := NewSessionSweeper(counter, "@every 1s", zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sw.Start(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for counter.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("Start: %v", err)
	}
	if counter.calls.Load() == 0 {
		t.Fatal("sweep job never ran")
	}
}
