// Package scheduler drives the trading session on a fixed interval.
package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"CoinPilot/internal/session"
)

// Scheduler ticks the trading session every interval. Overlap
// protection lives in the session itself: a tick that arrives while a
// cycle is still running is skipped there, not queued here.
type Scheduler struct {
	Cron    *cron.Cron
	Session *session.Session
	Ctx     context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, s *session.Session) *Scheduler {
	return &Scheduler{
		Cron:    cron.New(),
		Session: s,
		Ctx:     ctx,
	}
}

// Register schedules the trading cycle every intervalMinutes.
func (s *Scheduler) Register(intervalMinutes int) error {
	spec := fmt.Sprintf("@every %dm", intervalMinutes)
	if _, err := s.Cron.AddFunc(spec, s.tick); err != nil {
		return fmt.Errorf("register trading cycle: %w", err)
	}
	log.Printf("[INFO] trading cycle scheduled %s", spec)
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes one trading cycle immediately (for manual trigger /
// RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.tick()
}

func (s *Scheduler) tick() {
	log.Println("[INFO] running trading cycle")
	s.Session.TryCycle(s.Ctx)
}
