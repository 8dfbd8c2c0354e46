// Package scheduler triggers the digest pipeline on weekday evenings.
// It is a two-state machine: Idle, and Running while a pipeline cycle
// is in flight. A trigger that lands while Running is dropped, so at
// most one run exists at a time.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"portfolio-digest-bot/internal/logger"
	"portfolio-digest-bot/internal/metrics"
	"portfolio-digest-bot/internal/store"
)

// Scheduler states, as reported by Status.
const (
	StateIdle    = "idle"
	StateRunning = "running"
)

// RunFunc is one pipeline cycle. The scheduler ignores its error; run
// failures are logged and the next trigger proceeds independently.
type RunFunc func(ctx context.Context) error

type Scheduler struct {
	cfg      *store.Config
	loc      *time.Location
	run      RunFunc
	recorder *metrics.Recorder

	running   atomic.Bool
	firedDate string // yyyy-mm-dd of the last trigger, local zone

	mu      sync.Mutex
	lastRun time.Time

	// Overridable in tests
	now func() time.Time
}

func New(cfg *store.Config, run RunFunc, recorder *metrics.Recorder) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		cfg:      cfg,
		loc:      loc,
		run:      run,
		recorder: recorder,
		now:      time.Now,
	}, nil
}

// Start polls the trigger gate until ctx is cancelled. An in-flight run
// is abandoned with the process; there is no drain.
func (s *Scheduler) Start(ctx context.Context) {
	interval := time.Duration(s.cfg.Schedule.PollSeconds) * time.Second
	tick := time.NewTicker(interval)
	defer tick.Stop()

	logger.Info(ctx, "Scheduler started",
		"hour", s.cfg.Schedule.Hour,
		"minute", s.cfg.Schedule.Minute,
		"timezone", s.cfg.Timezone,
		"poll", interval.String(),
	)

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Scheduler stopped")
			return
		case <-tick.C:
			s.tick(ctx)
		}
	}
}

// tick evaluates the gate once and launches a run when it opens.
func (s *Scheduler) tick(ctx context.Context) {
	now := s.now().In(s.loc)
	if !s.shouldFire(now) {
		return
	}

	if !s.running.CompareAndSwap(false, true) {
		logger.Warn(ctx, "Trigger dropped, run already in progress")
		s.recorder.RecordDroppedTrigger()
		return
	}
	// Marked only after winning the CAS so a dropped trigger can fire
	// again once the active run finishes within the window.
	s.firedDate = dateKey(now)

	go func() {
		defer s.running.Store(false)
		logger.Info(ctx, "Trigger fired, starting run", "at", now.Format(time.RFC3339))
		if err := s.run(ctx); err != nil {
			logger.ErrorWithErr(ctx, "Run failed", err)
		}
		s.mu.Lock()
		s.lastRun = s.now()
		s.mu.Unlock()
	}()
}

// shouldFire reports whether the trigger gate is open at t: a weekday,
// at or past the configured time, and not already fired today.
func (s *Scheduler) shouldFire(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	if t.Hour() < s.cfg.Schedule.Hour {
		return false
	}
	if t.Hour() == s.cfg.Schedule.Hour && t.Minute() < s.cfg.Schedule.Minute {
		return false
	}
	return s.firedDate != dateKey(t)
}

// Status reports the current state and the completion time of the last
// run, for the health endpoint.
func (s *Scheduler) Status() (state string, lastRun time.Time) {
	state = StateIdle
	if s.running.Load() {
		state = StateRunning
	}
	s.mu.Lock()
	lastRun = s.lastRun
	s.mu.Unlock()
	return state, lastRun
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
