package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dorjecito/thermosafe-sub000/internal/domain"
)

// evaluationRunner is the Evaluator surface the scheduler needs.
type evaluationRunner interface {
	Run(ctx context.Context, family domain.HazardFamily) error
}

// sweepRunner is the Collector surface the scheduler needs.
type sweepRunner interface {
	Run(ctx context.Context) error
}

// Scheduler drives the evaluation job and the garbage collector on their
// respective intervals. Both fire immediately on startup, then tick.
type Scheduler struct {
	evaluator evaluationRunner
	collector sweepRunner
	clock     clockwork.Clock
	logger    *slog.Logger

	evalInterval time.Duration
	gcInterval   time.Duration

	ready atomic.Bool
}

// NewScheduler creates a Scheduler. clock is injectable for tests; pass
// clockwork.NewRealClock() in production.
func NewScheduler(
	evaluator evaluationRunner,
	collector sweepRunner,
	clock clockwork.Clock,
	logger *slog.Logger,
	evalInterval time.Duration,
	gcInterval time.Duration,
) *Scheduler {
	return &Scheduler{
		evaluator:    evaluator,
		collector:    collector,
		clock:        clock,
		logger:       logger,
		evalInterval: evalInterval,
		gcInterval:   gcInterval,
	}
}

// Run blocks until ctx is cancelled, firing both jobs once at startup and
// then on their intervals. Runs are sequential within the scheduler loop;
// intervals are long relative to run durations, and serializing the jobs
// keeps store and push traffic predictable.
func (s *Scheduler) Run(ctx context.Context) error {
	evalTicker := s.clock.NewTicker(s.evalInterval)
	defer evalTicker.Stop()
	gcTicker := s.clock.NewTicker(s.gcInterval)
	defer gcTicker.Stop()

	s.ready.Store(true)
	defer s.ready.Store(false)

	s.logger.Info("scheduler started",
		"eval_interval", s.evalInterval, "gc_interval", s.gcInterval)

	s.runEvaluations(ctx)
	s.runSweep(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping")
			return ctx.Err()
		case <-evalTicker.Chan():
			s.runEvaluations(ctx)
		case <-gcTicker.Chan():
			s.runSweep(ctx)
		}
	}
}

// CheckReadiness reports whether the scheduler loop is live. Wired to the
// readiness endpoint.
func (s *Scheduler) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return fmt.Errorf("scheduler not running")
	}
	return nil
}

// runEvaluations runs one evaluation pass per hazard family. Families run
// sequentially; a failed family never blocks the others.
func (s *Scheduler) runEvaluations(ctx context.Context) {
	for _, family := range domain.Families {
		if ctx.Err() != nil {
			return
		}
		if err := s.evaluator.Run(ctx, family); err != nil {
			s.logger.Error("evaluation run failed", "hazard", family, "error", err)
		}
	}
}

func (s *Scheduler) runSweep(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := s.collector.Run(ctx); err != nil {
		s.logger.Error("garbage collection run failed", "error", err)
	}
}
