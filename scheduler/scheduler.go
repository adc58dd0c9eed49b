// Package scheduler runs the periodic badge sweep. Badges whose criteria
// depend on state that changes without a point award (leaderboard
// membership decaying in, distinct login days accumulating) only get
// picked up by a sweep.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"questkit/core"
)

// Evaluator re-checks one user's badge criteria.
type Evaluator interface {
	EvaluateBadges(ctx context.Context, user core.UserID) ([]core.Badge, error)
}

// UserSource enumerates users known to the progression store.
type UserSource interface {
	AllUserPoints(ctx context.Context) ([]core.UserPoints, error)
}

// Config controls sweep cadence and batching.
type Config struct {
	SweepInterval time.Duration
	BatchSize     int
}

// Scheduler periodically sweeps all known users through badge evaluation.
// One user's failure never aborts the batch or the sweep.
type Scheduler struct {
	eval     Evaluator
	users    UserSource
	interval time.Duration
	batch    int
	log      *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(eval Evaluator, users UserSource, cfg Config, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = time.Hour
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 100
	}
	return &Scheduler{eval: eval, users: users, interval: interval, batch: batch, log: log}
}

// Start launches the sweep loop. Calling Start on a running scheduler is a
// no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
	s.log.Info("badge sweep scheduler started", "interval", s.interval, "batch_size", s.batch)
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Sweep evaluates badges for every known user once, in batches.
func (s *Scheduler) Sweep(ctx context.Context) {
	started := time.Now()
	points, err := s.users.AllUserPoints(ctx)
	if err != nil {
		s.log.Error("badge sweep could not list users", "error", err)
		return
	}

	var evaluated, failed, granted int
	for start := 0; start < len(points); start += s.batch {
		end := start + s.batch
		if end > len(points) {
			end = len(points)
		}
		for _, up := range points[start:end] {
			if ctx.Err() != nil {
				return
			}
			badges, err := s.eval.EvaluateBadges(ctx, up.UserID)
			if err != nil {
				failed++
				s.log.Error("badge sweep evaluation failed", "user", up.UserID, "error", err)
				continue
			}
			evaluated++
			granted += len(badges)
		}
	}
	s.log.Info("badge sweep finished",
		"users", evaluated, "failed", failed, "badges_granted", granted,
		"elapsed", time.Since(started))
}
