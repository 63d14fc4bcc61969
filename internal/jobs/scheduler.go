package jobs

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/nisschay/Edu-Rag/internal/platform/logger"
)

// Runner executes one pipeline run for a unit.
type Runner func(ctx context.Context, unitID uuid.UUID) error

// Scheduler runs at most one pipeline per unit at a time. Enqueues that
// arrive while a unit is already running are coalesced into exactly one
// follow-up run, so the final state always reflects a run that saw the
// latest upload.
type Scheduler struct {
	mu      sync.Mutex
	running map[uuid.UUID]bool
	pending map[uuid.UUID]bool
	run     Runner
	log     *logger.Logger
	wg      sync.WaitGroup
	ctx     context.Context
}

func NewScheduler(ctx context.Context, run Runner, baseLog *logger.Logger) *Scheduler {
	return &Scheduler{
		running: make(map[uuid.UUID]bool),
		pending: make(map[uuid.UUID]bool),
		run:     run,
		log:     baseLog.With("component", "scheduler"),
		ctx:     ctx,
	}
}

// Enqueue requests a pipeline run for the unit and returns immediately.
func (s *Scheduler) Enqueue(unitID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[unitID] {
		s.pending[unitID] = true
		s.log.Debug("run coalesced", "unit_id", unitID)
		return
	}
	s.running[unitID] = true
	s.wg.Add(1)
	go s.loop(unitID)
}

func (s *Scheduler) loop(unitID uuid.UUID) {
	defer s.wg.Done()
	for {
		s.safeRun(unitID)

		s.mu.Lock()
		if s.pending[unitID] {
			delete(s.pending, unitID)
			s.mu.Unlock()
			continue
		}
		delete(s.running, unitID)
		s.mu.Unlock()
		return
	}
}

func (s *Scheduler) safeRun(unitID uuid.UUID) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("pipeline run panicked", "unit_id", unitID, "panic", r)
		}
	}()
	if err := s.run(s.ctx, unitID); err != nil {
		s.log.Error("pipeline run failed", "unit_id", unitID, "error", err)
	}
}

// Wait blocks until every in-flight run, including coalesced follow-ups,
// has finished.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
