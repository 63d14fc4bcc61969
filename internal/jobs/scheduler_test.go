package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nisschay/Edu-Rag/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestSchedulerCoalescesWhileRunning(t *testing.T) {
	var (
		mu      sync.Mutex
		runs    int
		started = make(chan struct{})
		release = make(chan struct{})
	)
	run := func(ctx context.Context, unitID uuid.UUID) error {
		mu.Lock()
		runs++
		first := runs == 1
		mu.Unlock()
		if first {
			close(started)
			<-release
		}
		return nil
	}

	s := NewScheduler(context.Background(), run, testLogger(t))
	unitID := uuid.New()
	s.Enqueue(unitID)
	<-started

	// Three uploads land while the first run is still in flight.
	s.Enqueue(unitID)
	s.Enqueue(unitID)
	s.Enqueue(unitID)
	close(release)
	s.Wait()

	mu.Lock()
	defer mu.Unlock()
	if runs != 2 {
		t.Fatalf("runs: want=2 (one in flight, one coalesced follow-up) got=%d", runs)
	}
}

func TestSchedulerIndependentUnitsRunSeparately(t *testing.T) {
	var (
		mu   sync.Mutex
		seen = map[uuid.UUID]int{}
	)
	run := func(ctx context.Context, unitID uuid.UUID) error {
		mu.Lock()
		seen[unitID]++
		mu.Unlock()
		return nil
	}

	s := NewScheduler(context.Background(), run, testLogger(t))
	a, b := uuid.New(), uuid.New()
	s.Enqueue(a)
	s.Enqueue(b)
	s.Wait()

	mu.Lock()
	defer mu.Unlock()
	if seen[a] != 1 || seen[b] != 1 {
		t.Fatalf("each unit should run once: a=%d b=%d", seen[a], seen[b])
	}
}

func TestSchedulerRecoversFromPanic(t *testing.T) {
	var (
		mu   sync.Mutex
		runs int
	)
	run := func(ctx context.Context, unitID uuid.UUID) error {
		mu.Lock()
		runs++
		first := runs == 1
		mu.Unlock()
		if first {
			panic("boom")
		}
		return nil
	}

	s := NewScheduler(context.Background(), run, testLogger(t))
	unitID := uuid.New()
	s.Enqueue(unitID)
	s.Wait()

	// The unit must be schedulable again after the panic.
	s.Enqueue(unitID)
	s.Wait()

	mu.Lock()
	defer mu.Unlock()
	if runs != 2 {
		t.Fatalf("runs: want=2 got=%d", runs)
	}

	deadline := time.After(time.Second)
	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-deadline:
		t.Fatal("Wait did not return")
	}
}
