package resilience

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSingleFlightCollapsesConcurrentCalls(t *testing.T) {
	var g SingleFlight
	var executions atomic.Int32
	release := make(chan struct{})
	leaderRunning := make(chan struct{})
	var leaderOnce sync.Once

	const callers = 8
	var wg sync.WaitGroup
	results := make([]any, callers)
	shared := make([]bool, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			val, err, wasShared := g.Do("refresh:sessions", func() (any, error) {
				executions.Add(1)
				leaderOnce.Do(func() { close(leaderRunning) })
				<-release
				return 42, nil
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			results[idx] = val
			shared[idx] = wasShared
		}(i)
	}

	// Hold the leader inside fn until the other callers have had a
	// chance to enter Do and join the flight; otherwise on a single
	// CPU the goroutines run sequentially and each leads its own.
	<-leaderRunning
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := executions.Load(); got != 1 {
		t.Fatalf("expected one execution, got %d", got)
	}
	sharedCount := 0
	for i := 0; i < callers; i++ {
		if results[i] != 42 {
			t.Fatalf("caller %d got %v, want 42", i, results[i])
		}
		if shared[i] {
			sharedCount++
		}
	}
	if sharedCount != callers-1 {
		t.Fatalf("expected %d shared results, got %d", callers-1, sharedCount)
	}
}

func TestSingleFlightSeparateKeysRunIndependently(t *testing.T) {
	var g SingleFlight

	val, err, shared := g.Do("a", func() (any, error) { return "first", nil })
	if err != nil || shared || val != "first" {
		t.Fatalf("unexpected result: val=%v err=%v shared=%t", val, err, shared)
	}

	val, err, shared = g.Do("b", func() (any, error) { return "second", nil })
	if err != nil || shared || val != "second" {
		t.Fatalf("unexpected result: val=%v err=%v shared=%t", val, err, shared)
	}
}

func TestSingleFlightRunsAgainAfterCompletion(t *testing.T) {
	var g SingleFlight
	var executions atomic.Int32

	for i := 0; i < 3; i++ {
		_, _, _ = g.Do("k", func() (any, error) {
			executions.Add(1)
			return nil, nil
		})
	}

	if got := executions.Load(); got != 3 {
		t.Fatalf("expected sequential calls to execute each time, got %d", got)
	}
}
