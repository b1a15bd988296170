package resilience

import "sync"

// SingleFlight collapses concurrent calls for the same key into one
// execution; late callers block until the leader finishes and share its
// result. Refreshes use it so a manual trigger joins a scheduled fetch
// already in flight instead of stacking a second one.
type SingleFlight struct {
	mu      sync.Mutex
	flights map[string]*flight
}

type flight struct {
	done chan struct{}
	val  any
	err  error
}

// Do runs fn once per key at a time. The boolean reports whether the
// caller joined an in-flight execution instead of leading its own.
func (s *SingleFlight) Do(key string, fn func() (any, error)) (any, error, bool) {
	s.mu.Lock()
	if s.flights == nil {
		s.flights = make(map[string]*flight)
	}
	if f, ok := s.flights[key]; ok {
		s.mu.Unlock()
		<-f.done
		return f.val, f.err, true
	}

	f := &flight{done: make(chan struct{})}
	s.flights[key] = f
	s.mu.Unlock()

	f.val, f.err = fn()
	close(f.done)

	s.mu.Lock()
	delete(s.flights, key)
	s.mu.Unlock()

	return f.val, f.err, false
}
