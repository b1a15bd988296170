package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mzawada/trainload/internal/platform/resilience"
)

type item struct {
	value    any
	deadline time.Time
}

func (i item) expired(now time.Time) bool {
	return !i.deadline.IsZero() && !i.deadline.After(now)
}

// Store is an in-process TTL cache with single-flight loading. The roster
// repository sits behind it so repeated identity lookups between refreshes
// do not hit the backing repository.
type Store struct {
	mu     sync.RWMutex
	items  map[string]item
	ttl    time.Duration
	flight resilience.SingleFlight
}

// NewStore builds a store whose entries live for ttl; a non-positive ttl
// keeps entries until they are deleted.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		items: make(map[string]item),
		ttl:   ttl,
	}
}

func (s *Store) Get(_ context.Context, key string) (any, bool) {
	if key == "" {
		return nil, false
	}

	s.mu.RLock()
	cached, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if cached.expired(time.Now()) {
		s.mu.Lock()
		delete(s.items, key)
		s.mu.Unlock()
		return nil, false
	}

	return cached.value, true
}

func (s *Store) Set(_ context.Context, key string, value any) {
	if key == "" {
		return
	}

	var deadline time.Time
	if s.ttl > 0 {
		deadline = time.Now().Add(s.ttl)
	}

	s.mu.Lock()
	s.items[key] = item{value: value, deadline: deadline}
	s.mu.Unlock()
}

func (s *Store) Delete(_ context.Context, key string) {
	if key == "" {
		return
	}

	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
}

// DeletePrefix drops every entry under a key prefix; refreshes use it to
// invalidate one dataset's entries at once.
func (s *Store) DeletePrefix(_ context.Context, prefix string) {
	if prefix == "" {
		return
	}

	s.mu.Lock()
	for key := range s.items {
		if strings.HasPrefix(key, prefix) {
			delete(s.items, key)
		}
	}
	s.mu.Unlock()
}

// GetOrLoad returns the cached value or loads and caches it, collapsing
// concurrent loads for the same key into one loader call.
func (s *Store) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (any, error)) (any, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if key == "" {
		return loader(ctx)
	}

	if value, ok := s.Get(ctx, key); ok {
		return value, nil
	}

	value, err, _ := s.flight.Do(key, func() (any, error) {
		// A concurrent leader may have filled the entry while this caller
		// was waiting for the lock.
		if cached, ok := s.Get(ctx, key); ok {
			return cached, nil
		}

		loaded, loadErr := loader(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		s.Set(ctx, key, loaded)
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}

	return value, nil
}
