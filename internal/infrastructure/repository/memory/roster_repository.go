package memory

import (
	"context"
	"sync"

	"github.com/mzawada/trainload/internal/domain/roster"
)

type RosterRepository struct {
	mu     sync.RWMutex
	items  map[string]roster.Entry
	orders []string
}

func NewRosterRepository() *RosterRepository {
	return &RosterRepository{
		items: make(map[string]roster.Entry),
	}
}

func (r *RosterRepository) ReplaceAll(_ context.Context, entries []roster.Entry) error {
	items := make(map[string]roster.Entry, len(entries))
	orders := make([]string, 0, len(entries))
	for _, entry := range entries {
		if _, ok := items[entry.Key]; !ok {
			orders = append(orders, entry.Key)
		}
		items[entry.Key] = entry
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = items
	r.orders = orders
	return nil
}

func (r *RosterRepository) List(_ context.Context) ([]roster.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]roster.Entry, 0, len(r.orders))
	for _, key := range r.orders {
		out = append(out, r.items[key])
	}
	return out, nil
}

func (r *RosterRepository) TeamFor(_ context.Context, key string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.items[key]
	if !ok {
		return "", false, nil
	}
	return entry.Team, true, nil
}
