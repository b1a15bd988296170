package memory

import (
	"context"
	"sync"

	"github.com/mzawada/trainload/internal/domain/pending"
)

type PendingRepository struct {
	mu     sync.RWMutex
	items  map[string]pending.Record
	orders []string
}

func NewPendingRepository() *PendingRepository {
	return &PendingRepository{
		items: make(map[string]pending.Record),
	}
}

func (r *PendingRepository) ReplaceAll(_ context.Context, records []pending.Record) error {
	items := make(map[string]pending.Record, len(records))
	orders := make([]string, 0, len(records))
	for _, record := range records {
		id := record.ID()
		if _, ok := items[id]; !ok {
			orders = append(orders, id)
		}
		items[id] = record
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = items
	r.orders = orders
	return nil
}

func (r *PendingRepository) List(_ context.Context) ([]pending.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pending.Record, 0, len(r.orders))
	for _, id := range r.orders {
		out = append(out, r.items[id])
	}
	return out, nil
}

func (r *PendingRepository) Get(_ context.Context, id string) (pending.Record, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.items[id]
	if !ok {
		return pending.Record{}, false, nil
	}
	return record, true, nil
}

func (r *PendingRepository) Remove(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return nil
	}
	delete(r.items, id)
	for i, candidate := range r.orders {
		if candidate == id {
			r.orders = append(r.orders[:i], r.orders[i+1:]...)
			break
		}
	}
	return nil
}
