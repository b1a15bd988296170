package memory

import (
	"context"
	"sync"

	"github.com/mzawada/trainload/internal/domain/measurement"
)

type MeasurementRepository struct {
	mu    sync.RWMutex
	items []measurement.Measurement
}

func NewMeasurementRepository() *MeasurementRepository {
	return &MeasurementRepository{}
}

func (r *MeasurementRepository) ReplaceAll(_ context.Context, measurements []measurement.Measurement) error {
	items := make([]measurement.Measurement, len(measurements))
	copy(items, measurements)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = items
	return nil
}

func (r *MeasurementRepository) List(_ context.Context) ([]measurement.Measurement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]measurement.Measurement, len(r.items))
	copy(out, r.items)
	return out, nil
}
