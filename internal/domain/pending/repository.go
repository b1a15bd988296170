package pending

import "context"

// Repository describes pending-set storage needs from use cases.
type Repository interface {
	ReplaceAll(ctx context.Context, records []Record) error
	List(ctx context.Context) ([]Record, error)
	Get(ctx context.Context, id string) (Record, bool, error)
	Remove(ctx context.Context, id string) error
}
