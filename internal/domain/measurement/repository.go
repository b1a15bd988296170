package measurement

import "context"

// Repository describes measurement storage needs from use cases.
type Repository interface {
	ReplaceAll(ctx context.Context, measurements []Measurement) error
	List(ctx context.Context) ([]Measurement, error)
}
