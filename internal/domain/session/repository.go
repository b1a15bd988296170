package session

import "context"

// Repository describes session storage needs from use cases. ReplaceAll
// swaps the full set atomically: readers never observe a partial batch.
type Repository interface {
	ReplaceAll(ctx context.Context, sessions []Session) error
	List(ctx context.Context) ([]Session, error)
}
