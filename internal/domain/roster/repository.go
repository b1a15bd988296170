package roster

import "context"

// Repository describes roster lookup needs from use cases.
type Repository interface {
	ReplaceAll(ctx context.Context, entries []Entry) error
	List(ctx context.Context) ([]Entry, error)
	TeamFor(ctx context.Context, key string) (string, bool, error)
}
