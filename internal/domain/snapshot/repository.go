package snapshot

import "context"

// Repository describes archive persistence needs from use cases. One row
// per (source, payload hash); refetching unchanged data is a no-op.
type Repository interface {
	Save(ctx context.Context, snap Snapshot) error
}
