// Package cache wraps repositories with a TTL read-through cache. Writes
// invalidate the affected keys before delegating.
package cache

import (
	"context"

	"github.com/mzawada/trainload/internal/domain/roster"
	basecache "github.com/mzawada/trainload/internal/platform/cache"
)

type RosterRepository struct {
	next  roster.Repository
	cache *basecache.Store
}

func NewRosterRepository(next roster.Repository, cache *basecache.Store) *RosterRepository {
	return &RosterRepository{next: next, cache: cache}
}

func (r *RosterRepository) ReplaceAll(ctx context.Context, entries []roster.Entry) error {
	r.cache.DeletePrefix(ctx, "roster:")
	return r.next.ReplaceAll(ctx, entries)
}

func (r *RosterRepository) List(ctx context.Context) ([]roster.Entry, error) {
	v, err := r.cache.GetOrLoad(ctx, "roster:list", func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return append([]roster.Entry(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]roster.Entry)
	return append([]roster.Entry(nil), items...), nil
}

func (r *RosterRepository) TeamFor(ctx context.Context, key string) (string, bool, error) {
	cacheKey := "roster:team:" + key
	v, err := r.cache.GetOrLoad(ctx, cacheKey, func(ctx context.Context) (any, error) {
		team, exists, err := r.next.TeamFor(ctx, key)
		if err != nil {
			return nil, err
		}
		return cachedTeam{team: team, exists: exists}, nil
	})
	if err != nil {
		return "", false, err
	}

	cached, _ := v.(cachedTeam)
	return cached.team, cached.exists, nil
}

type cachedTeam struct {
	team   string
	exists bool
}
