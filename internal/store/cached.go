package store

import (
	"context"
	"encoding/json"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedRepo serves optimization reads from an LRU cache in front of Repo.
// Measurements always go to the underlying repository.
type CachedRepo struct {
	Repo
	cache *lru.Cache[string, Optimization]
}

// NewCachedRepo wraps repo with a cache of size entries.
func NewCachedRepo(repo Repo, size int) (*CachedRepo, error) {
	if size <= 0 {
		size = 1024
	}
	cache, err := lru.New[string, Optimization](size)
	if err != nil {
		return nil, err
	}
	return &CachedRepo{Repo: repo, cache: cache}, nil
}

func (c *CachedRepo) GetOptimization(ctx context.Context, userID, id string) (Optimization, error) {
	if o, ok := c.cache.Get(id); ok {
		if o.UserID != userID {
			return Optimization{}, ErrNotFound
		}
		return o, nil
	}
	o, err := c.Repo.GetOptimization(ctx, userID, id)
	if err != nil {
		return o, err
	}
	c.cache.Add(id, o)
	return o, nil
}

func (c *CachedRepo) UpdateStatus(ctx context.Context, id string, status Status) error {
	defer c.invalidate(id)()
	return c.Repo.UpdateStatus(ctx, id, status)
}

func (c *CachedRepo) UpdateConfig(ctx context.Context, id string, config json.RawMessage) error {
	defer c.invalidate(id)()
	return c.Repo.UpdateConfig(ctx, id, config)
}

func (c *CachedRepo) DeleteOptimization(ctx context.Context, userID, id string) error {
	defer c.invalidate(id)()
	return c.Repo.DeleteOptimization(ctx, userID, id)
}

// invalidate evicts id now and returns a func evicting it again, for use
// after the write. A read racing the write may have cached the old record
// in between.
func (c *CachedRepo) invalidate(id string) func() {
	c.cache.Remove(id)
	return func() { c.cache.Remove(id) }
}

// Len returns the number of cached optimizations.
func (c *CachedRepo) Len() int {
	return c.cache.Len()
}
