package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/meghashyamc/folio/content"
	"github.com/meghashyamc/folio/logger"
	"golang.org/x/sync/singleflight"
)

const DefaultTTL = 5 * time.Minute

const populateKey = "snapshot"

const maxReloadAttempts = 3

// Loader produces a complete corpus snapshot.
type Loader interface {
	Load(ctx context.Context) (*content.Snapshot, error)
}

// SnapshotCache memoizes the loader's output for a fixed window. At most one
// load runs at a time; callers arriving while it runs wait for its result.
// A failed load never replaces the previous snapshot.
type SnapshotCache struct {
	name         string
	loader       Loader
	logger       logger.Logger
	ttl          time.Duration
	retryBackoff time.Duration
	now          func() time.Time

	group singleflight.Group

	mu         sync.RWMutex
	snapshot   *content.Snapshot
	createdAt  time.Time
	stale      bool
	failedAt   time.Time
	generation uint64
	// invalidations counts Invalidate calls. A load only clears stale when
	// no invalidation arrived while it ran.
	invalidations uint64
	loadedEpoch   uint64
}

// loaded is a snapshot together with the invalidation count observed when
// its load started.
type loaded struct {
	snapshot *content.Snapshot
	epoch    uint64
}

type Option func(*SnapshotCache)

func WithTTL(ttl time.Duration) Option {
	return func(c *SnapshotCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithRetryBackoff serves the previous snapshot for d after a failed reload
// instead of rescanning on every call.
func WithRetryBackoff(d time.Duration) Option {
	return func(c *SnapshotCache) {
		c.retryBackoff = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *SnapshotCache) {
		c.now = now
	}
}

func New(name string, loader Loader, logger logger.Logger, opts ...Option) *SnapshotCache {
	c := &SnapshotCache{
		name:   name,
		loader: loader,
		logger: logger,
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *SnapshotCache) Name() string {
	return c.name
}

func (c *SnapshotCache) TTL() time.Duration {
	return c.ttl
}

// Get returns the current snapshot, reloading it when it has expired.
func (c *SnapshotCache) Get(ctx context.Context) (*content.Snapshot, error) {
	result, err := c.get(ctx)
	if err != nil {
		return nil, err
	}
	return result.snapshot, nil
}

// Reload invalidates the snapshot and returns one whose load started after
// the invalidation. A load already in flight is waited for but not accepted.
// If a concurrent failure puts the cache into retry backoff, the previous
// snapshot is returned after maxReloadAttempts.
func (c *SnapshotCache) Reload(ctx context.Context) (*content.Snapshot, error) {
	epoch := c.invalidate()
	var result loaded
	for attempt := 0; attempt < maxReloadAttempts; attempt++ {
		var err error
		result, err = c.get(ctx)
		if err != nil {
			return nil, err
		}
		if result.epoch >= epoch {
			break
		}
	}
	return result.snapshot, nil
}

func (c *SnapshotCache) get(ctx context.Context) (loaded, error) {
	if result, ok := c.cached(); ok {
		return result, nil
	}

	resultC := c.group.DoChan(populateKey, func() (any, error) {
		// The load is shared by every waiting caller, so one caller going
		// away must not cancel it.
		return c.populate(context.WithoutCancel(ctx))
	})

	select {
	case result := <-resultC:
		if result.Err != nil {
			return loaded{}, result.Err
		}
		return result.Val.(loaded), nil
	case <-ctx.Done():
		return loaded{}, ctx.Err()
	}
}

// Invalidate forces the next Get to reload. The current snapshot is kept
// as a fallback until the reload succeeds.
func (c *SnapshotCache) Invalidate() {
	c.invalidate()
}

func (c *SnapshotCache) invalidate() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stale = true
	c.failedAt = time.Time{}
	c.invalidations++
	c.logger.Info("content cache invalidated", "collection", c.name)
	return c.invalidations
}

// Reset drops all cached state.
func (c *SnapshotCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = nil
	c.createdAt = time.Time{}
	c.stale = false
	c.failedAt = time.Time{}
	c.loadedEpoch = 0
}

// Peek returns the last successfully loaded snapshot without loading.
func (c *SnapshotCache) Peek() (*content.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot, c.snapshot != nil
}

func (c *SnapshotCache) cached() (loaded, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snapshot, ok := c.servableLocked()
	if !ok {
		return loaded{}, false
	}
	return loaded{snapshot: snapshot, epoch: c.loadedEpoch}, true
}

func (c *SnapshotCache) servableLocked() (*content.Snapshot, bool) {
	if c.snapshot == nil {
		return nil, false
	}
	now := c.now()
	if !c.stale && now.Sub(c.createdAt) < c.ttl {
		return c.snapshot, true
	}
	if !c.failedAt.IsZero() && now.Sub(c.failedAt) < c.retryBackoff {
		return c.snapshot, true
	}
	return nil, false
}

func (c *SnapshotCache) populate(ctx context.Context) (loaded, error) {
	// A flight that finished just before this one started may already have
	// refreshed the snapshot.
	if result, ok := c.cached(); ok {
		return result, nil
	}

	c.mu.RLock()
	epoch := c.invalidations
	c.mu.RUnlock()

	start := c.now()
	snapshot, err := c.loader.Load(ctx)
	if err != nil {
		c.mu.Lock()
		c.failedAt = c.now()
		hasPrevious := c.snapshot != nil
		c.mu.Unlock()
		c.logger.Error("failed to reload content", "collection", c.name, "kept_previous_snapshot", hasPrevious, "err", err.Error())
		return loaded{}, fmt.Errorf("failed to reload %s content: %w", c.name, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	snapshot.Generation = c.generation
	c.snapshot = snapshot
	c.createdAt = c.now()
	c.loadedEpoch = epoch
	c.failedAt = time.Time{}
	// An invalidation during the load may describe a change the load missed.
	c.stale = c.invalidations != epoch
	c.logger.Info("content cache populated", "collection", c.name, "generation", snapshot.Generation, "documents", snapshot.Len(), "stale", c.stale, "took", c.now().Sub(start).String())

	return loaded{snapshot: snapshot, epoch: epoch}, nil
}
