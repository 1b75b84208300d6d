// ABOUTME: Read-through cache of map payloads keyed by map id
// ABOUTME: Concurrent misses collapse into one upstream fetch; entries are bounded by an LRU

package mapcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultMaxMaps bounds the cache when no size is configured.
const DefaultMaxMaps = 256

// ErrMapNotFound is returned when the robot has no payload for a map id.
var ErrMapNotFound = errors.New("map data not found")

// Fetcher reads maps from the robot.
type Fetcher interface {
	FetchMap(ctx context.Context, mapID int) (any, error)
	ListMaps(ctx context.Context) (any, error)
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits    uint64
	Misses  uint64
	Fetches uint64
	Entries int
}

// MapCache caches map payloads for the life of the process. An entry is
// created on the first successful fetch and only leaves through Evict or
// LRU pressure.
type MapCache struct {
	fetcher Fetcher
	entries *lru.Cache[int, any]
	group   singleflight.Group
	logger  *slog.Logger

	// epoch counts evictions. A fetch stores its payload only if no
	// eviction happened while it ran.
	mu    sync.Mutex
	epoch uint64

	hits    atomic.Uint64
	misses  atomic.Uint64
	fetches atomic.Uint64
}

// New creates a cache holding at most maxMaps entries. A non-positive size
// uses DefaultMaxMaps.
func New(fetcher Fetcher, maxMaps int, logger *slog.Logger) (*MapCache, error) {
	if maxMaps <= 0 {
		maxMaps = DefaultMaxMaps
	}
	if logger == nil {
		logger = slog.Default()
	}
	entries, err := lru.New[int, any](maxMaps)
	if err != nil {
		return nil, fmt.Errorf("creating map cache: %w", err)
	}
	return &MapCache{
		fetcher: fetcher,
		entries: entries,
		logger:  logger.With("component", "mapcache"),
	}, nil
}

// Get returns the payload for mapID, fetching it at most once across
// concurrent callers. A caller whose ctx ends stops waiting; the fetch keeps
// running and still populates the cache.
func (c *MapCache) Get(ctx context.Context, mapID int) (any, error) {
	if v, ok := c.entries.Get(mapID); ok {
		c.hits.Add(1)
		return v, nil
	}
	c.misses.Add(1)

	ch := c.group.DoChan(strconv.Itoa(mapID), func() (any, error) {
		// A flight that finished after our lookup already stored the entry.
		if v, ok := c.entries.Peek(mapID); ok {
			return v, nil
		}
		c.fetches.Add(1)
		started := c.currentEpoch()
		v, err := c.fetcher.FetchMap(context.WithoutCancel(ctx), mapID)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, fmt.Errorf("%w for ID %d", ErrMapNotFound, mapID)
		}
		if c.store(mapID, v, started) {
			c.logger.Debug("map cached", "map_id", mapID)
		}
		return v, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

// List returns the robot's map list. It is never cached.
func (c *MapCache) List(ctx context.Context) (any, error) {
	return c.fetcher.ListMaps(ctx)
}

// Evict drops the entry for mapID so the next Get fetches again. It reports
// whether an entry was present. A fetch already in flight still answers the
// callers waiting on it but does not repopulate the cache.
func (c *MapCache) Evict(mapID int) bool {
	c.mu.Lock()
	c.epoch++
	present := c.entries.Remove(mapID)
	c.mu.Unlock()
	c.group.Forget(strconv.Itoa(mapID))

	if present {
		c.logger.Info("map evicted", "map_id", mapID)
	}
	return present
}

func (c *MapCache) currentEpoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// store adds v unless an eviction happened since started.
func (c *MapCache) store(mapID int, v any, started uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != started {
		return false
	}
	c.entries.Add(mapID, v)
	return true
}

// Stats returns the current counters.
func (c *MapCache) Stats() Stats {
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Fetches: c.fetches.Load(),
		Entries: c.entries.Len(),
	}
}
