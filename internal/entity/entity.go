// Package entity gives each panel a consistent view of the currently
// selected domain entity (state, county, property), propagated across
// panels via the bus with version-checked adoption.
package entity

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"parcelgrid/internal/bus"
	"parcelgrid/internal/log"
)

// Type classifies a selectable domain entity.
type Type string

const (
	TypeState    Type = "state"
	TypeCounty   Type = "county"
	TypeProperty Type = "property"
)

// Entity is a domain object shared across panels. Attrs carries
// domain-specific fields the core does not interpret.
type Entity struct {
	ID    string         `json:"id"`
	Type  Type           `json:"type"`
	Name  string         `json:"name"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// SelectionPayload is the bus payload for entity_selected_<type>
// events.
type SelectionPayload struct {
	Entity Entity
}

func (SelectionPayload) EventPayload() {}

// EventType returns the bus event type for selections of an entity
// type.
func EventType(t Type) bus.EventType {
	return bus.EntitySelected(string(t))
}

// Fetcher is the external data-access collaborator. Any rejection is
// treated uniformly as "selection failed."
type Fetcher interface {
	FetchEntity(ctx context.Context, typ Type, id string) (Entity, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, typ Type, id string) (Entity, error)

func (f FetcherFunc) FetchEntity(ctx context.Context, typ Type, id string) (Entity, error) {
	return f(ctx, typ, id)
}

// NoFetcher is the fallback for contexts built without data access:
// every selection fails cleanly instead of panicking on a nil fetcher.
func NoFetcher(ctx context.Context, typ Type, id string) (Entity, error) {
	return Entity{}, fmt.Errorf("no entity fetcher configured: cannot resolve %s %q", typ, id)
}

// Cache TTL defaults for fetched entities.
const (
	DefaultCacheTTL     = 10 * time.Minute
	DefaultCacheCleanup = 30 * time.Minute
)

// CachedFetcher wraps a Fetcher with a read-through in-memory cache so
// repeated selections of the same entity skip the data-access round
// trip. Failures are never cached.
type CachedFetcher struct {
	inner Fetcher
	cache *gocache.Cache
	ttl   time.Duration
	skip  bool
}

// NewCachedFetcher creates a read-through cache over inner. A zero ttl
// uses the default. skip disables caching entirely (tests, debugging).
func NewCachedFetcher(inner Fetcher, ttl time.Duration, skip bool) *CachedFetcher {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedFetcher{
		inner: inner,
		cache: gocache.New(ttl, DefaultCacheCleanup),
		ttl:   ttl,
		skip:  skip,
	}
}

func cacheKey(typ Type, id string) string {
	return fmt.Sprintf("%s/%s", typ, id)
}

func (c *CachedFetcher) FetchEntity(ctx context.Context, typ Type, id string) (Entity, error) {
	if c.skip {
		return c.inner.FetchEntity(ctx, typ, id)
	}

	key := cacheKey(typ, id)
	if value, found := c.cache.Get(key); found {
		if e, ok := value.(Entity); ok {
			log.Debug(log.CatEntity, "cache hit", "key", key)
			return e, nil
		}
		log.Error(log.CatEntity, "wrong type assertion when getting cached entity", "key", key)
	}

	e, err := c.inner.FetchEntity(ctx, typ, id)
	if err != nil {
		return Entity{}, err
	}
	c.cache.Set(key, e, c.ttl)
	return e, nil
}

// Invalidate drops a cached entity, forcing the next fetch through.
func (c *CachedFetcher) Invalidate(typ Type, id string) {
	c.cache.Delete(cacheKey(typ, id))
}
