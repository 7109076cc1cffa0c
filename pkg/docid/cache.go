package docid

import (
	"context"
	"time"

	"threadscli/pkg/logger"
)

// DefaultTTL is how long a discovered Set stays fresh
const DefaultTTL = 24 * time.Hour

// Cache hands out doc id Sets, rediscovering them once the stored copy is stale
type Cache struct {
	store    *Store
	discover func(context.Context) (map[Query]string, string)
	ttl      time.Duration
	now      func() time.Time
	logger   logger.Logger
}

// NewCache creates a cache backed by store and d
func NewCache(store *Store, d *Discoverer, log logger.Logger) *Cache {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Cache{
		store:    store,
		discover: d.Discover,
		ttl:      DefaultTTL,
		now:      time.Now,
		logger:   log,
	}
}

// Store returns the backing file store
func (c *Cache) Store() *Store {
	return c.store
}

// Get returns the stored Set while it is fresh, otherwise discovers, persists
// and returns a new one. The returned Set always carries every query. The
// error is non-nil only when ctx ends, in which case nothing is persisted.
func (c *Cache) Get(ctx context.Context, force bool) (Set, error) {
	if !force {
		rec, err := c.store.Load()
		if err != nil {
			c.logger.WarnWithFields("doc id cache unreadable", map[string]interface{}{
				"error": err,
			})
		}
		if rec != nil {
			age := c.now().Sub(rec.Time())
			if age >= 0 && age < c.ttl {
				return Merge(rec.ProtocolIDs, rec.SessionToken), nil
			}
			c.logger.DebugWithFields("doc id cache stale", map[string]interface{}{
				"age": age,
			})
		}
	}

	if err := ctx.Err(); err != nil {
		return Set{}, err
	}

	found, token := c.discover(ctx)
	set := Merge(found, token)
	// an interrupted discovery is incomplete and must not be stored as fresh
	if err := ctx.Err(); err != nil {
		return set, err
	}

	rec := &Record{
		ProtocolIDs:  set.IDs,
		Timestamp:    c.now().UnixMilli(),
		SessionToken: token,
	}
	if err := c.store.Save(rec); err != nil {
		c.logger.WarnWithFields("failed to persist doc ids", map[string]interface{}{
			"path":  c.store.Path(),
			"error": err,
		})
	}
	return set, nil
}
