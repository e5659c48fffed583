package artifact

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
)

// Entry is one rendered video held for streaming.
type Entry struct {
	Data      []byte
	OwnerID   int64
	CreatedAt time.Time
}

// Spill is an optional second tier that outlives the process.
type Spill interface {
	Put(ctx context.Context, key string, e Entry, ttl time.Duration) error
	Get(ctx context.Context, key string) (Entry, bool, error)
}

// Cache holds recently rendered artifacts in a bounded LRU with a TTL. When a
// spill tier is configured, writes go to both and L1 misses fall through to
// it. Spill failures are logged and otherwise ignored.
type Cache struct {
	l1    *expirable.LRU[string, Entry]
	spill Spill
	ttl   time.Duration
	log   zerolog.Logger
}

func New(size int, ttl time.Duration, spill Spill, log zerolog.Logger) *Cache {
	c := &Cache{
		spill: spill,
		ttl:   ttl,
		log:   log.With().Str("component", "artifact_cache").Logger(),
	}
	c.l1 = expirable.NewLRU[string, Entry](size, c.onEvict, ttl)
	return c
}

func (c *Cache) onEvict(key string, e Entry) {
	c.log.Debug().Str("key", key).Int("bytes", len(e.Data)).Msg("artifact evicted")
}

func (c *Cache) Put(ctx context.Context, key string, e Entry) {
	c.l1.Add(key, e)

	if c.spill != nil {
		if err := c.spill.Put(ctx, key, e, c.ttl); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("failed to spill artifact")
		}
	}
}

func (c *Cache) Get(ctx context.Context, key string) (Entry, bool) {
	if e, ok := c.l1.Get(key); ok {
		return e, true
	}
	if c.spill == nil {
		return Entry{}, false
	}

	e, ok, err := c.spill.Get(ctx, key)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("failed to read spilled artifact")
		return Entry{}, false
	}
	if !ok {
		return Entry{}, false
	}

	c.l1.Add(key, e)
	return e, true
}

func (c *Cache) Len() int {
	return c.l1.Len()
}
