package artifact

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSpill struct {
	mu      sync.Mutex
	entries map[string]Entry
	ttls    map[string]time.Duration
	err     error
	gets    int
}

func newFakeSpill() *fakeSpill {
	return &fakeSpill{entries: map[string]Entry{}, ttls: map[string]time.Duration{}}
}

func (f *fakeSpill) Put(ctx context.Context, key string, e Entry, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries[key] = e
	f.ttls[key] = ttl
	return nil
}

func (f *fakeSpill) Get(ctx context.Context, key string) (Entry, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.err != nil {
		return Entry{}, false, f.err
	}
	e, ok := f.entries[key]
	return e, ok, nil
}

func TestCachePutGet(t *testing.T) {
	c := New(4, time.Hour, nil, zerolog.Nop())
	ctx := context.Background()

	c.Put(ctx, "a.mp4", Entry{Data: []byte("video"), OwnerID: 7})

	e, ok := c.Get(ctx, "a.mp4")
	require.True(t, ok)
	assert.Equal(t, []byte("video"), e.Data)
	assert.Equal(t, int64(7), e.OwnerID)

	_, ok = c.Get(ctx, "missing.mp4")
	assert.False(t, ok)
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(2, time.Hour, nil, zerolog.Nop())
	ctx := context.Background()

	c.Put(ctx, "a", Entry{Data: []byte("a")})
	c.Put(ctx, "b", Entry{Data: []byte("b")})
	_, _ = c.Get(ctx, "a")
	c.Put(ctx, "c", Entry{Data: []byte("c")})

	_, okA := c.Get(ctx, "a")
	_, okB := c.Get(ctx, "b")
	_, okC := c.Get(ctx, "c")
	assert.True(t, okA)
	assert.False(t, okB)
	assert.True(t, okC)
	assert.Equal(t, 2, c.Len())
}

func TestCacheExpires(t *testing.T) {
	c := New(4, 20*time.Millisecond, nil, zerolog.Nop())
	ctx := context.Background()

	c.Put(ctx, "a", Entry{Data: []byte("a")})
	time.Sleep(60 * time.Millisecond)

	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)
}

func TestCacheSpillsAndPromotes(t *testing.T) {
	spill := newFakeSpill()
	ctx := context.Background()

	c := New(4, time.Hour, spill, zerolog.Nop())
	c.Put(ctx, "a", Entry{Data: []byte("video"), OwnerID: 1})
	assert.Equal(t, time.Hour, spill.ttls["a"])

	// A fresh process only has the spill tier.
	restarted := New(4, time.Hour, spill, zerolog.Nop())
	e, ok := restarted.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, []byte("video"), e.Data)
	assert.Equal(t, 1, spill.gets)

	_, ok = restarted.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, 1, spill.gets, "second read should be served from memory")
}

func TestCacheToleratesSpillFailure(t *testing.T) {
	spill := newFakeSpill()
	spill.err = errors.New("redis down")
	ctx := context.Background()

	c := New(4, time.Hour, spill, zerolog.Nop())
	c.Put(ctx, "a", Entry{Data: []byte("video")})

	_, ok := c.Get(ctx, "a")
	assert.True(t, ok)

	_, ok = c.Get(ctx, "b")
	assert.False(t, ok)
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := New(64, time.Hour, nil, zerolog.Nop())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := string(rune('a' + i))
			c.Put(ctx, key, Entry{Data: []byte(key)})
			for j := 0; j < 100; j++ {
				e, ok := c.Get(ctx, key)
				assert.True(t, ok)
				assert.Equal(t, key, string(e.Data))
			}
		}()
	}
	wg.Wait()
}

func TestEntryFieldsRoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 4, 5, 6, 7, 8, time.UTC)
	fields := entryFields(Entry{Data: []byte{0, 1, 2}, OwnerID: 42, CreatedAt: created})

	asStrings := map[string]string{}
	for k, v := range fields {
		switch v := v.(type) {
		case string:
			asStrings[k] = v
		case []byte:
			asStrings[k] = string(v)
		}
	}

	e, err := entryFromFields(asStrings)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2}, e.Data)
	assert.Equal(t, int64(42), e.OwnerID)
	assert.True(t, created.Equal(e.CreatedAt))

	_, err = entryFromFields(map[string]string{"owner": "x"})
	assert.Error(t, err)
}
