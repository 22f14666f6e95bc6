// Package cache memoizes the per-query retrieval signals: embeddings,
// topic classifications, and keyword extractions.
//
// Entries are keyed by operation name plus the exact input text and expire
// after a TTL, so repeated searches for the same query within the window
// hit the cache instead of the model.
package cache

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
)

// Operation names used as the first key component.
const (
	// OpEmbed keys cached embeddings.
	OpEmbed = "embed"

	// OpClassify keys cached topic classifications.
	OpClassify = "classify"

	// OpKeywords keys cached keyword extractions.
	OpKeywords = "keywords"
)

const (
	// DefaultTTL is how long a cached signal stays valid.
	DefaultTTL = 300 * time.Second

	// DefaultMaxCost bounds resident cache bytes so the cache cannot grow
	// without limit under a stream of distinct queries.
	DefaultMaxCost = 32 << 20

	// DefaultNumCounters sizes ristretto's admission frequency sketch.
	DefaultNumCounters = 100_000
)

// Config configures the signal cache.
type Config struct {
	// TTL is the entry lifetime, DefaultTTL when zero.
	TTL time.Duration

	// MaxCost is the cache byte budget, DefaultMaxCost when zero.
	MaxCost int64

	// NumCounters sizes the admission sketch, DefaultNumCounters when zero.
	NumCounters int64
}

// Cache is a TTL-bounded memoization layer over signal computations.
type Cache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// New creates a signal cache. A nil config uses all defaults.
func New(cfg *Config) (*Cache, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	maxCost := cfg.MaxCost
	if maxCost <= 0 {
		maxCost = DefaultMaxCost
	}
	numCounters := cfg.NumCounters
	if numCounters <= 0 {
		numCounters = DefaultNumCounters
	}

	rc, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: numCounters,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return &Cache{
		cache: rc,
		ttl:   ttl,
	}, nil
}

// GetEmbedding returns the cached embedding for the text, computing and
// storing it on a miss. Load errors are returned to the caller and nothing
// is cached, so the next call retries.
func (c *Cache) GetEmbedding(ctx context.Context, text string, load func(context.Context) ([]float64, error)) ([]float64, error) {
	key := cacheKey(OpEmbed, text)
	if value, ok := c.cache.Get(key); ok {
		if vec, ok := value.([]float64); ok {
			return vec, nil
		}
	}

	vec, err := load(ctx)
	if err != nil {
		return nil, err
	}

	c.cache.SetWithTTL(key, vec, int64(8*len(vec)), c.ttl)
	c.cache.Wait()
	return vec, nil
}

// GetStrings returns the cached string-list signal for (op, input),
// computing and storing it on a miss. Load errors are returned to the
// caller and nothing is cached.
func (c *Cache) GetStrings(ctx context.Context, op, input string, load func(context.Context) ([]string, error)) ([]string, error) {
	key := cacheKey(op, input)
	if value, ok := c.cache.Get(key); ok {
		if list, ok := value.([]string); ok {
			return list, nil
		}
	}

	list, err := load(ctx)
	if err != nil {
		return nil, err
	}

	cost := int64(16)
	for _, s := range list {
		cost += int64(len(s))
	}
	c.cache.SetWithTTL(key, list, cost, c.ttl)
	c.cache.Wait()
	return list, nil
}

// Close releases the cache's background resources.
func (c *Cache) Close() {
	c.cache.Close()
}

// cacheKey joins operation and input with a separator no input contains,
// so distinct operations over the same text never collide.
func cacheKey(op, input string) string {
	return op + "\x00" + input
}
