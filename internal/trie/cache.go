package trie

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/latticelayer/execution-core/internal/metrics"
)

// defaultCacheSize bounds the number of trie node encodings held in memory
// per CachedDB. Nodes are content-addressed and immutable, so a plain LRU
// eviction policy is sufficient — there is no invalidation to reason about.
const defaultCacheSize = 4096

// CachedDB wraps a DB with a bounded in-memory cache of node encodings,
// reporting hit/miss counts to metrics.TrieCacheHits/TrieCacheMisses. Puts
// populate the cache so a node written and immediately re-read (the common
// case while building up a block's state changes) never round-trips through
// the underlying store.
type CachedDB struct {
	db    DB
	cache *lru.Cache[string, []byte]
}

// NewCachedDB wraps db with an LRU of the given size. A non-positive size
// falls back to defaultCacheSize.
func NewCachedDB(db DB, size int) *CachedDB {
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		// Only returned for a non-positive size, which is excluded above.
		panic(err)
	}
	return &CachedDB{db: db, cache: cache}
}

func (c *CachedDB) Get(key []byte) ([]byte, bool, error) {
	if v, ok := c.cache.Get(string(key)); ok {
		metrics.TrieCacheHits.Inc()
		return v, true, nil
	}
	metrics.TrieCacheMisses.Inc()
	v, ok, err := c.db.Get(key)
	if err != nil || !ok {
		return v, ok, err
	}
	c.cache.Add(string(key), v)
	return v, true, nil
}

func (c *CachedDB) Put(key, value []byte) error {
	if err := c.db.Put(key, value); err != nil {
		return err
	}
	c.cache.Add(string(key), append([]byte(nil), value...))
	return nil
}
