package playercache

import (
	"sync"
	"time"

	"github.com/ytget/ytstream/types"
)

type memoryEntry struct {
	set   types.PlayerFunctionSet
	expAt time.Time
}

// MemoryCache is an in-process Cache with TTL from write time.
type MemoryCache struct {
	mu   sync.RWMutex
	ttl  time.Duration
	data map[string]memoryEntry

	// test hook
	now func() time.Time
}

// NewMemoryCache creates an in-memory cache. ttl<=0 uses DefaultTTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{
		ttl:  ttl,
		data: make(map[string]memoryEntry),
		now:  time.Now,
	}
}

// Get retrieves the function set for a player version. Expired entries are
// treated as missing.
func (c *MemoryCache) Get(version string) (types.PlayerFunctionSet, bool) {
	c.mu.RLock()
	e, ok := c.data[version]
	c.mu.RUnlock()
	if !ok || c.now().After(e.expAt) {
		return types.PlayerFunctionSet{}, false
	}
	return e.set, true
}

// Put stores the function set for a player version.
func (c *MemoryCache) Put(version string, set types.PlayerFunctionSet) {
	c.mu.Lock()
	c.data[version] = memoryEntry{set: set, expAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}
