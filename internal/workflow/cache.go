package workflow

import (
	"sync"
	"time"

	"github.com/loan-lens/loanlens/internal/loan"
)

// Cache is the advisory snapshot of the application collection one view
// renders from. It is only ever replaced wholesale by a refetch; a failed
// mutation leaves it exactly as it was.
type Cache struct {
	mu        sync.RWMutex
	apps      []loan.Application
	loaded    bool
	fetchedAt time.Time
}

// Snapshot returns a copy of the cached collection.
func (c *Cache) Snapshot() []loan.Application {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]loan.Application, len(c.apps))
	copy(out, c.apps)
	return out
}

// Get finds one cached application by id.
func (c *Cache) Get(id string) (loan.Application, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, a := range c.apps {
		if a.ID == id {
			return a, true
		}
	}
	return loan.Application{}, false
}

// Loaded reports whether at least one fetch has completed.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// FetchedAt returns when the snapshot was last replaced.
func (c *Cache) FetchedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetchedAt
}

func (c *Cache) replace(apps []loan.Application) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apps = apps
	c.loaded = true
	c.fetchedAt = time.Now().UTC()
}
