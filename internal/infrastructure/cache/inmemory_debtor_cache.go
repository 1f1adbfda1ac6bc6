package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	notesapp "github.com/promissory/backend/internal/application/notes"
)

type debtorEntry struct {
	info      notesapp.DebtorInfo
	expiresAt time.Time
}

// InMemoryDebtorCache memoizes debtor directory lookups in process memory.
// Suitable for single-instance deployments and tests; entries expire after
// the configured TTL.
type InMemoryDebtorCache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]debtorEntry
	ttl     time.Duration
}

// NewInMemoryDebtorCache creates an in-memory debtor cache with a one hour TTL
func NewInMemoryDebtorCache() *InMemoryDebtorCache {
	return &InMemoryDebtorCache{
		entries: make(map[uuid.UUID]debtorEntry),
		ttl:     time.Hour,
	}
}

// Get returns the cached debtor info for a customer if present and unexpired
func (c *InMemoryDebtorCache) Get(_ context.Context, customerID uuid.UUID) (notesapp.DebtorInfo, bool) {
	c.mu.RLock()
	entry, ok := c.entries[customerID]
	c.mu.RUnlock()
	if !ok {
		return notesapp.DebtorInfo{}, false
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, customerID)
		c.mu.Unlock()
		return notesapp.DebtorInfo{}, false
	}
	return entry.info, true
}

// Set stores the debtor info for a customer
func (c *InMemoryDebtorCache) Set(_ context.Context, customerID uuid.UUID, info notesapp.DebtorInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[customerID] = debtorEntry{info: info, expiresAt: time.Now().Add(c.ttl)}
}

// Invalidate removes the cached entry for a customer
func (c *InMemoryDebtorCache) Invalidate(_ context.Context, customerID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, customerID)
}
