package cache

import (
	"context"
	"sync"
	"time"

	"github.com/mikey/app-tracker/internal/core"
	"go.uber.org/zap"
)

type entry struct {
	result    core.ClassificationResult
	expiresAt time.Time
}

// MemoryCache remembers AI classifications by email ID so overlapping passes do not pay for
// the same email twice. It implements core.EmailClassifier around another classifier.
type MemoryCache struct {
	next        core.EmailClassifier
	entries     map[string]entry
	mu          sync.RWMutex
	logger      *zap.Logger
	ttl         time.Duration
	cleanupFreq time.Duration
	now         func() time.Time
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewMemoryCache creates a new in-memory classification cache in front of next
func NewMemoryCache(next core.EmailClassifier, logger *zap.Logger, ttl, cleanupFreq time.Duration) *MemoryCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	cache := &MemoryCache{
		next:        next,
		entries:     make(map[string]entry),
		logger:      logger,
		ttl:         ttl,
		cleanupFreq: cleanupFreq,
		now:         time.Now,
		stopCh:      make(chan struct{}),
	}

	// Start background cleanup
	if cleanupFreq > 0 {
		go cache.startCleanupTask()
	}

	return cache
}

// Classify returns the cached result for the email ID or asks the wrapped classifier.
// Only AI results are cached, phrase matching is cheap to repeat.
func (c *MemoryCache) Classify(ctx context.Context, email *core.NormalizedEmail) core.ClassificationResult {
	if email.ID != "" {
		if result, ok := c.Get(email.ID); ok {
			c.logger.Debug("Classification cache hit", zap.String("email_id", email.ID))
			return result
		}
	}

	result := c.next.Classify(ctx, email)
	if email.ID != "" && result.Source == core.SourceAI {
		c.Set(email.ID, result)
	}
	return result
}

// Get retrieves a live entry
func (c *MemoryCache) Get(id string) (core.ClassificationResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[id]
	if !ok || c.now().After(e.expiresAt) {
		return core.ClassificationResult{}, false
	}
	return e.result, true
}

// Set stores an entry for the cache TTL
func (c *MemoryCache) Set(id string, result core.ClassificationResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[id] = entry{result: result, expiresAt: c.now().Add(c.ttl)}
}

// Len returns the number of stored entries, expired ones included
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Cleanup removes expired entries
func (c *MemoryCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	expiredCount := 0

	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			expiredCount++
		}
	}

	c.logger.Debug("Cleaned up expired cache entries", zap.Int("expired_count", expiredCount))
}

// startCleanupTask starts a background task to clean up expired entries
func (c *MemoryCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Cleanup()
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task
func (c *MemoryCache) Stop() error {
	c.stopOnce.Do(func() { close(c.stopCh) })
	return nil
}
