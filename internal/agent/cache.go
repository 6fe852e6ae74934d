package agent

import (
	"strings"
	"sync"
	"time"

	"github.com/solarflow/solarflow/internal/models"
)

// cachedDecision holds one cached tool decision.
type cachedDecision struct {
	calls    []models.ToolCall
	cachedAt time.Time
}

// decisionCache provides TTL-based caching of tool decisions so repeated
// identical queries skip the model round trip.
type decisionCache struct {
	cache map[string]*cachedDecision
	mu    sync.RWMutex
	ttl   time.Duration
	stop  chan struct{}
}

func newDecisionCache(ttl time.Duration) *decisionCache {
	c := &decisionCache{
		cache: make(map[string]*cachedDecision),
		ttl:   ttl,
		stop:  make(chan struct{}),
	}
	go c.cleanup()
	return c
}

func (c *decisionCache) get(query string) ([]models.ToolCall, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if d, ok := c.cache[normalizeQuery(query)]; ok {
		if time.Since(d.cachedAt) < c.ttl {
			return d.calls, true
		}
	}
	return nil, false
}

func (c *decisionCache) set(query string, calls []models.ToolCall) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache[normalizeQuery(query)] = &cachedDecision{
		calls:    calls,
		cachedAt: time.Now(),
	}
}

func (c *decisionCache) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, d := range c.cache {
				if now.Sub(d.cachedAt) > c.ttl {
					delete(c.cache, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

func (c *decisionCache) close() {
	close(c.stop)
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}
