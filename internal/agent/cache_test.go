package agent

import (
	"testing"
	"time"

	"github.com/solarflow/solarflow/internal/models"
)

func TestDecisionCacheHit(t *testing.T) {
	c := newDecisionCache(time.Minute)
	defer c.close()

	calls := []models.ToolCall{{Name: "system_sizing"}}
	c.set("Size my system", calls)

	// Lookup is case- and whitespace-insensitive.
	got, ok := c.get("  size my system ")
	if !ok {
		t.Fatal("cache miss, want hit")
	}
	if len(got) != 1 || got[0].Name != "system_sizing" {
		t.Errorf("cached calls = %+v", got)
	}
}

func TestDecisionCacheMiss(t *testing.T) {
	c := newDecisionCache(time.Minute)
	defer c.close()

	if _, ok := c.get("never seen"); ok {
		t.Error("cache hit for unknown query")
	}
}

func TestDecisionCacheExpiry(t *testing.T) {
	c := newDecisionCache(10 * time.Millisecond)
	defer c.close()

	c.set("query", []models.ToolCall{{Name: "tool"}})
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.get("query"); ok {
		t.Error("cache hit after TTL expiry")
	}
}

func TestDecisionCacheStoresEmptyDecision(t *testing.T) {
	c := newDecisionCache(time.Minute)
	defer c.close()

	// A NO_TOOL decision caches as an empty call set, still a hit.
	c.set("informational query", nil)
	got, ok := c.get("informational query")
	if !ok {
		t.Fatal("cache miss for cached empty decision")
	}
	if len(got) != 0 {
		t.Errorf("cached calls = %+v, want none", got)
	}
}
