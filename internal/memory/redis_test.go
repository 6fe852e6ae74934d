package memory

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/solarflow/solarflow/internal/models"
)

// newRedisTestStore connects to the Redis in SOLARFLOW_TEST_REDIS_ADDR, or
// skips when none is configured.
func newRedisTestStore(t *testing.T) *RedisStore {
	t.Helper()
	addr := os.Getenv("SOLARFLOW_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set SOLARFLOW_TEST_REDIS_ADDR to run Redis integration tests")
	}
	store, err := NewRedisStore(RedisConfig{Addr: addr}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewRedisStore error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRedisAddAndRecall(t *testing.T) {
	store := newRedisTestStore(t)
	ctx := context.Background()
	user := "test-" + uuid.NewString()

	for i := 0; i < 4; i++ {
		err := store.AddInteraction(ctx, user, models.Interaction{
			ID:        fmt.Sprintf("i%d", i),
			Query:     fmt.Sprintf("q%d", i),
			Timestamp: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("AddInteraction error = %v", err)
		}
	}

	got, err := store.RecentInteractions(ctx, user, 2)
	if err != nil {
		t.Fatalf("RecentInteractions error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("interactions = %d, want 2", len(got))
	}
	if got[0].Query != "q2" || got[1].Query != "q3" {
		t.Errorf("order = %s, %s, want q2, q3", got[0].Query, got[1].Query)
	}
}

func TestRedisUnknownUser(t *testing.T) {
	store := newRedisTestStore(t)

	got, err := store.RecentInteractions(context.Background(), "test-"+uuid.NewString(), 5)
	if err != nil {
		t.Fatalf("RecentInteractions error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("interactions = %d, want 0", len(got))
	}
}

func TestRedisPreferences(t *testing.T) {
	store := newRedisTestStore(t)
	ctx := context.Background()
	user := "test-" + uuid.NewString()

	got, err := store.Preference(ctx, user, "tariff", "0.30")
	if err != nil {
		t.Fatalf("Preference error = %v", err)
	}
	if got != "0.30" {
		t.Errorf("unset preference = %s, want the default", got)
	}

	if err := store.StorePreference(ctx, user, "tariff", "0.32"); err != nil {
		t.Fatalf("StorePreference error = %v", err)
	}
	got, err = store.Preference(ctx, user, "tariff", "0.30")
	if err != nil {
		t.Fatalf("Preference error = %v", err)
	}
	if got != "0.32" {
		t.Errorf("preference = %s, want 0.32", got)
	}
}
