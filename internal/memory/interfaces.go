package memory

import (
	"context"
	"sync"

	"github.com/solarflow/solarflow/internal/models"
)

// Store is the per-user interaction log and preference store. All
// operations are scoped to one user; there is no cross-user query
// capability. The persistence medium behind this interface is an
// implementation detail.
type Store interface {
	// AddInteraction appends one immutable record to the user's log.
	AddInteraction(ctx context.Context, userID string, interaction models.Interaction) error

	// RecentInteractions returns up to limit records, newest last. An
	// unknown user yields an empty slice, not an error.
	RecentInteractions(ctx context.Context, userID string, limit int) ([]models.Interaction, error)

	// StorePreference sets a key/value pair with last-write-wins semantics.
	StorePreference(ctx context.Context, userID, key, value string) error

	// Preference returns the stored value or the supplied default.
	Preference(ctx context.Context, userID, key, def string) (string, error)

	// Close releases the underlying storage.
	Close() error
}

// userLocks serializes writes per user so concurrent requests for the same
// user cannot lose updates, while cross-user writes stay independent.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*sync.Mutex)}
}

func (u *userLocks) lock(userID string) *sync.Mutex {
	u.mu.Lock()
	l, ok := u.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		u.locks[userID] = l
	}
	u.mu.Unlock()
	l.Lock()
	return l
}
