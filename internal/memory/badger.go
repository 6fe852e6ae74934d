package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/solarflow/solarflow/internal/models"
)

// userRecord is the durable per-user document: append-only interaction log
// plus overwrite-in-place preferences.
type userRecord struct {
	Interactions []models.Interaction `json:"interactions"`
	Preferences  map[string]string    `json:"preferences"`
}

// BadgerStore is the default Store implementation, one BadgerDB document
// per user.
type BadgerStore struct {
	db    *badger.DB
	locks *userLocks
	log   zerolog.Logger
}

// BadgerConfig holds store configuration.
type BadgerConfig struct {
	Path     string
	InMemory bool
}

// NewBadgerStore opens (or creates) the store at the configured path.
func NewBadgerStore(config BadgerConfig, log zerolog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(expandPath(config.Path)).
		WithLoggingLevel(badger.WARNING)
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.WARNING)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open memory store: %w", err)
	}

	return &BadgerStore{
		db:    db,
		locks: newUserLocks(),
		log:   log.With().Str("component", "memory").Logger(),
	}, nil
}

func userKey(userID string) []byte {
	return []byte("user:" + userID)
}

// AddInteraction appends one record to the user's log.
func (s *BadgerStore) AddInteraction(ctx context.Context, userID string, interaction models.Interaction) error {
	l := s.locks.lock(userID)
	defer l.Unlock()

	record, err := s.loadRecord(userID)
	if err != nil {
		return err
	}
	interaction.UserID = userID
	record.Interactions = append(record.Interactions, interaction)
	return s.saveRecord(userID, record)
}

// RecentInteractions returns the most recent records, newest last.
func (s *BadgerStore) RecentInteractions(ctx context.Context, userID string, limit int) ([]models.Interaction, error) {
	record, err := s.loadRecord(userID)
	if err != nil {
		return nil, err
	}
	return tail(record.Interactions, limit), nil
}

// StorePreference sets a key/value pair, overwriting any previous value.
func (s *BadgerStore) StorePreference(ctx context.Context, userID, key, value string) error {
	l := s.locks.lock(userID)
	defer l.Unlock()

	record, err := s.loadRecord(userID)
	if err != nil {
		return err
	}
	record.Preferences[key] = value
	return s.saveRecord(userID, record)
}

// Preference returns the stored value or def when unset.
func (s *BadgerStore) Preference(ctx context.Context, userID, key, def string) (string, error) {
	record, err := s.loadRecord(userID)
	if err != nil {
		return "", err
	}
	if v, ok := record.Preferences[key]; ok {
		return v, nil
	}
	return def, nil
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) loadRecord(userID string) (*userRecord, error) {
	record := &userRecord{Preferences: make(map[string]string)}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(userID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, record)
		})
	})
	if err == badger.ErrKeyNotFound {
		return record, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user record: %w", err)
	}
	if record.Preferences == nil {
		record.Preferences = make(map[string]string)
	}
	return record, nil
}

func (s *BadgerStore) saveRecord(userID string, record *userRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal user record: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(userKey(userID), data)
	})
}

func tail(interactions []models.Interaction, limit int) []models.Interaction {
	if limit <= 0 || limit >= len(interactions) {
		out := make([]models.Interaction, len(interactions))
		copy(out, interactions)
		return out
	}
	out := make([]models.Interaction, limit)
	copy(out, interactions[len(interactions)-limit:])
	return out
}

// expandPath expands ~ to the home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
