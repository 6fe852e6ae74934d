package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/solarflow/solarflow/internal/models"
)

// RedisStore is an alternative Store implementation for deployments that
// already run Redis: interactions in a per-user list, preferences in a
// per-user hash. Redis serializes commands per connection, and the striped
// user locks keep a read-modify-write free append order stable across
// concurrent callers in this process.
type RedisStore struct {
	client *redis.Client
	locks  *userLocks
	log    zerolog.Logger
}

// RedisConfig holds connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(config RedisConfig, log zerolog.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client: client,
		locks:  newUserLocks(),
		log:    log.With().Str("component", "memory").Logger(),
	}, nil
}

func interactionsKey(userID string) string { return "memory:user:" + userID + ":interactions" }
func preferencesKey(userID string) string  { return "memory:user:" + userID + ":preferences" }

// AddInteraction appends one record to the user's list.
func (s *RedisStore) AddInteraction(ctx context.Context, userID string, interaction models.Interaction) error {
	l := s.locks.lock(userID)
	defer l.Unlock()

	interaction.UserID = userID
	data, err := json.Marshal(interaction)
	if err != nil {
		return fmt.Errorf("failed to marshal interaction: %w", err)
	}
	if err := s.client.RPush(ctx, interactionsKey(userID), data).Err(); err != nil {
		return fmt.Errorf("failed to store interaction: %w", err)
	}
	return nil
}

// RecentInteractions returns the most recent records, newest last.
func (s *RedisStore) RecentInteractions(ctx context.Context, userID string, limit int) ([]models.Interaction, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}
	raw, err := s.client.LRange(ctx, interactionsKey(userID), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read interactions: %w", err)
	}

	interactions := make([]models.Interaction, 0, len(raw))
	for _, item := range raw {
		var interaction models.Interaction
		if err := json.Unmarshal([]byte(item), &interaction); err != nil {
			s.log.Warn().Str("user", userID).Err(err).Msg("skipping malformed interaction record")
			continue
		}
		interactions = append(interactions, interaction)
	}
	return interactions, nil
}

// StorePreference sets a hash field, overwriting any previous value.
func (s *RedisStore) StorePreference(ctx context.Context, userID, key, value string) error {
	return s.client.HSet(ctx, preferencesKey(userID), key, value).Err()
}

// Preference returns the stored value or def when unset.
func (s *RedisStore) Preference(ctx context.Context, userID, key, def string) (string, error) {
	v, err := s.client.HGet(ctx, preferencesKey(userID), key).Result()
	if err == redis.Nil {
		return def, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read preference: %w", err)
	}
	return v, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
