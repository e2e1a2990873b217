// Package redis keeps session history in Redis lists.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/salaryse/assistant/store"
)

// SessionStore keeps each thread's exchanges in a Redis list.
type SessionStore struct {
	client     *redis.Client
	prefix     string
	ttl        time.Duration
	maxHistory int
}

var _ store.SessionStore = (*SessionStore)(nil)

// RedisOptions configuration for Redis connection
type RedisOptions struct {
	Addr       string
	Password   string
	DB         int
	Prefix     string        // Key prefix, default "salaryse:"
	TTL        time.Duration // Inactivity expiry, default 0 (no expiration)
	MaxHistory int           // Default store.DefaultMaxHistory
}

// NewSessionStore creates a Redis-backed session store
func NewSessionStore(opts RedisOptions) *SessionStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "salaryse:"
	}
	maxHistory := opts.MaxHistory
	if maxHistory <= 0 {
		maxHistory = store.DefaultMaxHistory
	}

	return &SessionStore{
		client:     client,
		prefix:     prefix,
		ttl:        opts.TTL,
		maxHistory: maxHistory,
	}
}

func (s *SessionStore) historyKey(threadID string) string {
	return fmt.Sprintf("%ssession:%s:history", s.prefix, threadID)
}

// Ping checks the connection.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client
func (s *SessionStore) Close() error {
	return s.client.Close()
}

func (s *SessionStore) History(ctx context.Context, threadID string) ([]store.Exchange, error) {
	items, err := s.client.LRange(ctx, s.historyKey(threadID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load history from redis: %w", err)
	}

	history := make([]store.Exchange, 0, len(items))
	for _, item := range items {
		var ex store.Exchange
		if err := json.Unmarshal([]byte(item), &ex); err != nil {
			return nil, fmt.Errorf("failed to unmarshal exchange: %w", err)
		}
		history = append(history, ex)
	}
	return history, nil
}

func (s *SessionStore) Append(ctx context.Context, threadID string, exchange store.Exchange) error {
	data, err := json.Marshal(exchange)
	if err != nil {
		return fmt.Errorf("failed to marshal exchange: %w", err)
	}

	key := s.historyKey(threadID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, int64(-s.maxHistory), -1)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append exchange to redis: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, threadID string) error {
	if err := s.client.Del(ctx, s.historyKey(threadID)).Err(); err != nil {
		return fmt.Errorf("failed to delete history: %w", err)
	}
	return nil
}
