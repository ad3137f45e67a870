// Package session persists the per-user view session ("meeting context") in
// Redis. The context is read and overwritten as a whole; last write wins when
// two tabs race, matching browser-session semantics.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/campusmeet/backend/internal/models"
)

const keyPrefix = "viewsession:"

// Store reads and writes view sessions keyed per user.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewStore creates a Redis-backed view session store.
func NewStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, ttl: ttl, logger: logger}
}

func sessionKey(userID uuid.UUID) string {
	return keyPrefix + userID.String()
}

// Get returns the user's view session, or nil when none is cached.
func (s *Store) Get(ctx context.Context, userID uuid.UUID) (*models.ViewSession, error) {
	raw, err := s.client.Get(ctx, sessionKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("get view session: %w", err)
	}
	var vs models.ViewSession
	if err := json.Unmarshal(raw, &vs); err != nil {
		// A corrupt entry is dropped rather than poisoning every view request.
		s.logger.Warn("corrupt view session evicted", zap.String("user_id", userID.String()), zap.Error(err))
		_ = s.client.Del(ctx, sessionKey(userID)).Err()
		return nil, nil
	}
	return &vs, nil
}

// Set overwrites the user's view session as a whole.
func (s *Store) Set(ctx context.Context, vs *models.ViewSession) error {
	raw, err := json.Marshal(vs)
	if err != nil {
		return fmt.Errorf("marshal view session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(vs.UserID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("set view session: %w", err)
	}
	return nil
}

// Delete removes the user's view session.
func (s *Store) Delete(ctx context.Context, userID uuid.UUID) error {
	if err := s.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete view session: %w", err)
	}
	return nil
}
