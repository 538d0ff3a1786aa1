package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/human-centric-engineering/sunrise/internal/domain"
)

const sessionKeyPrefix = "session:"

// SessionStore implements domain.SessionStore on Redis. Sessions are written
// with a TTL so an abandoned login expires server side without a sweeper.
type SessionStore struct {
	client *redis.Client
	logger *slog.Logger
}

// NewSessionStore creates a new Redis-backed SessionStore.
func NewSessionStore(client *redis.Client, logger *slog.Logger) *SessionStore {
	return &SessionStore{
		client: client,
		logger: logger.With("component", "redis_sessions"),
	}
}

// Save stores the session under its token. The token itself stays out of the
// payload; it only ever appears as the key.
func (s *SessionStore) Save(ctx context.Context, session domain.Session, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKeyPrefix+session.Token, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Get loads a session by token.
func (s *SessionStore) Get(ctx context.Context, token string) (domain.Session, error) {
	payload, err := s.client.Get(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Session{}, domain.ErrSessionNotFound
		}
		return domain.Session{}, fmt.Errorf("failed to load session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		s.logger.Warn("dropping undecodable session", "error", err)
		return domain.Session{}, domain.ErrSessionNotFound
	}
	session.Token = token
	return session, nil
}

// Delete removes a session. Deleting a token that is already gone is not an
// error.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
