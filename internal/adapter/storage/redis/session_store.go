package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"staked-report-gateway/internal/core/domain"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// SessionStore implements ports.WalletSessionStore using Redis.
// Sessions are stored as JSON under one key per user with a TTL.
type SessionStore struct {
	client *goredis.Client
	prefix string
}

// NewSessionStore creates a new Redis-backed wallet session store.
func NewSessionStore(client *goredis.Client) *SessionStore {
	return &SessionStore{
		client: client,
		prefix: "walletsession:",
	}
}

// Save persists a wallet session snapshot.
func (s *SessionStore) Save(ctx context.Context, userID uuid.UUID, session domain.WalletSession, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal wallet session: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+userID.String(), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis save wallet session: %w", err)
	}
	return nil
}

// Get fetches a wallet session, nil if none is stored.
func (s *SessionStore) Get(ctx context.Context, userID uuid.UUID) (*domain.WalletSession, error) {
	payload, err := s.client.Get(ctx, s.prefix+userID.String()).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get wallet session: %w", err)
	}

	var session domain.WalletSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("unmarshal wallet session: %w", err)
	}
	return &session, nil
}

// Delete removes a stored wallet session.
func (s *SessionStore) Delete(ctx context.Context, userID uuid.UUID) error {
	if err := s.client.Del(ctx, s.prefix+userID.String()).Err(); err != nil {
		return fmt.Errorf("redis delete wallet session: %w", err)
	}
	return nil
}
