// Package redis stores downstream credentials in Redis so every storefront
// instance shares one exchanged token per customer.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/DmytroLysenko1/Store/internal/credential"
)

const keyPrefix = "storefront:credential:"

// Store implements credential.Store using Redis. Entries expire with the
// token they hold.
type Store struct {
	client *redis.Client
	now    func() time.Time
}

// NewStore creates a new Redis-backed credential store.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client, now: time.Now}
}

func (s *Store) Get(ctx context.Context, identity string) (credential.Token, bool, error) {
	data, err := s.client.Get(ctx, keyPrefix+identity).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return credential.Token{}, false, nil
		}
		return credential.Token{}, false, fmt.Errorf("redis get credential: %w", err)
	}

	var tok credential.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return credential.Token{}, false, fmt.Errorf("unmarshal credential: %w", err)
	}
	return tok, true, nil
}

// Put is a no-op for a token that has already expired.
func (s *Store) Put(ctx context.Context, identity string, token credential.Token) error {
	ttl := token.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+identity, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set credential: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, identity string) error {
	if err := s.client.Del(ctx, keyPrefix+identity).Err(); err != nil {
		return fmt.Errorf("redis del credential: %w", err)
	}
	return nil
}
