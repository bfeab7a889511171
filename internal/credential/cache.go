package credential

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	apperrors "github.com/DmytroLysenko1/Store/pkg/errors"
	"github.com/DmytroLysenko1/Store/pkg/middleware"
)

// Store keeps downstream tokens per customer.
type Store interface {
	Get(ctx context.Context, identity string) (Token, bool, error)
	Put(ctx context.Context, identity string, token Token) error
	Delete(ctx context.Context, identity string) error
}

// Refresher trades the customer's inbound token for a downstream one.
type Refresher interface {
	Refresh(ctx context.Context, subjectToken string) (Token, error)
}

// Cache is a Source that exchanges the inbound token once and reuses the
// result until shortly before it expires. Concurrent misses for the same
// customer share a single refresh.
type Cache struct {
	store     Store
	refresher Refresher
	skew      time.Duration
	logger    *slog.Logger
	now       func() time.Time
	group     singleflight.Group
}

func NewCache(store Store, refresher Refresher, skew time.Duration, logger *slog.Logger) *Cache {
	return &Cache{
		store:     store,
		refresher: refresher,
		skew:      skew,
		logger:    logger,
		now:       time.Now,
	}
}

func (c *Cache) Token(ctx context.Context) (string, error) {
	identity := middleware.UserIDFromContext(ctx)
	subject := middleware.BearerTokenFromContext(ctx)
	if identity == "" || subject == "" {
		return "", apperrors.Unauthorized("no customer credential on the request")
	}

	if tok, ok := c.cached(ctx, identity); ok {
		return tok.AccessToken, nil
	}

	v, err, shared := c.group.Do(identity, func() (any, error) {
		// A flight that finished just before this one may have stored a token.
		if tok, ok := c.cached(ctx, identity); ok {
			return tok, nil
		}
		// One caller going away must not fail the others sharing the flight.
		tok, err := c.refresher.Refresh(context.WithoutCancel(ctx), subject)
		if err != nil {
			return Token{}, err
		}
		if err := c.store.Put(ctx, identity, tok); err != nil {
			c.logger.WarnContext(ctx, "failed to store downstream credential",
				slog.String("error", err.Error()),
			)
		}
		return tok, nil
	})
	if err != nil {
		return "", err
	}
	if shared {
		c.logger.DebugContext(ctx, "credential refresh shared")
	}
	return v.(Token).AccessToken, nil
}

// cached treats a failing store as a miss.
func (c *Cache) cached(ctx context.Context, identity string) (Token, bool) {
	tok, ok, err := c.store.Get(ctx, identity)
	if err != nil {
		c.logger.WarnContext(ctx, "credential store unavailable",
			slog.String("error", err.Error()),
		)
		return Token{}, false
	}
	if !ok || !tok.Valid(c.now(), c.skew) {
		return Token{}, false
	}
	return tok, true
}

func (c *Cache) Invalidate(ctx context.Context) error {
	identity := middleware.UserIDFromContext(ctx)
	if identity == "" {
		return nil
	}
	return c.store.Delete(ctx, identity)
}

// MemoryStore is a process-local Store. Reads take the shared lock only.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]Token
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]Token)}
}

func (s *MemoryStore) Get(_ context.Context, identity string) (Token, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tok, ok := s.tokens[identity]
	return tok, ok, nil
}

func (s *MemoryStore) Put(_ context.Context, identity string, token Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[identity] = token
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, identity)
	return nil
}
