// Package credential attaches the customer's credential to every call the
// storefront makes to the catalogue and feedback services.
package credential

import (
	"context"
	"net/http"
	"time"

	apperrors "github.com/DmytroLysenko1/Store/pkg/errors"
	"github.com/DmytroLysenko1/Store/pkg/middleware"
)

// Source yields the bearer token for the customer behind ctx.
type Source interface {
	Token(ctx context.Context) (string, error)
}

// Invalidator is implemented by sources that can drop a token a downstream
// service refused.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Token is a downstream access token and the moment it stops being usable.
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Valid reports whether t can still be used at now, leaving skew for the
// call to reach the downstream service.
func (t Token) Valid(now time.Time, skew time.Duration) bool {
	return t.AccessToken != "" && now.Add(skew).Before(t.ExpiresAt)
}

// Passthrough relays the inbound bearer token unchanged.
type Passthrough struct{}

func (Passthrough) Token(ctx context.Context) (string, error) {
	token := middleware.BearerTokenFromContext(ctx)
	if token == "" {
		return "", apperrors.Unauthorized("no customer credential on the request")
	}
	return token, nil
}

// HTTPDoer is the transport a Doer decorates.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Doer sets the Authorization header from a Source before delegating.
type Doer struct {
	next   HTTPDoer
	source Source
}

func NewDoer(next HTTPDoer, source Source) *Doer {
	return &Doer{next: next, source: source}
}

// Do fails with an unauthorized error, without calling out, when no token
// can be had. A 401 answer drops the token from an Invalidator source so
// the next request fetches a fresh one; the 401 itself is still returned.
func (d *Doer) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	token, err := d.source.Token(ctx)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := d.next.Do(ctx, req)
	if err == nil && resp.StatusCode == http.StatusUnauthorized {
		if inv, ok := d.source.(Invalidator); ok {
			_ = inv.Invalidate(ctx)
		}
	}
	return resp, err
}
