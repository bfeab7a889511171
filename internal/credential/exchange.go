package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/DmytroLysenko1/Store/pkg/errors"
	"github.com/DmytroLysenko1/Store/pkg/httpclient"
)

const (
	grantTokenExchange = "urn:ietf:params:oauth:grant-type:token-exchange"
	tokenTypeAccess    = "urn:ietf:params:oauth:token-type:access_token"
)

// ExchangeConfig points at an OAuth2 token endpoint supporting token exchange.
type ExchangeConfig struct {
	URL          string
	ClientID     string
	ClientSecret string
	Audience     string
	Scope        string
	// DefaultTTL applies when the answer carries neither expires_in nor a
	// JWT exp claim.
	DefaultTTL time.Duration
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// TokenExchange is a Refresher backed by an OAuth2 token endpoint.
type TokenExchange struct {
	doer HTTPDoer
	cfg  ExchangeConfig
	now  func() time.Time
}

func NewTokenExchange(doer HTTPDoer, cfg ExchangeConfig) *TokenExchange {
	return &TokenExchange{doer: doer, cfg: cfg, now: time.Now}
}

// Refresh posts a token-exchange grant. A 400 or 401 from the endpoint
// means the customer's token was refused and is reported as unauthorized;
// any other failure is fatal.
func (e *TokenExchange) Refresh(ctx context.Context, subjectToken string) (Token, error) {
	form := url.Values{
		"grant_type":         {grantTokenExchange},
		"subject_token":      {subjectToken},
		"subject_token_type": {tokenTypeAccess},
	}
	if e.cfg.Audience != "" {
		form.Set("audience", e.cfg.Audience)
	}
	if e.cfg.Scope != "" {
		form.Set("scope", e.cfg.Scope)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if e.cfg.ClientID != "" {
		req.SetBasicAuth(url.QueryEscape(e.cfg.ClientID), url.QueryEscape(e.cfg.ClientSecret))
	}

	resp, err := e.doer.Do(ctx, req)
	if err != nil {
		return Token{}, apperrors.Upstream("token endpoint unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusUnauthorized:
		return Token{}, apperrors.Unauthorized("token exchange refused the customer credential")
	case !httpclient.IsSuccess(resp.StatusCode):
		// Whatever else the endpoint answers, the customer's call can't go
		// ahead; a 404 here must never read as an absent product.
		return Token{}, apperrors.Upstream(fmt.Sprintf("token endpoint returned status %d", resp.StatusCode), nil)
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Token{}, apperrors.Upstream("token endpoint returned a malformed payload", err)
	}
	if body.AccessToken == "" {
		return Token{}, apperrors.Upstream("token endpoint returned no access token", nil)
	}

	return Token{AccessToken: body.AccessToken, ExpiresAt: e.expiry(body)}, nil
}

func (e *TokenExchange) expiry(body tokenResponse) time.Time {
	now := e.now()
	if body.ExpiresIn > 0 {
		return now.Add(time.Duration(body.ExpiresIn) * time.Second)
	}
	if exp, ok := JWTExpiry(body.AccessToken); ok {
		return exp
	}
	return now.Add(e.cfg.DefaultTTL)
}

// JWTExpiry reads the exp claim of a JWT without checking its signature;
// the issuer is trusted and only the lifetime is of interest here.
func JWTExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
