package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	apperrors "github.com/DmytroLysenko1/Store/pkg/errors"
)

// ErrCircuitOpen is returned when an open breaker rejects a call.
var ErrCircuitOpen = gobreaker.ErrOpenState

// BreakerConfig tunes a Breaker.
type BreakerConfig struct {
	Name string

	// MaxRequests is the number of probes let through while half-open.
	MaxRequests uint32
	// Interval clears the closed-state counts. Zero never clears them.
	Interval time.Duration
	// OpenFor is how long the breaker rejects calls before probing again.
	OpenFor time.Duration

	FailureRatio float64
	MinRequests  uint32
}

// DefaultBreakerConfig trips after half of at least five calls have failed
// and probes again thirty seconds later.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     time.Minute,
		OpenFor:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

// FallbackFunc answers a call the open breaker refused. err wraps ErrCircuitOpen.
type FallbackFunc func(ctx context.Context, err error) (*http.Response, error)

// Breaker guards one downstream service. A 5xx answer counts as a failure
// and is turned into a fatal upstream error. Anything below 500 is returned
// untouched so callers can classify it.
type Breaker struct {
	name     string
	next     *Client
	cb       *gobreaker.CircuitBreaker[*http.Response]
	fallback FallbackFunc
	logger   *slog.Logger
}

// NewBreaker wraps next with a breaker configured by cfg.
func NewBreaker(next *Client, cfg BreakerConfig, logger *slog.Logger) *Breaker {
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.Requests >= cfg.MinRequests &&
				float64(c.TotalFailures)/float64(c.Requests) >= cfg.FailureRatio
		},
		// A caller that gave up says nothing about the downstream.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	breakerState.WithLabelValues(cfg.Name).Set(stateValue(gobreaker.StateClosed))

	return &Breaker{name: cfg.Name, next: next, cb: cb, logger: logger}
}

// WithFallback returns a copy of b that hands refused calls to fn.
func (b *Breaker) WithFallback(fn FallbackFunc) *Breaker {
	cpy := *b
	cpy.fallback = fn
	return &cpy
}

// State reports the breaker's current state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

// Do sends req through the breaker.
func (b *Breaker) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := b.cb.Execute(func() (*http.Response, error) {
		resp, err := b.next.Do(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < http.StatusInternalServerError {
			return resp, nil
		}
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		_ = resp.Body.Close()
		return nil, apperrors.Upstream(
			fmt.Sprintf("%s returned status %d", b.name, resp.StatusCode),
			fmt.Errorf("server error %d: %s", resp.StatusCode, snippet),
		)
	})
	if err == nil {
		return resp, nil
	}
	if b.fallback != nil && errors.Is(err, ErrCircuitOpen) {
		breakerFallbacks.WithLabelValues(b.name).Inc()
		b.logger.WarnContext(ctx, "circuit open, using fallback", slog.String("breaker", b.name))
		return b.fallback(ctx, err)
	}
	return nil, err
}

// UnavailableFallback reports a refused call as the named service being
// temporarily unavailable.
func UnavailableFallback(service string) FallbackFunc {
	return func(_ context.Context, err error) (*http.Response, error) {
		unavail := apperrors.ServiceUnavailable(service + " is temporarily unavailable")
		return nil, apperrors.Upstream(unavail.Message, fmt.Errorf("%w: %w", unavail, err))
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return -1
}
