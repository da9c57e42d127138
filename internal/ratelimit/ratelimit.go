package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Limiter enforces a minimum delay between requests made by one adapter.
// Each rate-limited adapter owns its own Limiter so probing one provider never
// serializes requests to another.
type Limiter struct {
	limiter *rate.Limiter
	name    string
}

// NewLimiter creates a limiter allowing one request per minDelay for the named
// provider. A non-positive minDelay disables limiting.
func NewLimiter(name string, minDelay time.Duration) *Limiter {
	limit := rate.Inf
	if minDelay > 0 {
		limit = rate.Every(minDelay)
	}
	return &Limiter{
		limiter: rate.NewLimiter(limit, 1),
		name:    name,
	}
}

// Wait blocks until the next request may proceed.
// Returns an error if the context is cancelled while waiting.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait for %s: %w", l.name, err)
	}
	return nil
}

// Transport is a RoundTripper decorator that waits on a Limiter before
// delegating to the wrapped transport.
type Transport struct {
	inner   http.RoundTripper
	limiter *Limiter
}

// NewTransport wraps inner with rate limiting. A nil inner uses http.DefaultTransport.
func NewTransport(inner http.RoundTripper, limiter *Limiter) *Transport {
	if inner == nil {
		inner = http.DefaultTransport
	}
	return &Transport{inner: inner, limiter: limiter}
}

// RoundTrip waits for the limiter, then delegates.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.inner.RoundTrip(req)
}

// WrapClient returns a copy of client whose transport is rate limited.
func WrapClient(client *http.Client, limiter *Limiter) *http.Client {
	wrapped := *client
	wrapped.Transport = NewTransport(client.Transport, limiter)
	return &wrapped
}
