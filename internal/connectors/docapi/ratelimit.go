package docapi

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultRate is the proactive request rate per second.
	DefaultRate = 10

	// DefaultBurst is the number of requests allowed in a burst.
	DefaultBurst = 20

	// DefaultRetryAfter is the pause after a 429 without a usable Retry-After header.
	DefaultRetryAfter = time.Second

	// MaxRetryAfter caps the pause a server can impose.
	MaxRetryAfter = time.Minute

	// HeaderRetryAfter is the retry-after header (seconds or HTTP date).
	HeaderRetryAfter = "Retry-After"
)

// RateLimiter throttles outbound requests with a token bucket and honours
// server-imposed pauses from 429 responses.
type RateLimiter struct {
	bucket *rate.Limiter

	mu           sync.Mutex
	blockedUntil time.Time
	now          func() time.Time
}

// NewRateLimiter creates a rate limiter. Non-positive values use the defaults.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if perSecond <= 0 {
		perSecond = DefaultRate
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	return &RateLimiter{
		bucket: rate.NewLimiter(rate.Limit(perSecond), burst),
		now:    time.Now,
	}
}

// Wait blocks until a request may be sent.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	pause := r.blockedUntil.Sub(r.now())
	r.mu.Unlock()

	if pause > 0 {
		timer := time.NewTimer(pause)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.bucket.Wait(ctx)
}

// RecordRateLimit pauses all requests for the delay the response asks for
// and returns that delay.
func (r *RateLimiter) RecordRateLimit(resp *http.Response) time.Duration {
	delay := r.retryAfter(resp)

	r.mu.Lock()
	defer r.mu.Unlock()
	if until := r.now().Add(delay); until.After(r.blockedUntil) {
		r.blockedUntil = until
	}
	return delay
}

// BlockedUntil returns the end of the current server-imposed pause.
func (r *RateLimiter) BlockedUntil() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.blockedUntil
}

func (r *RateLimiter) retryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return DefaultRetryAfter
	}
	value := resp.Header.Get(HeaderRetryAfter)
	if value == "" {
		return DefaultRetryAfter
	}

	var delay time.Duration
	if seconds, err := strconv.Atoi(value); err == nil {
		delay = time.Duration(seconds) * time.Second
	} else if at, err := http.ParseTime(value); err == nil {
		delay = at.Sub(r.now())
	} else {
		return DefaultRetryAfter
	}

	if delay <= 0 {
		return DefaultRetryAfter
	}
	if delay > MaxRetryAfter {
		return MaxRetryAfter
	}
	return delay
}
