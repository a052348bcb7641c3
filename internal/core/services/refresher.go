package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/docverify/internal/core/domain"
	"github.com/custodia-labs/docverify/internal/core/ports/driven"
	"github.com/custodia-labs/docverify/internal/core/ports/driving"
	"github.com/custodia-labs/docverify/internal/logger"
)

// Ensure SessionRefresher implements the interface.
var _ driving.SessionRefresher = (*SessionRefresher)(nil)

// DefaultRenewTimeout bounds a renewal when no timeout is configured.
const DefaultRenewTimeout = 15 * time.Second

// refreshResult is delivered to every waiter of a renewal cycle.
type refreshResult struct {
	access string
	err    error
}

// SessionRefresher owns the single-flight credential renewal protocol.
// At most one renewal is outstanding; every caller that asks for a refresh
// while it runs is queued and receives the same outcome.
type SessionRefresher struct {
	store   driven.CredentialStore
	renewer driven.TokenRenewer
	timeout time.Duration

	mu    sync.Mutex
	state domain.RefresherState
	queue []chan refreshResult
}

// NewSessionRefresher creates a refresher. A non-positive timeout uses DefaultRenewTimeout.
func NewSessionRefresher(
	store driven.CredentialStore,
	renewer driven.TokenRenewer,
	timeout time.Duration,
) *SessionRefresher {
	if timeout <= 0 {
		timeout = DefaultRenewTimeout
	}
	return &SessionRefresher{
		store:   store,
		renewer: renewer,
		timeout: timeout,
	}
}

// RequestRefresh returns a fresh access credential, starting a renewal unless
// one is already in flight.
func (r *SessionRefresher) RequestRefresh(ctx context.Context, stale string) (string, error) {
	r.mu.Lock()
	if r.state == domain.RefresherIdle {
		// A request that failed with an older token, or with none, does not need
		// a new renewal if one has completed since it was sent.
		if current := r.read(ctx, domain.CredentialAccess); current != "" && current != stale {
			r.mu.Unlock()
			logger.Debug("refresh: credential already renewed, reusing it")
			return current, nil
		}
		r.state = domain.RefresherRefreshing
		// The renewal serves every queued caller, so it must not die with the
		// context of whichever caller happened to start it.
		go r.run(context.WithoutCancel(ctx))
	}
	ch := make(chan refreshResult, 1)
	r.queue = append(r.queue, ch)
	r.mu.Unlock()

	select {
	case res := <-ch:
		return res.access, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// State returns the current state of the renewal protocol.
func (r *SessionRefresher) State() domain.RefresherState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Pending returns the number of callers waiting on the current renewal.
func (r *SessionRefresher) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// run performs one renewal cycle and drains the queue exactly once.
func (r *SessionRefresher) run(ctx context.Context) {
	access, err := r.renew(ctx)

	r.mu.Lock()
	queue := r.queue
	r.queue = nil
	r.state = domain.RefresherIdle
	r.mu.Unlock()

	for _, ch := range queue {
		ch <- refreshResult{access: access, err: err}
	}
	if err != nil {
		logger.Warn("refresh: renewal failed, %d waiter(s) rejected: %v", len(queue), err)
		return
	}
	logger.Debug("refresh: renewal succeeded, %d waiter(s) resumed", len(queue))
}

// renew exchanges the stored refresh credential and stores the new pair.
// On any failure both credentials are cleared.
func (r *SessionRefresher) renew(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	refresh := r.read(ctx, domain.CredentialRefresh)
	if refresh == "" {
		r.clear(ctx)
		return "", fmt.Errorf("%w: no refresh credential stored", domain.ErrAuthExpired)
	}

	pair, err := r.renewer.Renew(ctx, refresh)
	if err == nil && pair.Access == "" {
		err = errors.New("renewal returned an empty access credential")
	}
	if err != nil {
		r.clear(ctx)
		return "", fmt.Errorf("%w: %w", domain.ErrAuthExpired, err)
	}
	if pair.Refresh == "" {
		pair.Refresh = refresh
	}

	// Refresh first, so access is never stored without its refresh credential.
	// A pair that cannot be stored whole is not stored at all.
	if err := r.store.Set(ctx, domain.CredentialRefresh, pair.Refresh); err != nil {
		r.clear(ctx)
		return "", fmt.Errorf("%w: storing refresh credential: %w", domain.ErrAuthExpired, err)
	}
	if err := r.store.Set(ctx, domain.CredentialAccess, pair.Access); err != nil {
		// The new access credential still serves the waiters. The stored one
		// predates the new refresh credential, so drop it; the next request
		// goes out without a token and renews.
		logger.Warn("refresh: storing access credential: %v", err)
		if err := r.store.Remove(ctx, domain.CredentialAccess); err != nil {
			logger.Warn("refresh: removing access credential: %v", err)
		}
	}
	return pair.Access, nil
}

func (r *SessionRefresher) read(ctx context.Context, name domain.CredentialName) string {
	value, err := r.store.Get(ctx, name)
	if err != nil {
		logger.Debug("refresh: reading %s credential: %v", name, err)
		return ""
	}
	return value
}

// clear removes access before refresh.
func (r *SessionRefresher) clear(ctx context.Context) {
	if err := r.store.Remove(ctx, domain.CredentialAccess); err != nil {
		logger.Warn("refresh: removing access credential: %v", err)
	}
	if err := r.store.Remove(ctx, domain.CredentialRefresh); err != nil {
		logger.Warn("refresh: removing refresh credential: %v", err)
	}
}
