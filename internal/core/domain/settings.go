package domain

import (
	"fmt"
	"net/url"
	"time"
)

// ClientSettings holds user-configurable client settings.
type ClientSettings struct {
	API     APISettings
	Poll    PollConfig
	Session SessionSettings
}

// APISettings configures the connection to the verification API.
type APISettings struct {
	// BaseURL is the API origin, e.g. "http://localhost:8000".
	BaseURL string
	// Timeout bounds each HTTP round trip.
	Timeout time.Duration
	// RatePerSecond is the sustained client-side request rate.
	RatePerSecond float64
	// Burst is the maximum request burst.
	Burst int
}

// SessionSettings configures session renewal.
type SessionSettings struct {
	// RenewTimeout bounds a single credential renewal.
	RenewTimeout time.Duration
}

// DefaultClientSettings returns sensible defaults.
func DefaultClientSettings() ClientSettings {
	return ClientSettings{
		API: APISettings{
			BaseURL:       "http://localhost:8000",
			Timeout:       30 * time.Second,
			RatePerSecond: 10,
			Burst:         20,
		},
		Poll: DefaultPollConfig(),
		Session: SessionSettings{
			RenewTimeout: 15 * time.Second,
		},
	}
}

// Validate checks the settings for values the client cannot run with.
func (s ClientSettings) Validate() error {
	u, err := url.Parse(s.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: api.base_url %q is not an absolute URL", ErrInvalidInput, s.API.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: api.base_url scheme must be http or https", ErrInvalidInput)
	}
	if s.API.Timeout <= 0 {
		return fmt.Errorf("%w: api.timeout must be positive", ErrInvalidInput)
	}
	if s.API.RatePerSecond <= 0 || s.API.Burst <= 0 {
		return fmt.Errorf("%w: api rate limit must be positive", ErrInvalidInput)
	}
	if s.Poll.Interval <= 0 {
		return fmt.Errorf("%w: poll.interval must be positive", ErrInvalidInput)
	}
	if s.Poll.MaxBackoff < 0 || s.Poll.JobTimeout < 0 {
		return fmt.Errorf("%w: poll durations must not be negative", ErrInvalidInput)
	}
	if s.Session.RenewTimeout <= 0 {
		return fmt.Errorf("%w: session.renew_timeout must be positive", ErrInvalidInput)
	}
	return nil
}
