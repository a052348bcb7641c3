package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/custodia-labs/docverify/internal/core/domain"
	"github.com/custodia-labs/docverify/internal/core/ports/driven"
	"github.com/custodia-labs/docverify/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyAPIBaseURL     = "api.base_url"
	keyAPITimeout     = "api.timeout"
	keyAPIRate        = "api.rate_per_second"
	keyAPIBurst       = "api.burst"
	keyPollInterval   = "poll.interval"
	keyPollMaxBackoff = "poll.max_backoff"
	keyPollJobTimeout = "poll.job_timeout"
	keyRenewTimeout   = "session.renew_timeout"
)

var settingKeys = []string{
	keyAPIBaseURL,
	keyAPITimeout,
	keyAPIRate,
	keyAPIBurst,
	keyPollInterval,
	keyPollMaxBackoff,
	keyPollJobTimeout,
	keyRenewTimeout,
}

// SettingsService maps configuration keys onto client settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current settings. Unset or unparsable keys fall back to defaults.
func (s *SettingsService) Get() (*domain.ClientSettings, error) {
	d := domain.DefaultClientSettings()

	settings := &domain.ClientSettings{
		API: domain.APISettings{
			BaseURL:       s.getString(keyAPIBaseURL, d.API.BaseURL),
			Timeout:       s.getDuration(keyAPITimeout, d.API.Timeout),
			RatePerSecond: s.getFloat(keyAPIRate, d.API.RatePerSecond),
			Burst:         s.getInt(keyAPIBurst, d.API.Burst),
		},
		Poll: domain.PollConfig{
			Interval:   s.getDuration(keyPollInterval, d.Poll.Interval),
			MaxBackoff: s.getDuration(keyPollMaxBackoff, d.Poll.MaxBackoff),
			JobTimeout: s.getDuration(keyPollJobTimeout, d.Poll.JobTimeout),
		},
		Session: domain.SessionSettings{
			RenewTimeout: s.getDuration(keyRenewTimeout, d.Session.RenewTimeout),
		},
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Set validates and stores one setting. Values that would leave the settings
// unusable are rejected before anything is written.
func (s *SettingsService) Set(key, value string) error {
	candidate, err := s.Get()
	if err != nil {
		d := domain.DefaultClientSettings()
		candidate = &d
	}

	var typed any
	switch key {
	case keyAPIBaseURL:
		candidate.API.BaseURL = value
		typed = value
	case keyAPITimeout, keyPollInterval, keyPollMaxBackoff, keyPollJobTimeout, keyRenewTimeout:
		d, err := parseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
		}
		*durationField(candidate, key) = d
		typed = value
	case keyAPIRate:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
		}
		candidate.API.RatePerSecond = f
		typed = f
	case keyAPIBurst:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
		}
		candidate.API.Burst = n
		typed = n
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	if err := candidate.Validate(); err != nil {
		return err
	}
	if err := s.configStore.Set(key, typed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func durationField(settings *domain.ClientSettings, key string) *time.Duration {
	switch key {
	case keyAPITimeout:
		return &settings.API.Timeout
	case keyPollInterval:
		return &settings.Poll.Interval
	case keyPollMaxBackoff:
		return &settings.Poll.MaxBackoff
	case keyPollJobTimeout:
		return &settings.Poll.JobTimeout
	default:
		return &settings.Session.RenewTimeout
	}
}

// Value returns the effective value of key, defaults included.
func (s *SettingsService) Value(key string) (string, error) {
	settings, err := s.Get()
	if err != nil {
		return "", err
	}

	switch key {
	case keyAPIBaseURL:
		return settings.API.BaseURL, nil
	case keyAPITimeout, keyPollInterval, keyPollMaxBackoff, keyPollJobTimeout, keyRenewTimeout:
		return durationField(settings, key).String(), nil
	case keyAPIRate:
		return strconv.FormatFloat(settings.API.RatePerSecond, 'g', -1, 64), nil
	case keyAPIBurst:
		return strconv.Itoa(settings.API.Burst), nil
	default:
		return "", fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
}

// Keys returns the settable keys in display order.
func (s *SettingsService) Keys() []string {
	out := make([]string, len(settingKeys))
	copy(out, settingKeys)
	return out
}

func (s *SettingsService) getString(key, defaultVal string) string {
	if v := s.configStore.GetString(key); v != "" {
		return v
	}
	return defaultVal
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if v := s.configStore.GetInt(key); v != 0 {
		return v
	}
	return defaultVal
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if v := s.configStore.GetFloat(key); v != 0 {
		return v
	}
	return defaultVal
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	str := s.configStore.GetString(key)
	if str == "" {
		return defaultVal
	}
	d, err := parseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}

// parseDuration parses Go durations ("2s", "1m30s") and plain seconds ("2").
func parseDuration(str string) (time.Duration, error) {
	if d, err := time.ParseDuration(str); err == nil {
		return d, nil
	}
	secs, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", str)
	}
	return time.Duration(secs) * time.Second, nil
}
