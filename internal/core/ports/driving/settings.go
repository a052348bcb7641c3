package driving

import "github.com/custodia-labs/docverify/internal/core/domain"

// SettingsService manages client settings.
type SettingsService interface {
	// Get retrieves current settings, with defaults for unset keys.
	Get() (*domain.ClientSettings, error)

	// Set stores one setting by key after validating it.
	Set(key, value string) error

	// Value returns the effective value of one key, formatted for display.
	Value(key string) (string, error)

	// Keys returns the settable keys in display order.
	Keys() []string
}
