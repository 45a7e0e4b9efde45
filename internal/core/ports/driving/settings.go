package driving

import "github.com/custodia-labs/thalweg-cli/internal/core/domain"

// SettingsService manages the persisted search defaults.
type SettingsService interface {
	// Get retrieves current search options, filling unset keys with defaults.
	Get() (*domain.SearchOptions, error)

	// Save validates and persists search options.
	Save(opts *domain.SearchOptions) error

	// Set updates a single setting by key, parsing value for its type.
	Set(key, value string) error

	// Keys returns the names of every supported setting.
	Keys() []string

	// GetDefaults returns default options.
	GetDefaults() domain.SearchOptions
}
