package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
	"github.com/custodia-labs/thalweg-cli/internal/core/ports/driven"
	"github.com/custodia-labs/thalweg-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyGrow         = "search.grow"
	keyDistance     = "search.distance"
	keyMultiplier   = "search.multiplier"
	keySeparation   = "search.separation"
	keyCellSize     = "search.cell_size"
	keyElevationKey = "output.elevation_key"
)

var settingKeys = []string{
	keyGrow, keyDistance, keyMultiplier, keySeparation, keyCellSize, keyElevationKey,
}

// SettingsService manages the persisted search defaults.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current search options. Unset or unusable values fall
// back to the defaults.
func (s *SettingsService) Get() (*domain.SearchOptions, error) {
	defaults := domain.DefaultSearchOptions()

	return &domain.SearchOptions{
		Grow:         s.getFloat(keyGrow, defaults.Grow),
		Distance:     s.getFloat(keyDistance, defaults.Distance),
		Multiplier:   s.getFloat(keyMultiplier, defaults.Multiplier),
		Separation:   s.getFloat(keySeparation, defaults.Separation),
		CellSize:     s.getFloat(keyCellSize, defaults.CellSize),
		ElevationKey: s.getString(keyElevationKey, defaults.ElevationKey),
	}, nil
}

// Save validates and persists search options. Partial is per run and is
// not stored.
func (s *SettingsService) Save(opts *domain.SearchOptions) error {
	if opts == nil {
		return fmt.Errorf("%w: nil options", domain.ErrInvalidInput)
	}
	check := *opts
	check.Partial = ""
	if err := check.Validate(); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{keyGrow, opts.Grow},
		{keyDistance, opts.Distance},
		{keyMultiplier, opts.Multiplier},
		{keySeparation, opts.Separation},
		{keyCellSize, opts.CellSize},
		{keyElevationKey, opts.ElevationKey},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// Set updates a single setting. The resulting options must still be valid.
func (s *SettingsService) Set(key, value string) error {
	opts, err := s.Get()
	if err != nil {
		return err
	}

	key = strings.ToLower(strings.TrimSpace(key))
	if key == keyElevationKey {
		opts.ElevationKey = strings.TrimSpace(value)
		return s.Save(opts)
	}

	target := map[string]*float64{
		keyGrow:       &opts.Grow,
		keyDistance:   &opts.Distance,
		keyMultiplier: &opts.Multiplier,
		keySeparation: &opts.Separation,
		keyCellSize:   &opts.CellSize,
	}[key]
	if target == nil {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fmt.Errorf("%w: %s must be a number, got %q", domain.ErrInvalidInput, key, value)
	}
	*target = f
	return s.Save(opts)
}

// Keys returns the names of every supported setting.
func (s *SettingsService) Keys() []string {
	out := make([]string, len(settingKeys))
	copy(out, settingKeys)
	return out
}

// GetDefaults returns default options.
func (s *SettingsService) GetDefaults() domain.SearchOptions {
	return domain.DefaultSearchOptions()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val, ok := s.configStore.GetFloat(key)
	if !ok {
		return defaultVal
	}
	return val
}
