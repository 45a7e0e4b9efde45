package domain

import (
	"fmt"
	"math"
	"time"
)

// Default search parameters.
const (
	DefaultGrow         = 0.5
	DefaultDistance     = 15.0
	DefaultMultiplier   = 1.0
	DefaultSeparation   = 1.0
	DefaultCellSize     = 0.5
	DefaultElevationKey = "height"
)

// SearchOptions configures the upstream elevation search.
type SearchOptions struct {
	// Grow is the buffer distance applied to each confinement polygon
	// before use.
	Grow float64

	// Distance is the minimum search radius.
	Distance float64

	// Multiplier scales the distance from a sample point to the
	// confinement boundary into a search radius.
	Multiplier float64

	// Separation is the maximum distance between consecutive sample points.
	Separation float64

	// CellSize is the raster resolution requested from the stores.
	CellSize float64

	// ElevationKey is the output attribute that receives the elevation.
	ElevationKey string

	// Partial restricts processing to one partition ("k/n"). Empty means all.
	Partial string

	// At samples the surfaces as they were at this instant. Zero uses
	// every surface. Not persisted.
	At time.Time
}

// DefaultSearchOptions returns options with the documented defaults.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		Grow:         DefaultGrow,
		Distance:     DefaultDistance,
		Multiplier:   DefaultMultiplier,
		Separation:   DefaultSeparation,
		CellSize:     DefaultCellSize,
		ElevationKey: DefaultElevationKey,
	}
}

// Validate checks that every parameter is usable.
func (o SearchOptions) Validate() error {
	checks := []struct {
		name     string
		value    float64
		positive bool
	}{
		{"grow", o.Grow, false},
		{"distance", o.Distance, true},
		{"multiplier", o.Multiplier, false},
		{"separation", o.Separation, true},
		{"cell size", o.CellSize, true},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return fmt.Errorf("%w: %s must be finite", ErrInvalidInput, c.name)
		}
		if c.positive && c.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %g", ErrInvalidInput, c.name, c.value)
		}
		if !c.positive && c.value < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %g", ErrInvalidInput, c.name, c.value)
		}
	}
	if o.ElevationKey == "" {
		return fmt.Errorf("%w: elevation key must not be empty", ErrInvalidInput)
	}
	if o.Partial != "" {
		if _, err := ParsePartition(o.Partial); err != nil {
			return err
		}
	}
	return nil
}
