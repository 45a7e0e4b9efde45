package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSearchOptions(t *testing.T) {
	opts := DefaultSearchOptions()

	assert.Equal(t, 0.5, opts.Grow)
	assert.Equal(t, 15.0, opts.Distance)
	assert.Equal(t, 1.0, opts.Multiplier)
	assert.Equal(t, 1.0, opts.Separation)
	assert.Equal(t, 0.5, opts.CellSize)
	assert.Equal(t, "height", opts.ElevationKey)
	assert.Empty(t, opts.Partial)
	assert.NoError(t, opts.Validate())
}

func TestSearchOptions_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*SearchOptions)
	}{
		{"zero distance", func(o *SearchOptions) { o.Distance = 0 }},
		{"negative separation", func(o *SearchOptions) { o.Separation = -1 }},
		{"zero cell size", func(o *SearchOptions) { o.CellSize = 0 }},
		{"negative grow", func(o *SearchOptions) { o.Grow = -0.5 }},
		{"negative multiplier", func(o *SearchOptions) { o.Multiplier = -1 }},
		{"nan distance", func(o *SearchOptions) { o.Distance = math.NaN() }},
		{"infinite grow", func(o *SearchOptions) { o.Grow = math.Inf(1) }},
		{"empty key", func(o *SearchOptions) { o.ElevationKey = "" }},
		{"bad partial", func(o *SearchOptions) { o.Partial = "3/2" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultSearchOptions()
			tt.modify(&opts)
			assert.Error(t, opts.Validate())
		})
	}
}

func TestSearchOptions_ValidateAllowsZeroGrowAndMultiplier(t *testing.T) {
	opts := DefaultSearchOptions()
	opts.Grow = 0
	opts.Multiplier = 0
	opts.Partial = "2/5"

	assert.NoError(t, opts.Validate())
}
