package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// StatisticKind names a reduction over the valid cells of a grid.
type StatisticKind string

// Supported statistics.
const (
	StatValue      StatisticKind = "value"
	StatMin        StatisticKind = "min"
	StatMax        StatisticKind = "max"
	StatMean       StatisticKind = "mean"
	StatMedian     StatisticKind = "median"
	StatSum        StatisticKind = "sum"
	StatStd        StatisticKind = "std"
	StatCount      StatisticKind = "count"
	StatSize       StatisticKind = "size"
	StatPercentile StatisticKind = "percentile"
)

// Statistic is one requested output column of a zonal statistics run.
type Statistic struct {
	// Column is the output field name.
	Column string

	// Kind selects the reduction.
	Kind StatisticKind

	// Percentile is the requested percentile for StatPercentile, 0-100.
	Percentile float64
}

// ParseStatistic parses "name" or "column:name", where name is one of the
// statistic kinds or "p<n>" for the n-th percentile.
func ParseStatistic(text string) (Statistic, error) {
	column, name, ok := strings.Cut(text, ":")
	if !ok {
		name = column
	}
	if column == "" || name == "" {
		return Statistic{}, fmt.Errorf("%w: statistic %q", ErrInvalidInput, text)
	}

	if rest, ok := strings.CutPrefix(name, "p"); ok && rest != "" {
		n, err := strconv.Atoi(rest)
		if err != nil || n < 0 || n > 100 {
			return Statistic{}, fmt.Errorf("%w: percentile %q", ErrInvalidInput, name)
		}
		return Statistic{Column: column, Kind: StatPercentile, Percentile: float64(n)}, nil
	}

	kind := StatisticKind(name)
	switch kind {
	case StatValue, StatMin, StatMax, StatMean, StatMedian, StatSum, StatStd, StatCount, StatSize:
		return Statistic{Column: column, Kind: kind}, nil
	default:
		return Statistic{}, fmt.Errorf("%w: unknown statistic %q", ErrInvalidInput, name)
	}
}

// ParseStatistics parses each text and rejects duplicate columns.
func ParseStatistics(texts []string) ([]Statistic, error) {
	out := make([]Statistic, 0, len(texts))
	seen := make(map[string]bool, len(texts))
	for _, text := range texts {
		s, err := ParseStatistic(text)
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(s.Column)
		if seen[key] {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrInvalidInput, s.Column)
		}
		seen[key] = true
		out = append(out, s)
	}
	return out, nil
}
