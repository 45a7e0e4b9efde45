package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Partition selects the Index-th of Count contiguous, equally sized chunks
// of a feature collection. Index is one-based.
type Partition struct {
	Index int
	Count int
}

// ParsePartition parses a "k/n" string such as "2/5".
func ParsePartition(text string) (Partition, error) {
	left, right, ok := strings.Cut(strings.TrimSpace(text), "/")
	if !ok {
		return Partition{}, fmt.Errorf("%w: %q is not of the form k/n", ErrInvalidPartition, text)
	}
	k, err := strconv.Atoi(strings.TrimSpace(left))
	if err != nil {
		return Partition{}, fmt.Errorf("%w: %q: %v", ErrInvalidPartition, text, err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(right))
	if err != nil {
		return Partition{}, fmt.Errorf("%w: %q: %v", ErrInvalidPartition, text, err)
	}
	p := Partition{Index: k, Count: n}
	if err := p.Validate(); err != nil {
		return Partition{}, err
	}
	return p, nil
}

// Validate checks 1 <= Index <= Count.
func (p Partition) Validate() error {
	if p.Count < 1 || p.Index < 1 || p.Index > p.Count {
		return fmt.Errorf("%w: %d/%d", ErrInvalidPartition, p.Index, p.Count)
	}
	return nil
}

// Range returns the half-open index range [start, stop) of this partition
// within a collection of total features. The last partition absorbs the
// remainder of a non-divisible count.
func (p Partition) Range(total int) (start, stop int) {
	size := float64(total) / float64(p.Count)
	start = int(float64(p.Index-1) * size)
	if p.Index == p.Count {
		return start, total
	}
	return start, int(float64(p.Index) * size)
}

// String returns the "k/n" form.
func (p Partition) String() string {
	return fmt.Sprintf("%d/%d", p.Index, p.Count)
}
