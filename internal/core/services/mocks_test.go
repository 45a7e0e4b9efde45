package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/custodia-labs/thalweg-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
	"github.com/custodia-labs/thalweg-cli/internal/core/ports/driven"
)

var errStoreDown = errors.New("store unavailable")

// mockRasterStore returns a fixed grid, or err, and records requests.
type mockRasterStore struct {
	grid     domain.Grid
	err      error
	closeErr error
	requests []domain.SampleRequest
	closed   bool
}

func (m *mockRasterStore) Sample(_ context.Context, req domain.SampleRequest) (domain.Grid, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return domain.Grid{}, m.err
	}
	return m.grid, nil
}

func (m *mockRasterStore) Close() error {
	m.closed = true
	return m.closeErr
}

// constantGrid returns a w by h grid holding v everywhere.
func constantGrid(w, h int, v, noData float64) domain.Grid {
	g := domain.NewGrid(w, h, orb.Bound{Max: orb.Point{float64(w), float64(h)}}, noData)
	for i := range g.Values {
		g.Values[i] = v
	}
	return g
}

// constantStore returns a store answering every request with v.
func constantStore(v, noData float64) driven.RasterStore {
	return memory.NewSurfaceStore(fmt.Sprintf("constant %g", v), noData, memory.ConstantSurface(v))
}

// mockProgress records progress calls.
type mockProgress struct {
	label    string
	total    int
	advanced int
	finished bool
}

func (m *mockProgress) Start(label string, total int) { m.label, m.total = label, total }
func (m *mockProgress) Advance(n int)                 { m.advanced += n }
func (m *mockProgress) Finish()                       { m.finished = true }

// mockLedger records runs in memory.
type mockLedger struct {
	begun     []domain.Run
	completed []domain.Run
	beginErr  error
}

func (m *mockLedger) Begin(_ context.Context, run domain.Run) (domain.Run, error) {
	if m.beginErr != nil {
		return domain.Run{}, m.beginErr
	}
	run.ID = fmt.Sprintf("run-%d", len(m.begun)+1)
	m.begun = append(m.begun, run)
	return run, nil
}

func (m *mockLedger) Complete(_ context.Context, run domain.Run) error {
	m.completed = append(m.completed, run)
	return nil
}

func (m *mockLedger) Recent(_ context.Context, limit int) ([]domain.Run, error) {
	out := make([]domain.Run, 0, limit)
	for i := len(m.completed) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.completed[i])
	}
	return out, nil
}

// failingSink accepts n appends and then fails.
type failingSink struct {
	*memory.FeatureLayer
	remaining int
}

func (s *failingSink) Append(ctx context.Context, g orb.Geometry, attrs *domain.Attributes) error {
	if s.remaining == 0 {
		return errors.New("disk full")
	}
	s.remaining--
	return s.FeatureLayer.Append(ctx, g, attrs)
}

// rect returns an axis-aligned rectangle as a MultiPolygon.
func rect(x0, y0, x1, y1 float64) orb.MultiPolygon {
	return orb.MultiPolygon{{{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}}}
}

func named(name string, g orb.Geometry) domain.Feature {
	attrs := domain.NewAttributes()
	attrs.Set("name", name)
	return domain.Feature{Geometry: g, Attributes: attrs}
}
