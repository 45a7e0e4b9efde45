package memory

import (
	"context"
	"iter"
	"sync"

	"github.com/paulmach/orb"

	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
	"github.com/custodia-labs/thalweg-cli/internal/core/ports/driven"
	"github.com/custodia-labs/thalweg-cli/internal/geometry"
)

// Ensure FeatureLayer implements both feature ports.
var (
	_ driven.FeatureSource = (*FeatureLayer)(nil)
	_ driven.FeatureSink   = (*FeatureLayer)(nil)
)

// FeatureLayer is an in-memory feature layer. It serves as a source and,
// when created with NewFeatureSink, as a sink whose appended features can
// be read back.
type FeatureLayer struct {
	mu       sync.RWMutex
	fields   []domain.Field
	features []domain.Feature
	nextID   int64
}

// NewFeatureLayer creates a layer holding features. Feature IDs of zero
// are assigned in order.
func NewFeatureLayer(fields []domain.Field, features ...domain.Feature) *FeatureLayer {
	l := &FeatureLayer{fields: fields}
	for _, f := range features {
		l.add(f.Geometry, f.Attributes, f.ID)
	}
	return l
}

// NewFeatureSink creates an empty layer whose schema is the template
// schema followed by one real field per extra name.
func NewFeatureSink(template []domain.Field, extra ...string) (*FeatureLayer, error) {
	fields, err := domain.ExtendFields(template, extra...)
	if err != nil {
		return nil, err
	}
	return &FeatureLayer{fields: fields}, nil
}

func (l *FeatureLayer) add(g orb.Geometry, attrs *domain.Attributes, id int64) {
	l.nextID++
	if id == 0 {
		id = l.nextID
	}
	l.features = append(l.features, domain.Feature{ID: id, Geometry: g, Attributes: attrs})
}

// Count returns the number of features.
func (l *FeatureLayer) Count(_ context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.features), nil
}

// Features yields every feature in insertion order.
func (l *FeatureLayer) Features(ctx context.Context) iter.Seq2[domain.Feature, error] {
	return l.yield(ctx, l.snapshot(), nil)
}

// Query yields the features intersecting region.
func (l *FeatureLayer) Query(ctx context.Context, region orb.Geometry) iter.Seq2[domain.Feature, error] {
	mp, ok := geometry.AsMultiPolygon(region)
	return l.yield(ctx, l.snapshot(), func(f domain.Feature) bool {
		if !ok {
			return f.Geometry != nil && f.Geometry.Bound().Intersects(region.Bound())
		}
		return geometry.Intersects(f.Geometry, mp)
	})
}

// Select yields the features of the given partition.
func (l *FeatureLayer) Select(ctx context.Context, part domain.Partition) iter.Seq2[domain.Feature, error] {
	all := l.snapshot()
	if err := part.Validate(); err != nil {
		return func(yield func(domain.Feature, error) bool) {
			yield(domain.Feature{}, err)
		}
	}
	start, stop := part.Range(len(all))
	return l.yield(ctx, all[start:stop], nil)
}

func (l *FeatureLayer) snapshot() []domain.Feature {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Feature, len(l.features))
	copy(out, l.features)
	return out
}

func (l *FeatureLayer) yield(ctx context.Context, features []domain.Feature,
	keep func(domain.Feature) bool) iter.Seq2[domain.Feature, error] {
	return func(yield func(domain.Feature, error) bool) {
		for _, f := range features {
			if err := ctx.Err(); err != nil {
				yield(domain.Feature{}, err)
				return
			}
			if keep != nil && !keep(f) {
				continue
			}
			if !yield(f, nil) {
				return
			}
		}
	}
}

// Fields returns the layer schema.
func (l *FeatureLayer) Fields() []domain.Field {
	return l.fields
}

// Append adds a feature, keeping only attributes named in the schema.
func (l *FeatureLayer) Append(_ context.Context, g orb.Geometry, attrs *domain.Attributes) error {
	kept := domain.NewAttributes()
	for _, f := range l.fields {
		if v, ok := attrs.Get(f.Name); ok {
			kept.Set(f.Name, v)
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.add(g, kept, 0)
	return nil
}

// Close is a no-op.
func (l *FeatureLayer) Close() error {
	return nil
}
