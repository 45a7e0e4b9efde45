// Package geojson reads and writes feature layers as GeoJSON files.
//
// Files are read completely into an in-memory layer. Property types are
// inferred from the values: numbers that are all whole become integer
// fields, other numbers real fields, and anything else string fields.
package geojson

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/custodia-labs/thalweg-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
	"github.com/custodia-labs/thalweg-cli/internal/core/ports/driven"
)

// Open reads the GeoJSON FeatureCollection or Feature at path.
func Open(path string) (*memory.FeatureLayer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	layer, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return layer, nil
}

// Decode parses a GeoJSON FeatureCollection or a single Feature.
func Decode(data []byte) (*memory.FeatureLayer, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		f, ferr := geojson.UnmarshalFeature(data)
		if ferr != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnsupportedType, err)
		}
		fc = geojson.NewFeatureCollection().Append(f)
	}

	fields := inferFields(fc.Features)
	features := make([]domain.Feature, 0, len(fc.Features))
	for i, f := range fc.Features {
		attrs := domain.NewAttributes()
		for _, field := range fields {
			v, _ := field.Type.Coerce(f.Properties[field.Name])
			attrs.Set(field.Name, v)
		}
		features = append(features, domain.Feature{
			ID:         featureID(f.ID, i),
			Geometry:   f.Geometry,
			Attributes: attrs,
		})
	}
	return memory.NewFeatureLayer(fields, features...), nil
}

// featureID uses a whole-number GeoJSON id, else the 1-based position.
func featureID(id any, i int) int64 {
	if f, ok := id.(float64); ok && f == math.Trunc(f) && f > 0 {
		return int64(f)
	}
	return int64(i + 1)
}

func inferFields(features []*geojson.Feature) []domain.Field {
	var fields []domain.Field
	index := map[string]int{}
	for _, f := range features {
		keys := make([]string, 0, len(f.Properties))
		for k := range f.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			t := valueType(f.Properties[k])
			i, seen := index[k]
			if !seen {
				index[k] = len(fields)
				fields = append(fields, domain.Field{Name: k, Type: t})
				continue
			}
			fields[i].Type = widen(fields[i].Type, t)
		}
	}
	// a key holding only nulls has no type yet
	for i := range fields {
		if fields[i].Type == "" {
			fields[i].Type = domain.FieldString
		}
	}
	return fields
}

func valueType(v any) domain.FieldType {
	switch n := v.(type) {
	case nil:
		return ""
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return domain.FieldInteger
		}
		return domain.FieldReal
	default:
		return domain.FieldString
	}
}

// widen returns the narrowest type able to hold values of both a and b.
func widen(a, b domain.FieldType) domain.FieldType {
	switch {
	case a == "":
		return b
	case b == "" || a == b:
		return a
	case a == domain.FieldString || b == domain.FieldString:
		return domain.FieldString
	default:
		return domain.FieldReal
	}
}

// Sink collects features and writes them as a FeatureCollection on Close.
type Sink struct {
	mu     sync.Mutex
	file   *os.File
	fields []domain.Field
	fc     *geojson.FeatureCollection
}

var _ driven.FeatureSink = (*Sink)(nil)

// Create creates the file at path for a layer whose schema is template
// followed by one real field per extra name.
func Create(path string, template []domain.Field, extra ...string) (*Sink, error) {
	fields, err := domain.ExtendFields(template, extra...)
	if err != nil {
		return nil, err
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return &Sink{file: file, fields: fields, fc: geojson.NewFeatureCollection()}, nil
}

// Fields returns the layer schema.
func (s *Sink) Fields() []domain.Field {
	return s.fields
}

// Append adds a feature. NaN and infinite reals are written as null.
func (s *Sink) Append(_ context.Context, g orb.Geometry, attrs *domain.Attributes) error {
	f := geojson.NewFeature(g)
	for _, field := range s.fields {
		v, _ := attrs.Get(field.Name)
		c, ok := field.Type.Coerce(v)
		if !ok {
			return fmt.Errorf("%w: field %q cannot hold %v", domain.ErrInvalidInput, field.Name, v)
		}
		if x, isFloat := c.(float64); isFloat && (math.IsNaN(x) || math.IsInf(x, 0)) {
			c = nil
		}
		f.Properties[field.Name] = c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return os.ErrClosed
	}
	s.fc.Append(f)
	return nil
}

// Close writes the collection and closes the file.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	file := s.file
	s.file = nil

	data, err := s.fc.MarshalJSON()
	if err != nil {
		file.Close()
		return fmt.Errorf("encoding features: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("writing %s: %w", file.Name(), err)
	}
	return file.Close()
}
