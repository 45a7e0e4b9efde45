package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"math"
	"strings"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"

	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
	"github.com/custodia-labs/thalweg-cli/internal/core/ports/driven"
	"github.com/custodia-labs/thalweg-cli/internal/geometry"
)

// pageSize is the number of features read per query while iterating.
const pageSize = 256

// DefaultLayer is the layer name used when a path has no #layer suffix
// and a new layer is created.
const DefaultLayer = "features"

// FeatureLayer is a feature table in a Store. It is both a source and a sink.
type FeatureLayer struct {
	store  *Store
	name   string
	fields []domain.Field

	// owned layers close their store on Close.
	owned bool

	mu     sync.Mutex
	nextID int64
}

var (
	_ driven.FeatureSource = (*FeatureLayer)(nil)
	_ driven.FeatureSink   = (*FeatureLayer)(nil)
)

// OpenFeatureLayer opens "file.db#layer" for reading. Without a suffix the
// database must hold exactly one layer.
func OpenFeatureLayer(ctx context.Context, path string) (*FeatureLayer, error) {
	file, name := SplitPath(path)
	store, err := Open(file)
	if err != nil {
		return nil, err
	}
	if name == "" {
		names, err := store.Layers(ctx)
		if err != nil {
			store.Close()
			return nil, err
		}
		if len(names) != 1 {
			store.Close()
			return nil, fmt.Errorf("%w: %s holds %d layers, name one with #layer", domain.ErrInvalidInput, file, len(names))
		}
		name = names[0]
	}
	layer, err := store.Layer(ctx, name)
	if err != nil {
		store.Close()
		return nil, err
	}
	layer.owned = true
	return layer, nil
}

// CreateFeatureLayer creates "file.db#layer" for writing, replacing any
// layer of the same name. The schema is template followed by extra real
// fields.
func CreateFeatureLayer(ctx context.Context, path string, template []domain.Field, extra ...string) (*FeatureLayer, error) {
	fields, err := domain.ExtendFields(template, extra...)
	if err != nil {
		return nil, err
	}
	file, name := SplitPath(path)
	if name == "" {
		name = DefaultLayer
	}
	store, err := Open(file)
	if err != nil {
		return nil, err
	}
	layer, err := store.CreateLayer(ctx, name, fields)
	if err != nil {
		store.Close()
		return nil, err
	}
	layer.owned = true
	return layer, nil
}

// Layers returns the names of all feature layers.
func (s *Store) Layers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM layers ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying layers: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning layer: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating layers: %w", err)
	}
	return names, nil
}

// Layer opens an existing feature layer.
func (s *Store) Layer(ctx context.Context, name string) (*FeatureLayer, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM layers WHERE name = ?", name).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("layer %q: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting layer: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, type, width, precision FROM fields
		WHERE layer = ? ORDER BY position
	`, name)
	if err != nil {
		return nil, fmt.Errorf("querying fields: %w", err)
	}
	defer rows.Close()

	layer := &FeatureLayer{store: s, name: name}
	for rows.Next() {
		var f domain.Field
		var typ string
		if err := rows.Scan(&f.Name, &typ, &f.Width, &f.Precision); err != nil {
			return nil, fmt.Errorf("scanning field: %w", err)
		}
		f.Type = domain.FieldType(typ)
		layer.fields = append(layer.fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fields: %w", err)
	}

	if err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(id), 0) FROM features WHERE layer = ?", name).Scan(&layer.nextID); err != nil {
		return nil, fmt.Errorf("getting last feature id: %w", err)
	}
	return layer, nil
}

// CreateLayer creates an empty feature layer, replacing any existing
// layer of the same name.
func (s *Store) CreateLayer(ctx context.Context, name string, fields []domain.Field) (*FeatureLayer, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty layer name", domain.ErrInvalidInput)
	}
	for _, f := range fields {
		if !f.Type.IsValid() {
			return nil, fmt.Errorf("%w: field %q has type %q", domain.ErrUnsupportedType, f.Name, f.Type)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM layers WHERE name = ?", name); err != nil {
		return nil, fmt.Errorf("replacing layer: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO layers (name) VALUES (?)", name); err != nil {
		return nil, fmt.Errorf("creating layer: %w", err)
	}
	for i, f := range fields {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO fields (layer, position, name, type, width, precision)
			VALUES (?, ?, ?, ?, ?, ?)
		`, name, i, f.Name, string(f.Type), f.Width, f.Precision); err != nil {
			return nil, fmt.Errorf("creating field %q: %w", f.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	out := make([]domain.Field, len(fields))
	copy(out, fields)
	return &FeatureLayer{store: s, name: name, fields: out}, nil
}

// Name returns the layer name.
func (l *FeatureLayer) Name() string {
	return l.name
}

// Fields returns the layer schema.
func (l *FeatureLayer) Fields() []domain.Field {
	return l.fields
}

// Count returns the number of features in the layer.
func (l *FeatureLayer) Count(ctx context.Context) (int, error) {
	var n int
	if err := l.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM features WHERE layer = ?", l.name).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting features: %w", err)
	}
	return n, nil
}

// Features iterates all features in id order.
func (l *FeatureLayer) Features(ctx context.Context) iter.Seq2[domain.Feature, error] {
	return l.scan(ctx, "", nil, -1, nil)
}

// Query iterates the features whose bounding box overlaps region's,
// refined by exact intersection for areal regions.
func (l *FeatureLayer) Query(ctx context.Context, region orb.Geometry) iter.Seq2[domain.Feature, error] {
	if region == nil {
		return func(func(domain.Feature, error) bool) {}
	}
	b := region.Bound()
	where := " AND max_x >= ? AND min_x <= ? AND max_y >= ? AND min_y <= ?"
	args := []any{b.Min[0], b.Max[0], b.Min[1], b.Max[1]}
	mp, areal := geometry.AsMultiPolygon(region)
	keep := func(f domain.Feature) bool {
		return !areal || geometry.Intersects(f.Geometry, mp)
	}
	return l.scan(ctx, where, args, -1, keep)
}

// Select iterates the features of one partition of the layer.
func (l *FeatureLayer) Select(ctx context.Context, part domain.Partition) iter.Seq2[domain.Feature, error] {
	if err := part.Validate(); err != nil {
		return func(yield func(domain.Feature, error) bool) {
			yield(domain.Feature{}, err)
		}
	}
	total, err := l.Count(ctx)
	if err != nil {
		return func(yield func(domain.Feature, error) bool) {
			yield(domain.Feature{}, err)
		}
	}
	start, stop := part.Range(total)
	return func(yield func(domain.Feature, error) bool) {
		// skip to the first id of the partition
		var first int64
		err := l.store.db.QueryRowContext(ctx, `
			SELECT id FROM features WHERE layer = ? ORDER BY id LIMIT 1 OFFSET ?
		`, l.name, start).Scan(&first)
		if errors.Is(err, sql.ErrNoRows) {
			return
		}
		if err != nil {
			yield(domain.Feature{}, fmt.Errorf("locating partition: %w", err))
			return
		}
		for f, err := range l.scan(ctx, " AND id >= ?", []any{first}, stop-start, nil) {
			if !yield(f, err) {
				return
			}
		}
	}
}

// scan pages through the layer in id order. Each page is read completely
// before its features are yielded, so callers may write to the same
// database while iterating. A negative limit means no limit.
func (l *FeatureLayer) scan(ctx context.Context, where string, args []any, limit int,
	keep func(domain.Feature) bool) iter.Seq2[domain.Feature, error] {
	return func(yield func(domain.Feature, error) bool) {
		var after int64
		remaining := limit
		for remaining != 0 {
			n := pageSize
			if remaining > 0 {
				n = min(n, remaining)
			}
			page, err := l.page(ctx, where, args, after, n)
			if err != nil {
				yield(domain.Feature{}, err)
				return
			}
			for _, f := range page {
				after = f.ID
				if keep != nil && !keep(f) {
					continue
				}
				if !yield(f, nil) {
					return
				}
			}
			if remaining > 0 {
				remaining -= len(page)
			}
			if len(page) < n {
				return
			}
		}
	}
}

func (l *FeatureLayer) page(ctx context.Context, where string, args []any, after int64, n int) ([]domain.Feature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query := `SELECT id, geometry, attributes FROM features WHERE layer = ? AND id > ?` +
		where + ` ORDER BY id LIMIT ?`
	params := append([]any{l.name, after}, args...)
	params = append(params, n)

	rows, err := l.store.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("querying features: %w", err)
	}
	defer rows.Close()

	var out []domain.Feature
	for rows.Next() {
		f, err := l.scanFeature(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating features: %w", err)
	}
	return out, nil
}

func (l *FeatureLayer) scanFeature(rows *sql.Rows) (domain.Feature, error) {
	var f domain.Feature
	var blob []byte
	var attrs string
	if err := rows.Scan(&f.ID, &blob, &attrs); err != nil {
		return f, fmt.Errorf("scanning feature: %w", err)
	}
	if len(blob) > 0 {
		g, err := wkb.Unmarshal(blob)
		if err != nil {
			return f, fmt.Errorf("decoding feature %d geometry: %w", f.ID, err)
		}
		f.Geometry = g
	}
	a, err := decodeAttributes(l.fields, attrs)
	if err != nil {
		return f, fmt.Errorf("decoding feature %d attributes: %w", f.ID, err)
	}
	f.Attributes = a
	return f, nil
}

// Append adds a feature. Attributes outside the layer schema are dropped.
func (l *FeatureLayer) Append(ctx context.Context, g orb.Geometry, attrs *domain.Attributes) error {
	var blob []byte
	var bbox [4]any
	if g != nil {
		var err error
		blob, err = wkb.Marshal(g)
		if err != nil {
			return fmt.Errorf("encoding geometry: %w", err)
		}
		b := g.Bound()
		bbox = [4]any{b.Min[0], b.Min[1], b.Max[0], b.Max[1]}
	}
	text, err := encodeAttributes(l.fields, attrs)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextID + 1
	if _, err := l.store.db.ExecContext(ctx, `
		INSERT INTO features (layer, id, geometry, attributes, min_x, min_y, max_x, max_y)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, l.name, id, blob, text, bbox[0], bbox[1], bbox[2], bbox[3]); err != nil {
		return fmt.Errorf("inserting feature: %w", err)
	}
	l.nextID = id
	return nil
}

// Close closes the underlying store when the layer was opened from a path.
func (l *FeatureLayer) Close() error {
	if l.owned {
		return l.store.Close()
	}
	return nil
}

// encodeAttributes writes the values of fields, in order, as a JSON array.
// NaN and infinite reals are stored as null.
func encodeAttributes(fields []domain.Field, attrs *domain.Attributes) (string, error) {
	values := make([]any, len(fields))
	for i, f := range fields {
		v, _ := attrs.Get(f.Name)
		c, ok := f.Type.Coerce(v)
		if !ok {
			return "", fmt.Errorf("%w: field %q cannot hold %v", domain.ErrInvalidInput, f.Name, v)
		}
		if x, isFloat := c.(float64); isFloat && (math.IsNaN(x) || math.IsInf(x, 0)) {
			c = nil
		}
		values[i] = c
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("encoding attributes: %w", err)
	}
	return string(data), nil
}

func decodeAttributes(fields []domain.Field, text string) (*domain.Attributes, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var values []any
	if err := dec.Decode(&values); err != nil {
		return nil, err
	}
	attrs := domain.NewAttributes()
	for i, f := range fields {
		var v any
		if i < len(values) {
			v, _ = f.Type.Coerce(values[i])
		}
		attrs.Set(f.Name, v)
	}
	return attrs, nil
}
