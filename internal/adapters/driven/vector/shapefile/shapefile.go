// Package shapefile reads and writes feature layers as ESRI Shapefiles.
//
// Files are read completely into an in-memory layer. Z and M values are
// dropped. dBase limits field names to ten characters; longer names are
// truncated and must stay unique after truncation.
package shapefile

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/custodia-labs/thalweg-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
	"github.com/custodia-labs/thalweg-cli/internal/core/ports/driven"
)

// maxNameLength is the dBase field name limit.
const maxNameLength = 10

// Open reads the shapefile at path.
func Open(path string) (*memory.FeatureLayer, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer r.Close()

	dbf := r.Fields()
	fields := make([]domain.Field, len(dbf))
	for i, f := range dbf {
		fields[i] = fieldFromDBF(f)
	}

	var features []domain.Feature
	for r.Next() {
		n, shape := r.Shape()
		attrs := domain.NewAttributes()
		for k, f := range fields {
			raw := strings.Trim(r.ReadAttribute(n, k), " \x00")
			var v any
			if raw != "" {
				v, _ = f.Type.Coerce(raw)
			}
			attrs.Set(f.Name, v)
		}
		features = append(features, domain.Feature{
			ID:         int64(n) + 1,
			Geometry:   toOrb(shape),
			Attributes: attrs,
		})
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return memory.NewFeatureLayer(fields, features...), nil
}

func fieldFromDBF(f shp.Field) domain.Field {
	out := domain.Field{
		Name:      f.String(),
		Width:     int(f.Size),
		Precision: int(f.Precision),
	}
	switch f.Fieldtype {
	case 'N':
		if f.Precision == 0 {
			out.Type = domain.FieldInteger
		} else {
			out.Type = domain.FieldReal
		}
	case 'F':
		out.Type = domain.FieldReal
	default:
		out.Type = domain.FieldString
	}
	return out
}

func fieldToDBF(f domain.Field) shp.Field {
	switch f.Type {
	case domain.FieldInteger:
		return shp.NumberField(f.Name, uint8(orDefault(f.Width, 18)))
	case domain.FieldReal:
		return shp.FloatField(f.Name, uint8(orDefault(f.Width, 24)), uint8(orDefault(f.Precision, 15)))
	default:
		return shp.StringField(f.Name, uint8(orDefault(f.Width, 254)))
	}
}

func orDefault(v, def int) int {
	if v <= 0 || v > 254 {
		return def
	}
	return v
}

// toOrb converts a shape. Null shapes and unknown types become nil.
func toOrb(shape shp.Shape) orb.Geometry {
	switch s := shape.(type) {
	case *shp.Point:
		return orb.Point{s.X, s.Y}
	case *shp.PointZ:
		return orb.Point{s.X, s.Y}
	case *shp.PointM:
		return orb.Point{s.X, s.Y}
	case *shp.MultiPoint:
		return multiPoint(s.Points)
	case *shp.MultiPointZ:
		return multiPoint(s.Points)
	case *shp.MultiPointM:
		return multiPoint(s.Points)
	case *shp.PolyLine:
		return lines(s.Parts, s.Points)
	case *shp.PolyLineZ:
		return lines(s.Parts, s.Points)
	case *shp.PolyLineM:
		return lines(s.Parts, s.Points)
	case *shp.Polygon:
		return polygons(s.Parts, s.Points)
	case *shp.PolygonZ:
		return polygons(s.Parts, s.Points)
	case *shp.PolygonM:
		return polygons(s.Parts, s.Points)
	default:
		return nil
	}
}

func multiPoint(points []shp.Point) orb.MultiPoint {
	out := make(orb.MultiPoint, len(points))
	for i, p := range points {
		out[i] = orb.Point{p.X, p.Y}
	}
	return out
}

// split cuts points at the part offsets.
func split(parts []int32, points []shp.Point) [][]orb.Point {
	out := make([][]orb.Point, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start > end || int(end) > len(points) {
			continue
		}
		part := make([]orb.Point, 0, end-start)
		for _, p := range points[start:end] {
			part = append(part, orb.Point{p.X, p.Y})
		}
		out = append(out, part)
	}
	return out
}

func lines(parts []int32, points []shp.Point) orb.Geometry {
	pieces := split(parts, points)
	if len(pieces) == 1 {
		return orb.LineString(pieces[0])
	}
	out := make(orb.MultiLineString, len(pieces))
	for i, p := range pieces {
		out[i] = orb.LineString(p)
	}
	return out
}

// polygons groups rings: clockwise rings are shells, the others holes of
// the shell that contains them.
func polygons(parts []int32, points []shp.Point) orb.Geometry {
	var out orb.MultiPolygon
	var holes []orb.Ring
	for _, p := range split(parts, points) {
		ring := orb.Ring(p)
		if len(ring) < 4 {
			continue
		}
		if ring.Orientation() == orb.CW {
			out = append(out, orb.Polygon{reversed(ring)})
		} else {
			holes = append(holes, reversed(ring))
		}
	}
	for _, h := range holes {
		placed := false
		for i := range out {
			if planar.RingContains(out[i][0], h[0]) {
				out[i] = append(out[i], h)
				placed = true
				break
			}
		}
		if !placed {
			// a lone counter-clockwise ring is a shell written the other way round
			out = append(out, orb.Polygon{reversed(h)})
		}
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

// reversed returns a reversed copy of r.
func reversed(r orb.Ring) orb.Ring {
	out := make(orb.Ring, len(r))
	for i, p := range r {
		out[len(r)-1-i] = p
	}
	return out
}

// Sink writes features to a shapefile. The shape type is taken from the
// first appended geometry.
type Sink struct {
	mu     sync.Mutex
	path   string
	fields []domain.Field
	dbf    []shp.Field
	w      *shp.Writer
	kind   shp.ShapeType
	rows   int
	closed bool
}

var _ driven.FeatureSink = (*Sink)(nil)

// Create prepares a shapefile at path whose schema is template followed
// by one real field per extra name. The file is created on the first
// Append, or on Close when nothing was appended.
func Create(path string, template []domain.Field, extra ...string) (*Sink, error) {
	fields, err := domain.ExtendFields(template, extra...)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(fields))
	dbf := make([]shp.Field, len(fields))
	for i, f := range fields {
		short := f.Name
		if len(short) > maxNameLength {
			short = short[:maxNameLength]
		}
		key := strings.ToLower(short)
		if seen[key] {
			return nil, &domain.FieldCollisionError{Field: f.Name}
		}
		seen[key] = true
		truncated := f
		truncated.Name = short
		dbf[i] = fieldToDBF(truncated)
	}
	return &Sink{path: path, fields: fields, dbf: dbf}, nil
}

// Fields returns the layer schema.
func (s *Sink) Fields() []domain.Field {
	return s.fields
}

// Append writes a feature.
func (s *Sink) Append(_ context.Context, g orb.Geometry, attrs *domain.Attributes) error {
	shape, kind, err := fromOrb(g)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("append to %s: sink closed", s.path)
	}
	if s.w == nil {
		if err := s.open(kind); err != nil {
			return err
		}
	}
	if kind != s.kind {
		return fmt.Errorf("%w: %s in a %s shapefile", domain.ErrUnsupportedType, g.GeoJSONType(), kindName(s.kind))
	}

	row := int(s.w.Write(shape))
	for i, f := range s.fields {
		v, _ := attrs.Get(f.Name)
		text, err := formatValue(f, s.dbf[i], v)
		if err != nil {
			return err
		}
		if err := s.w.WriteAttribute(row, i, text); err != nil {
			return fmt.Errorf("writing field %q: %w", f.Name, err)
		}
	}
	s.rows++
	return nil
}

func (s *Sink) open(kind shp.ShapeType) error {
	w, err := shp.Create(s.path, kind)
	if err != nil {
		return fmt.Errorf("creating %s: %w", s.path, err)
	}
	if err := w.SetFields(s.dbf); err != nil {
		w.Close()
		return fmt.Errorf("writing fields: %w", err)
	}
	s.w = w
	s.kind = kind
	return nil
}

// Close finishes the shapefile.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.w == nil {
		if err := s.open(shp.POINT); err != nil {
			return err
		}
	}
	s.w.Close()
	return nil
}

// formatValue renders v as the text stored in a dBase field, padded
// with spaces. Missing values and NaN are blank.
func formatValue(f domain.Field, dbf shp.Field, v any) (string, error) {
	size := int(dbf.Size)
	c, ok := f.Type.Coerce(v)
	if !ok {
		return "", fmt.Errorf("%w: field %q cannot hold %v", domain.ErrInvalidInput, f.Name, v)
	}

	var text string
	switch x := c.(type) {
	case nil:
	case string:
		text = x
		if len(text) > size {
			text = text[:size]
		}
	case int64:
		text = strconv.FormatInt(x, 10)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			break
		}
		text = strconv.FormatFloat(x, 'f', int(dbf.Precision), 64)
		if len(text) > size {
			text = strconv.FormatFloat(x, 'g', -1, 64)
		}
	}
	if len(text) > size {
		return "", fmt.Errorf("%w: %q does not fit field %q", domain.ErrInvalidInput, text, f.Name)
	}
	if c == nil || f.Type == domain.FieldString {
		return text + strings.Repeat(" ", size-len(text)), nil
	}
	return strings.Repeat(" ", size-len(text)) + text, nil
}

// fromOrb converts a geometry to a shape and its shapefile type.
func fromOrb(g orb.Geometry) (shp.Shape, shp.ShapeType, error) {
	switch v := g.(type) {
	case orb.Point:
		return &shp.Point{X: v[0], Y: v[1]}, shp.POINT, nil
	case orb.MultiPoint:
		points := toShp(v)
		return &shp.MultiPoint{
			Box:       shp.BBoxFromPoints(points),
			NumPoints: int32(len(points)),
			Points:    points,
		}, shp.MULTIPOINT, nil
	case orb.LineString:
		return shp.NewPolyLine([][]shp.Point{toShp(v)}), shp.POLYLINE, nil
	case orb.MultiLineString:
		parts := make([][]shp.Point, len(v))
		for i, ls := range v {
			parts[i] = toShp(ls)
		}
		return shp.NewPolyLine(parts), shp.POLYLINE, nil
	case orb.Polygon:
		return polygonShape(orb.MultiPolygon{v}), shp.POLYGON, nil
	case orb.MultiPolygon:
		return polygonShape(v), shp.POLYGON, nil
	case nil:
		return nil, 0, fmt.Errorf("%w: missing geometry", domain.ErrUnsupportedType)
	default:
		return nil, 0, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, g.GeoJSONType())
	}
}

// polygonShape writes shells clockwise and holes counter-clockwise.
func polygonShape(mp orb.MultiPolygon) *shp.Polygon {
	var parts [][]shp.Point
	for _, poly := range mp {
		for i, ring := range poly {
			want := orb.CW
			if i > 0 {
				want = orb.CCW
			}
			if ring.Orientation() != want {
				ring = reversed(ring)
			}
			parts = append(parts, toShp(ring))
		}
	}
	p := shp.Polygon(*shp.NewPolyLine(parts))
	return &p
}

func toShp[T ~[]orb.Point](points T) []shp.Point {
	out := make([]shp.Point, len(points))
	for i, p := range points {
		out[i] = shp.Point{X: p[0], Y: p[1]}
	}
	return out
}

func kindName(t shp.ShapeType) string {
	switch t {
	case shp.POINT:
		return "point"
	case shp.MULTIPOINT:
		return "multipoint"
	case shp.POLYLINE:
		return "polyline"
	case shp.POLYGON:
		return "polygon"
	default:
		return strconv.Itoa(int(t))
	}
}
