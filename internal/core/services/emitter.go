package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
	"github.com/custodia-labs/thalweg-cli/internal/core/ports/driven"
)

// RecordEmitter writes resolved records to a sink, carrying over the
// attributes of the line they came from.
type RecordEmitter struct {
	sink driven.FeatureSink
	key  string
}

// NewRecordEmitter creates an emitter storing elevations under key.
func NewRecordEmitter(sink driven.FeatureSink, key string) *RecordEmitter {
	return &RecordEmitter{sink: sink, key: key}
}

// Emit appends one point feature per record and returns how many were
// written. Records appended before a failure stay in the sink.
func (e *RecordEmitter) Emit(ctx context.Context, feature domain.Feature, records []domain.Record) (int, error) {
	for i, rec := range records {
		attrs := feature.Attributes.Clone()
		attrs.Set(e.key, rec.Elevation)
		if err := e.sink.Append(ctx, rec.Point, attrs); err != nil {
			return i, fmt.Errorf("append record %d of feature %d: %w", i, feature.ID, err)
		}
	}
	return len(records), nil
}
