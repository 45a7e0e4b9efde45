package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent processing failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown file format or geometry type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrInvalidPartition indicates a partition that is not "k/n" with 1 <= k <= n.
	ErrInvalidPartition = errors.New("invalid partition")

	// Search Errors.

	// ErrEmptyWindow indicates a search window holds fewer than two valid samples.
	// The site is skipped.
	ErrEmptyWindow = errors.New("empty search window")

	// ErrNoRecords indicates a centerline resolved to no records at all.
	ErrNoRecords = errors.New("no records")

	// ErrGeometryDegeneracy indicates a window geometry that cannot be reduced
	// to a single polygon.
	ErrGeometryDegeneracy = errors.New("degenerate window geometry")

	// ErrOutsideConfinement indicates a sample point outside the confinement polygon.
	ErrOutsideConfinement = errors.New("point outside confinement")

	// ErrDegenerateSegment indicates a line without a defined direction.
	ErrDegenerateSegment = errors.New("degenerate segment")

	// Collaborator Errors.

	// ErrShapeMismatch indicates a raster store returned a grid whose
	// dimensions differ from the request.
	ErrShapeMismatch = errors.New("grid shape mismatch")

	// ErrFieldCollision indicates an output field name already present
	// in the template schema.
	ErrFieldCollision = errors.New("field already exists in template")
)

// FieldCollisionError reports which field collided with the template schema.
type FieldCollisionError struct {
	Field string
}

func (e *FieldCollisionError) Error() string {
	return fmt.Sprintf("field named %q already exists in template", e.Field)
}

// Is matches ErrFieldCollision.
func (e *FieldCollisionError) Is(target error) bool {
	return target == ErrFieldCollision
}

// IsSkippable reports whether err is a per-site anomaly that is absorbed
// by skipping the site rather than aborting the run.
func IsSkippable(err error) bool {
	return errors.Is(err, ErrEmptyWindow) ||
		errors.Is(err, ErrOutsideConfinement) ||
		errors.Is(err, ErrGeometryDegeneracy)
}
