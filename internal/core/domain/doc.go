// Package domain defines the core entities for thalweg.
//
// This package is part of the hexagonal architecture's innermost layer.
// It defines the fundamental types:
//
//   - Feature: A vector feature with geometry and ordered attributes
//   - Grid: A rectangular block of elevation samples with a no-data sentinel
//   - Site: A sample point on a centerline with its travel direction
//   - Record: A resolved point and its elevation
//   - SearchOptions: Parameters of the upstream search
//   - Partition: A "k/n" slice of a feature collection
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. All other packages depend on
// domain, never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library, github.com/paulmach/orb geometry primitives
//   - Cannot Import: Any internal/ package, any other external dependency
package domain
