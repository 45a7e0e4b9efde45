// Package sqlite stores feature layers, raster layers and the run ledger
// in a single SQLite database.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. One database file can hold:
//
//   - Feature layers: WKB geometries with bounding box columns, attributes as
//     JSON arrays aligned with the layer schema (FeatureSource and FeatureSink)
//   - Raster layers: square tiles of little-endian float32 cells (RasterStore)
//   - The run ledger: one row per upstream or zonal run (RunLedger)
//
// Paths of the form "file.db#name" select a layer inside the file.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// The run ledger is stored at ~/.thalweg/data/thalweg.db by default.
//
// # Thread Safety
//
// All operations are safe for concurrent use. The store uses database-level
// locking provided by SQLite in WAL mode.
package sqlite
