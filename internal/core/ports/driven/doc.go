// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - FeatureSource: Iterates, queries and partitions vector features
//   - FeatureSink: Appends output records
//   - RasterStore: Samples an elevation grid for a region
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - ProgressReporter: Progress display. Without it, runs are silent.
//   - RunLedger: Run history persistence. Without it, runs are not recorded.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
