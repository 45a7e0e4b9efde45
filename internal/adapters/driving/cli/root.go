// Package cli provides the cobra command tree for the thalweg binary.
package cli

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/thalweg-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/thalweg-cli/internal/adapters/driven/raster"
	"github.com/custodia-labs/thalweg-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/thalweg-cli/internal/core/ports/driven"
	"github.com/custodia-labs/thalweg-cli/internal/core/ports/driving"
	"github.com/custodia-labs/thalweg-cli/internal/core/services"
	"github.com/custodia-labs/thalweg-cli/internal/logger"
)

var (
	// version is set at build time via -ldflags.
	version = "dev"

	verbose   bool
	configDir string
)

// Services shared by commands. Tests replace them directly.
var (
	settingsService driving.SettingsService

	// openLedger opens the run ledger. The returned function releases it.
	openLedger = openSQLiteLedger
)

var rootCmd = &cobra.Command{
	Use:   "thalweg",
	Short: "Upstream elevation profiles for watercourse centerlines",
	Long: `thalweg samples elevation along watercourse centerlines so that every
point lies at or below the points upstream of it.

Inputs are vector layers (GeoJSON, Shapefile or SQLite) and raster stores
(ESRI ASCII grids or SQLite tiled rasters).`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default ~/.thalweg)")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version reported by "thalweg version".
func SetVersion(v string) {
	version = v
}

func setup(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if settingsService != nil {
		return nil
	}
	cfg, err := file.NewConfigStore(configDir)
	if err != nil {
		return err
	}
	settingsService = services.NewSettingsService(cfg)
	return nil
}

// dataDir returns the directory of the run ledger database, empty for
// the default location.
func dataDir() string {
	if configDir == "" {
		return ""
	}
	return filepath.Join(configDir, "data")
}

func openSQLiteLedger() (driven.RunLedger, func(), error) {
	store, err := sqlite.NewStore(dataDir())
	if err != nil {
		return nil, func() {}, err
	}
	return store.RunLedger(), func() { store.Close() }, nil
}

// ledgerOrNil opens the run ledger. Runs proceed without history when it
// is unavailable.
func ledgerOrNil() (driven.RunLedger, func()) {
	ledger, release, err := openLedger()
	if err != nil {
		logger.Warn("Run history disabled: %v", err)
		return nil, func() {}
	}
	return ledger, release
}

// openStores opens every raster store path and fuses them by minimum.
func openStores(ctx context.Context, paths []string) (driven.RasterStore, error) {
	stores, err := raster.OpenAll(ctx, paths)
	if err != nil {
		return nil, err
	}
	fused, err := services.NewMinimumStore(stores...)
	if err != nil {
		return nil, err
	}
	return fused, nil
}
