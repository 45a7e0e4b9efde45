package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/thalweg-cli/internal/adapters/driven/raster"
	"github.com/custodia-labs/thalweg-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
	"github.com/custodia-labs/thalweg-cli/internal/logger"
)

var rasterCmd = &cobra.Command{
	Use:   "raster",
	Short: "Manage raster layers",
	Long:  `Import elevation grids into SQLite databases and list stored raster layers.`,
}

var rasterImportCmd = &cobra.Command{
	Use:   "import GRID DATABASE",
	Short: "Import a grid into a SQLite raster layer",
	Long: `Reads GRID (an ESRI ASCII grid, optionally gzipped, or another raster
layer) and stores it as tiles in DATABASE. An existing layer with the same
name is replaced.

The layer name defaults to the grid file name without its extension.
--acquired records when the surface was captured; "upstream --at" skips
layers captured later.

Examples:
  thalweg raster import survey.asc.gz lidar.db
  thalweg raster import --layer dem2019 --tile-size 512 survey.asc lidar.db
  thalweg raster import --acquired 2019-04-02 survey.asc lidar.db`,
	Args: cobra.ExactArgs(2),
	RunE: runRasterImport,
}

var rasterListCmd = &cobra.Command{
	Use:   "list DATABASE",
	Short: "List raster layers in a database",
	Args:  cobra.ExactArgs(1),
	RunE:  runRasterList,
}

func init() {
	rasterImportCmd.Flags().String("layer", "", "layer name (default: grid file name)")
	rasterImportCmd.Flags().Int("tile-size", sqlite.DefaultTileSize, "tile edge length in cells")
	rasterImportCmd.Flags().String("acquired", "", "capture date of the surface (YYYY-MM-DD or RFC 3339)")
	rasterCmd.AddCommand(rasterImportCmd)
	rasterCmd.AddCommand(rasterListCmd)
	rootCmd.AddCommand(rasterCmd)
}

func runRasterImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	gridPath, dbPath := args[0], args[1]

	layer, err := cmd.Flags().GetString("layer")
	if err != nil {
		return fmt.Errorf("getting layer flag: %w", err)
	}
	if layer == "" {
		layer = layerName(gridPath)
	}
	tileSize, err := cmd.Flags().GetInt("tile-size")
	if err != nil {
		return fmt.Errorf("getting tile-size flag: %w", err)
	}

	logger.Section("Raster Import")
	grid, err := raster.Load(ctx, gridPath)
	if err != nil {
		return fmt.Errorf("load grid: %w", err)
	}
	logger.Debug("Loaded %dx%d grid from %s", grid.Width, grid.Height, gridPath)

	acquired, err := cmd.Flags().GetString("acquired")
	if err != nil {
		return fmt.Errorf("getting acquired flag: %w", err)
	}
	if acquired != "" {
		if grid.Acquired, err = parseDate(acquired); err != nil {
			return err
		}
	}

	store, err := sqlite.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.ImportRaster(ctx, layer, grid, tileSize); err != nil {
		return fmt.Errorf("import %s: %w", layer, err)
	}

	cmd.Printf("Imported %dx%d grid as %s#%s\n", grid.Width, grid.Height, dbPath, layer)
	return nil
}

func runRasterList(cmd *cobra.Command, args []string) error {
	store, err := sqlite.Open(args[0])
	if err != nil {
		return err
	}
	defer store.Close()

	infos, err := store.Rasters(cmd.Context())
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		cmd.Println("No raster layers.")
		return nil
	}
	for _, info := range infos {
		cmd.Printf("%s\t%dx%d\ttile %d\t[%g %g, %g %g]\n", info.Name, info.Width, info.Height,
			info.TileSize, info.Bound.Min[0], info.Bound.Min[1], info.Bound.Max[0], info.Bound.Max[1])
		if info.Provenance != "" {
			cmd.Printf("  from %s\n", info.Provenance)
		}
		if !info.Acquired.IsZero() {
			cmd.Printf("  acquired %s\n", info.Acquired.Format(time.DateOnly))
		}
	}
	return nil
}

// parseDate accepts a calendar date or an RFC 3339 timestamp. Dates are
// taken as UTC midnight.
func parseDate(text string) (time.Time, error) {
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, text); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q is not a date", domain.ErrInvalidInput, text)
}

// layerName derives a layer name from a file path: the base name up to
// its first dot.
func layerName(path string) string {
	file, layer := sqlite.SplitPath(path)
	if layer != "" {
		return layer
	}
	base := filepath.Base(file)
	if i := strings.Index(base, "."); i > 0 {
		return base[:i]
	}
	return base
}
