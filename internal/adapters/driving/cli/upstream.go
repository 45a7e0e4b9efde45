package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/thalweg-cli/internal/adapters/driven/progress"
	"github.com/custodia-labs/thalweg-cli/internal/adapters/driven/vector"
	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
	"github.com/custodia-labs/thalweg-cli/internal/core/ports/driving"
	"github.com/custodia-labs/thalweg-cli/internal/core/services"
	"github.com/custodia-labs/thalweg-cli/internal/logger"
)

var upstreamCmd = &cobra.Command{
	Use:   "upstream POLYGONS LINES STORE... POINTS",
	Short: "Sample upstream elevations along centerlines",
	Long: `Walks every centerline inside each confinement polygon and writes one
point per sample site, holding the lowest elevation found upstream of it.

Several raster stores may be given; each cell takes the lowest valid value
among them. Unset flags fall back to "thalweg settings".

Examples:
  thalweg upstream banks.geojson centerlines.shp dem.asc points.geojson
  thalweg upstream -d 20 -p 2/8 work.db#banks work.db#lines lidar.db#dem survey.asc work.db#points`,
	Args: cobra.MinimumNArgs(4),
	RunE: runUpstream,
}

func init() {
	defaults := domain.DefaultSearchOptions()
	f := upstreamCmd.Flags()
	f.Float64P("grow", "g", defaults.Grow, "buffer applied to each confinement polygon")
	f.Float64P("distance", "d", defaults.Distance, "minimum search radius")
	f.Float64P("multiplier", "m", defaults.Multiplier, "scale from boundary distance to search radius")
	f.Float64P("separation", "s", defaults.Separation, "maximum spacing between sample points")
	f.Float64("cell-size", defaults.CellSize, "raster sampling resolution")
	f.String("key", defaults.ElevationKey, "output field receiving the elevation")
	f.StringP("partial", "p", "", "process only partition k of n (k/n)")
	f.String("at", "", "ignore raster layers acquired after this date")
	rootCmd.AddCommand(upstreamCmd)
}

func runUpstream(cmd *cobra.Command, args []string) error {
	opts, err := upstreamOptions(cmd)
	if err != nil {
		return err
	}
	logger.Debug("Options: %s", formatOptions(opts))
	ctx := cmd.Context()
	polygonsPath, linesPath := args[0], args[1]
	storePaths, pointsPath := args[2:len(args)-1], args[len(args)-1]

	polygons, err := vector.Open(ctx, polygonsPath)
	if err != nil {
		return fmt.Errorf("open polygons: %w", err)
	}
	defer polygons.Close()

	lines, err := vector.Open(ctx, linesPath)
	if err != nil {
		return fmt.Errorf("open lines: %w", err)
	}
	defer lines.Close()

	store, err := openStores(ctx, storePaths)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer store.Close()

	sink, err := vector.Create(ctx, pointsPath, lines.Fields(), opts.ElevationKey)
	if err != nil {
		return fmt.Errorf("create points: %w", err)
	}

	ledger, release := ledgerOrNil()
	defer release()

	svc := services.NewUpstreamService(progress.New(os.Stderr), ledger)
	summary, err := svc.Run(ctx, driving.UpstreamRequest{
		Polygons: polygons,
		Lines:    lines,
		Store:    store,
		Sink:     sink,
		Options:  opts,
		Inputs:   append([]string{polygonsPath, linesPath}, storePaths...),
		Output:   pointsPath,
	})
	if cerr := sink.Close(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("close points: %w", cerr))
	}
	if err != nil {
		return err
	}

	cmd.Printf("Wrote %d points from %d lines in %d polygons to %s\n",
		summary.Records, summary.Lines, summary.Polygons, pointsPath)
	if summary.EmptyLines > 0 {
		cmd.Printf("  %d lines produced no points\n", summary.EmptyLines)
	}
	if summary.RunID != "" {
		cmd.Printf("  Run: %s\n", summary.RunID)
	}
	return nil
}

// upstreamOptions starts from the saved settings and applies the flags
// that were set explicitly.
func upstreamOptions(cmd *cobra.Command) (domain.SearchOptions, error) {
	if settingsService == nil {
		return domain.SearchOptions{}, errors.New("settings service not configured")
	}
	saved, err := settingsService.Get()
	if err != nil {
		return domain.SearchOptions{}, fmt.Errorf("failed to get settings: %w", err)
	}
	opts := *saved

	f := cmd.Flags()
	floats := map[string]*float64{
		"grow":       &opts.Grow,
		"distance":   &opts.Distance,
		"multiplier": &opts.Multiplier,
		"separation": &opts.Separation,
		"cell-size":  &opts.CellSize,
	}
	for name, dst := range floats {
		if !f.Changed(name) {
			continue
		}
		if *dst, err = f.GetFloat64(name); err != nil {
			return domain.SearchOptions{}, fmt.Errorf("getting %s flag: %w", name, err)
		}
	}
	if f.Changed("key") {
		if opts.ElevationKey, err = f.GetString("key"); err != nil {
			return domain.SearchOptions{}, fmt.Errorf("getting key flag: %w", err)
		}
	}
	if opts.Partial, err = f.GetString("partial"); err != nil {
		return domain.SearchOptions{}, fmt.Errorf("getting partial flag: %w", err)
	}
	at, err := f.GetString("at")
	if err != nil {
		return domain.SearchOptions{}, fmt.Errorf("getting at flag: %w", err)
	}
	if at != "" {
		if opts.At, err = parseDate(at); err != nil {
			return domain.SearchOptions{}, err
		}
	}
	return opts, opts.Validate()
}
