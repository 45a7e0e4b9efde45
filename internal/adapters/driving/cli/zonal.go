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
)

var zonalCmd = &cobra.Command{
	Use:   "zonal SOURCE STORE TARGET STATISTIC...",
	Short: "Compute raster statistics for each feature",
	Long: `Samples the raster store under every feature of SOURCE and writes the
features to TARGET with one extra field per statistic.

A statistic is a name, optionally prefixed by its output column:
  value, min, max, mean, median, sum, std, count, size, p<n>

Examples:
  thalweg zonal ponds.geojson dem.asc ponds_stats.geojson mean low:p10 high:p90
  thalweg zonal -p 1/4 work.db#ponds lidar.db work.db#stats min max`,
	Args: cobra.MinimumNArgs(4),
	RunE: runZonal,
}

func init() {
	zonalCmd.Flags().StringP("partial", "p", "", "process only partition k of n (k/n)")
	zonalCmd.Flags().Float64("cell-size", 0, "raster sampling resolution (default from settings)")
	rootCmd.AddCommand(zonalCmd)
}

func runZonal(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	ctx := cmd.Context()
	sourcePath, storePath, targetPath := args[0], args[1], args[2]

	stats, err := domain.ParseStatistics(args[3:])
	if err != nil {
		return err
	}
	partial, err := cmd.Flags().GetString("partial")
	if err != nil {
		return fmt.Errorf("getting partial flag: %w", err)
	}
	cellSize, err := zonalCellSize(cmd)
	if err != nil {
		return err
	}

	source, err := vector.Open(ctx, sourcePath)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer source.Close()

	store, err := openStores(ctx, []string{storePath})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	columns := make([]string, len(stats))
	for i, st := range stats {
		columns[i] = st.Column
	}
	sink, err := vector.Create(ctx, targetPath, source.Fields(), columns...)
	if err != nil {
		return fmt.Errorf("create target: %w", err)
	}

	ledger, release := ledgerOrNil()
	defer release()

	svc := services.NewZonalService(progress.New(os.Stderr), ledger)
	summary, err := svc.Run(ctx, driving.ZonalRequest{
		Source:     source,
		Store:      store,
		Sink:       sink,
		Statistics: stats,
		Partial:    partial,
		CellSize:   cellSize,
		Inputs:     []string{sourcePath, storePath},
		Output:     targetPath,
	})
	if cerr := sink.Close(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("close target: %w", cerr))
	}
	if err != nil {
		return err
	}

	cmd.Printf("Wrote %d of %d features to %s\n", summary.Records, summary.Features, targetPath)
	if summary.RunID != "" {
		cmd.Printf("  Run: %s\n", summary.RunID)
	}
	return nil
}

func zonalCellSize(cmd *cobra.Command) (float64, error) {
	if cmd.Flags().Changed("cell-size") {
		v, err := cmd.Flags().GetFloat64("cell-size")
		if err != nil {
			return 0, fmt.Errorf("getting cell-size flag: %w", err)
		}
		return v, nil
	}
	opts, err := settingsService.Get()
	if err != nil {
		return 0, fmt.Errorf("failed to get settings: %w", err)
	}
	return opts.CellSize, nil
}
