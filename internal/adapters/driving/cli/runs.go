package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
	"github.com/custodia-labs/thalweg-cli/internal/core/services"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent runs",
	Long:  `Lists the most recent upstream and zonal runs, newest first.`,
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntP("limit", "n", 10, "maximum number of runs")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return fmt.Errorf("getting limit flag: %w", err)
	}

	ledger, release, err := openLedger()
	if err != nil {
		return fmt.Errorf("open run history: %w", err)
	}
	defer release()

	runs, err := services.NewRunHistoryService(ledger).Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		cmd.Println("No runs recorded.")
		return nil
	}
	for i := range runs {
		printRun(cmd, &runs[i])
	}
	return nil
}

func printRun(cmd *cobra.Command, r *domain.Run) {
	cmd.Printf("%s  %-8s %-9s %s\n", r.StartedAt.Local().Format(time.DateTime), r.Command, r.Status, r.ID)
	cmd.Printf("  %s -> %s", strings.Join(r.Inputs, ", "), r.Output)
	if r.Partial != "" {
		cmd.Printf(" (partial %s)", r.Partial)
	}
	cmd.Println()
	if r.Status != domain.RunRunning {
		cmd.Printf("  %d records in %s\n", r.Records, r.Duration().Round(time.Millisecond))
	}
	if r.Error != "" {
		cmd.Printf("  error: %s\n", r.Error)
	}
}
