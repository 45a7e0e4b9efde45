package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage search defaults",
	Long: `View and configure the defaults used by "thalweg upstream" and
"thalweg zonal" when a flag is not given.

Settings are stored in config.toml in the config directory.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Change one setting",
	Long: `Change one setting. Keys:
  search.grow, search.distance, search.multiplier, search.separation,
  search.cell_size, output.elevation_key`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure all settings step by step.`,
	RunE:  runSettingsWizard,
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default settings",
	RunE:  runSettingsReset,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsResetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Search]")
	cmd.Printf("  Grow: %g\n", settings.Grow)
	cmd.Printf("  Distance: %g\n", settings.Distance)
	cmd.Printf("  Multiplier: %g\n", settings.Multiplier)
	cmd.Printf("  Separation: %g\n", settings.Separation)
	cmd.Printf("  Cell size: %g\n", settings.CellSize)
	cmd.Println()

	cmd.Println("[Output]")
	cmd.Printf("  Elevation key: %s\n", settings.ElevationKey)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("Set %s to %s\n", args[0], args[1])
	return nil
}

func runSettingsReset(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	defaults := settingsService.GetDefaults()
	if err := settingsService.Save(&defaults); err != nil {
		return fmt.Errorf("failed to reset settings: %w", err)
	}
	cmd.Println("Settings restored to defaults.")
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	current, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	opts := *current

	cmd.Println("thalweg Settings Wizard")
	cmd.Println("=======================")
	cmd.Println("Press Enter to keep the value in brackets.")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())
	steps := []struct {
		prompt string
		value  *float64
	}{
		{"Polygon buffer (grow)", &opts.Grow},
		{"Minimum search radius (distance)", &opts.Distance},
		{"Boundary distance multiplier", &opts.Multiplier},
		{"Sample separation", &opts.Separation},
		{"Raster cell size", &opts.CellSize},
	}
	for _, step := range steps {
		cmd.Printf("%s [%g]: ", step.prompt, *step.value)
		*step.value = parseFloatOr(readLine(reader), *step.value)
	}
	cmd.Printf("Elevation field name [%s]: ", opts.ElevationKey)
	if key := readLine(reader); key != "" {
		opts.ElevationKey = key
	}
	cmd.Println()

	if err := settingsService.Save(&opts); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	cmd.Println("Configuration Complete!")
	return nil
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// parseFloatOr returns input as a number, or defaultVal when input is
// empty or not a number.
func parseFloatOr(input string, defaultVal float64) float64 {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.ParseFloat(input, 64)
	if err != nil {
		return defaultVal
	}
	return val
}

// formatOptions renders opts on one line for logs and run listings.
func formatOptions(opts domain.SearchOptions) string {
	return fmt.Sprintf("grow=%g distance=%g multiplier=%g separation=%g cell_size=%g key=%s",
		opts.Grow, opts.Distance, opts.Multiplier, opts.Separation, opts.CellSize, opts.ElevationKey)
}
