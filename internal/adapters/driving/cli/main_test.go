package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/thalweg-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/thalweg-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/thalweg-cli/internal/core/ports/driven"
	"github.com/custodia-labs/thalweg-cli/internal/core/services"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "thalweg-cli")
	if err != nil {
		panic(err)
	}
	settingsService = services.NewSettingsService(memory.NewConfigStore())
	openLedger = func() (driven.RunLedger, func(), error) {
		store, err := sqlite.Open(filepath.Join(dir, "runs.db"))
		if err != nil {
			return nil, func() {}, err
		}
		return store.RunLedger(), func() { store.Close() }, nil
	}

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

// useSettings gives the test a fresh in-memory settings service.
func useSettings(t *testing.T) {
	t.Helper()
	old := settingsService
	settingsService = services.NewSettingsService(memory.NewConfigStore())
	t.Cleanup(func() { settingsService = old })
}

// execute runs the root command with args and returns its output.
// Flags of every command are reset first so values do not leak between tests.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(bytes.NewBufferString(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
