// Package logger provides leveled logging for the thalweg CLI.
// Debug, info and section output is printed only in verbose mode, enabled
// via the --verbose flag. Warnings and errors are always printed.
// When the output is a terminal, level tags are coloured.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	mu      sync.RWMutex
	verbose bool
	styled  = isTerminal(os.Stderr)
	output  io.Writer = os.Stderr
)

var (
	debugTag   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	infoTag    = lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4"))
	warnTag    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F9E2AF"))
	errorTag   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F38BA8"))
	sectionTag = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Styling follows whether w is a terminal.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	styled = isTerminal(w)
}

// SetStyled forces coloured level tags on or off.
func SetStyled(v bool) {
	mu.Lock()
	defer mu.Unlock()
	styled = v
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func tag(style lipgloss.Style, text string) string {
	if !styled {
		return text
	}
	return style.Render(text)
}

func emit(always bool, style lipgloss.Style, level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if always || verbose {
		fmt.Fprintf(output, "%s %s\n", tag(style, level), fmt.Sprintf(format, args...))
	}
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	emit(false, debugTag, "[DEBUG]", format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n%s\n", tag(sectionTag, "=== "+name+" ==="))
	}
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	emit(false, infoTag, "[INFO]", format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	emit(true, warnTag, "[WARN]", format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	emit(true, errorTag, "[ERROR]", format, args...)
}
