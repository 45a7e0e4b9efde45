// Package progress renders run progress on a terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"golang.org/x/term"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/thalweg-cli/internal/core/ports/driven"
)

// Ensure implementations satisfy the interface.
var (
	_ driven.ProgressReporter = (*Terminal)(nil)
	_ driven.ProgressReporter = Nop{}
)

const (
	barWidth = 40

	// redrawInterval bounds how often the bar is repainted.
	redrawInterval = 100 * time.Millisecond
)

// New returns a terminal reporter when f is a terminal, otherwise Nop.
func New(f *os.File) driven.ProgressReporter {
	if f == nil || !term.IsTerminal(int(f.Fd())) {
		return Nop{}
	}
	return NewTerminal(f)
}

// Terminal draws a single-line progress bar, repainting in place.
type Terminal struct {
	mu      sync.Mutex
	out     io.Writer
	bar     progress.Model
	limiter *rate.Limiter
	label   string
	total   int
	done    int
	active  bool
}

// NewTerminal creates a reporter writing to out.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{
		out:     out,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth)),
		limiter: rate.NewLimiter(rate.Every(redrawInterval), 1),
	}
}

// Start begins a new bar. A bar still active is finished first.
func (t *Terminal) Start(label string, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active {
		t.finish()
	}
	t.label = label
	t.total = max(total, 0)
	t.done = 0
	t.active = true
	t.draw()
}

// Advance records n completed steps. It is ignored when no bar is active.
func (t *Terminal) Advance(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return
	}
	t.done += n
	if t.total > 0 && t.done > t.total {
		t.done = t.total
	}
	if t.done == t.total || t.limiter.Allow() {
		t.draw()
	}
}

// Finish draws the final state and ends the line.
func (t *Terminal) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active {
		t.finish()
	}
}

func (t *Terminal) finish() {
	t.draw()
	fmt.Fprintln(t.out)
	t.active = false
}

func (t *Terminal) draw() {
	percent := 1.0
	if t.total > 0 {
		percent = float64(t.done) / float64(t.total)
	}
	fmt.Fprintf(t.out, "\r%s %s %d/%d", t.label, t.bar.ViewAs(percent), t.done, t.total)
}

// Nop discards progress.
type Nop struct{}

// Start does nothing.
func (Nop) Start(string, int) {}

// Advance does nothing.
func (Nop) Advance(int) {}

// Finish does nothing.
func (Nop) Finish() {}
