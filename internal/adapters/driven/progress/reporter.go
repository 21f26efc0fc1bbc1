// Package progress renders pipeline progress on the terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/custodia-labs/topicmap/internal/core/ports/driven"
)

// Ensure reporters implement the interface.
var (
	_ driven.ProgressReporter = (*BarReporter)(nil)
	_ driven.ProgressReporter = (*LineReporter)(nil)
)

// NewReporter returns a BarReporter for interactive use, or a LineReporter
// when running under CI where carriage returns garble logs.
func NewReporter(w io.Writer) driven.ProgressReporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &LineReporter{w: w}
	}
	return &BarReporter{w: w}
}

// BarReporter draws one progress bar per stage.
type BarReporter struct {
	w   io.Writer
	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

// Start begins a stage.
func (r *BarReporter) Start(stage string, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bar != nil {
		_ = r.bar.Finish()
	}
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.w),
		progressbar.OptionSetDescription(stage),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

// Advance marks n steps done. Workers call it concurrently.
func (r *BarReporter) Advance(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bar != nil {
		_ = r.bar.Add(n)
	}
}

// Finish ends the stage.
func (r *BarReporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bar != nil {
		_ = r.bar.Finish()
		r.bar = nil
	}
}

// current returns the progress of the active stage.
func (r *BarReporter) current() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bar == nil {
		return 0
	}
	return r.bar.State().CurrentNum
}

// LineReporter prints one line per stage boundary.
type LineReporter struct {
	w     io.Writer
	mu    sync.Mutex
	stage string
	total int
	done  int
}

// Start begins a stage.
func (r *LineReporter) Start(stage string, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stage, r.total, r.done = stage, total, 0
	fmt.Fprintf(r.w, "%s: starting (%d)\n", stage, total)
}

// Advance marks n steps done.
func (r *LineReporter) Advance(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done += n
}

// Finish ends the stage.
func (r *LineReporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "%s: done [%d/%d]\n", r.stage, r.done, r.total)
}
