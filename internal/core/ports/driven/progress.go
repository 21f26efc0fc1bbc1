package driven

// ProgressReporter receives progress for long pipeline stages.
type ProgressReporter interface {
	// Start begins a stage with a known number of steps.
	Start(stage string, total int)

	// Advance marks n more steps done.
	Advance(n int)

	// Finish ends the current stage.
	Finish()
}

// NopProgress discards all progress.
type NopProgress struct{}

// Start implements ProgressReporter.
func (NopProgress) Start(string, int) {}

// Advance implements ProgressReporter.
func (NopProgress) Advance(int) {}

// Finish implements ProgressReporter.
func (NopProgress) Finish() {}
