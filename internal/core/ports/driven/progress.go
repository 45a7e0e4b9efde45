package driven

// ProgressReporter displays progress of a long running operation.
// Implementations must tolerate Advance after Finish.
type ProgressReporter interface {
	// Start begins reporting with the expected number of steps.
	Start(label string, total int)

	// Advance records n completed steps.
	Advance(n int)

	// Finish ends reporting.
	Finish()
}
