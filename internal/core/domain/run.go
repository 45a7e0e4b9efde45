package domain

import "time"

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	// RunRunning means the run has started and not yet completed.
	RunRunning RunStatus = "running"

	// RunSucceeded means the run completed without error.
	RunSucceeded RunStatus = "succeeded"

	// RunFailed means the run stopped on an error.
	RunFailed RunStatus = "failed"
)

// Run represents one execution of a command against a set of inputs.
type Run struct {
	// ID is the unique identifier for the run.
	ID string

	// Command names the operation, e.g. "upstream" or "zonal".
	Command string

	// Inputs lists the paths the run read from.
	Inputs []string

	// Output is the path the run wrote to.
	Output string

	// Partial is the partition processed, empty for all features.
	Partial string

	// StartedAt is when the run started.
	StartedAt time.Time

	// EndedAt is when the run completed.
	EndedAt time.Time

	// Status is the current lifecycle state.
	Status RunStatus

	// Error contains the error message if Status is RunFailed.
	Error string

	// Records is the number of output records written.
	Records int
}

// Finish sets the outcome of r from err.
func (r *Run) Finish(records int, err error, at time.Time) {
	r.EndedAt = at
	r.Records = records
	if err != nil {
		r.Status = RunFailed
		r.Error = err.Error()
		return
	}
	r.Status = RunSucceeded
	r.Error = ""
}

// Duration returns how long the run took, or zero if it has not ended.
func (r Run) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}
