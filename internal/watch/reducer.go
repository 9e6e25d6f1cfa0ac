package watch

import (
	api "github.com/meridianqs/estimator-client/api/v1alpha1"
)

// Job is the reduced in-memory projection of one estimate job. It is a value:
// every reduction returns a fresh copy, readers never observe a half-updated
// projection.
type Job struct {
	ID          string
	Status      api.JobStatus
	ProgressPct int
	CurrentStep string
	Confidence  float64
	Error       string
}

// Terminal reports whether the job reached a status from which no further
// progress events are expected.
func (j Job) Terminal() bool {
	return j.Status.IsTerminal()
}

// NewJob returns the initial projection for a job id.
func NewJob(id string) Job {
	return Job{
		ID:     id,
		Status: api.JobStatusQueued,
	}
}

// Reduce merges a progress event into the current projection and returns the
// next one. The second return value is true exactly when this reduction moved
// the job into a terminal status for the first time; that is the one moment
// the full detail fetch is due, duplicates of the terminal event report false.
//
// Arrival order is not generation order across a channel failover, so the
// merge is monotonic: progress never regresses and a terminal status is never
// overwritten.
func Reduce(current Job, event api.ProgressEvent) (Job, bool) {
	if current.Terminal() {
		// terminal lock: the projection accepts no further transport writes
		return current, false
	}

	next := current

	if event.ProgressPct > next.ProgressPct {
		next.ProgressPct = event.ProgressPct
	}
	if event.CurrentAgent != "" {
		next.CurrentStep = event.CurrentAgent
	} else if event.StatusMessage != "" {
		next.CurrentStep = event.StatusMessage
	}
	if event.ConfidenceScore > 0 {
		next.Confidence = event.ConfidenceScore
	}

	if s := event.EmbeddedStatus(); s != "" {
		next.Status = api.StringToJobStatus(s)
	}
	if event.Error != "" {
		next.Status = api.JobStatusFailed
		next.Error = event.Error
	}

	if next.Terminal() {
		next.ProgressPct = 100
		return next, true
	}
	return next, false
}
