package watch

import (
	api "github.com/meridianqs/estimator-client/api/v1alpha1"
)

// TriageFlag is the human-in-the-loop gate raised by the pipeline when machine
// confidence drops below its threshold. It blocks the workflow until a human
// acts; it is a modeled screen state, not an error.
type TriageFlag struct {
	TriageID string
	Blocking bool
}

// TriageGate derives the current triage flag from the latest progress event.
// It is owned by a single Watcher goroutine and needs no locking of its own.
type TriageGate struct {
	flag *TriageFlag
}

// Observe updates the gate from a progress event. The flag follows the latest
// event only: a fresh event without the flag clears it, and a terminal job
// clears it unconditionally.
func (g *TriageGate) Observe(event api.ProgressEvent, job Job) {
	if job.Terminal() {
		g.flag = nil
		return
	}
	if event.HITLRequired {
		g.flag = &TriageFlag{TriageID: event.HITLTriageID, Blocking: true}
		return
	}
	g.flag = nil
}

// Current returns the active flag, or nil when the gate is open.
func (g *TriageGate) Current() *TriageFlag {
	if g.flag == nil {
		return nil
	}
	f := *g.flag
	return &f
}
