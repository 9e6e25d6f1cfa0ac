package events

// JobTerminalEvent is emitted once, when a watched job first reaches a
// terminal status.
type JobTerminalEvent struct {
	JobID       string `json:"job_id"`
	Status      string `json:"status"`
	ProgressPct int    `json:"progress_pct"`
}

// ApprovalEvent is emitted when an approval is confirmed by the authoritative
// re-fetch.
type ApprovalEvent struct {
	JobID string `json:"job_id"`
	State string `json:"state"`
}

// DecisionEvent is emitted when a VE decision is reconciled against the
// server.
type DecisionEvent struct {
	JobID              string  `json:"job_id"`
	VEID               string  `json:"ve_id"`
	Decision           string  `json:"decision"`
	AcceptedSavingsAED float64 `json:"accepted_savings_aed"`
}
