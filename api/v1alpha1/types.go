package v1alpha1

import "time"

// JobStatus is the pipeline-reported status of an estimate job.
// The pipeline mixes naming conventions on the wire: lifecycle statuses are
// capitalized words, commercial statuses are upper snake case. Both are kept
// verbatim here.
type JobStatus string

const (
	JobStatusQueued         JobStatus = "Queued"
	JobStatusProcessing     JobStatus = "Processing"
	JobStatusComplete       JobStatus = "Complete"
	JobStatusFailed         JobStatus = "Failed"
	JobStatusReviewRequired JobStatus = "REVIEW_REQUIRED"
	JobStatusApproved       JobStatus = "APPROVED"
	JobStatusDispatched     JobStatus = "DISPATCHED"
)

// IsTerminal reports whether no further progress events are expected for a job
// in this status.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusComplete, JobStatusFailed, JobStatusReviewRequired, JobStatusApproved, JobStatusDispatched:
		return true
	}
	return false
}

// ProgressEvent is a point-in-time snapshot of an estimate job, delivered as a
// JSON text frame on the push channel or synthesized from a pull response.
// Duplicate and out-of-order delivery is possible across a channel failover.
type ProgressEvent struct {
	JobID           string          `json:"job_id,omitempty"`
	CurrentAgent    string          `json:"current_agent,omitempty"`
	StatusMessage   string          `json:"status_message,omitempty"`
	ConfidenceScore float64         `json:"confidence_score,omitempty"`
	ProgressPct     int             `json:"progress_pct"`
	PartialResults  *PartialResults `json:"partial_results,omitempty"`
	HITLRequired    bool            `json:"hitl_required,omitempty"`
	HITLTriageID    string          `json:"hitl_triage_id,omitempty"`
	Error           string          `json:"error,omitempty"`
}

// PartialResults carries the status embedded in a progress event. Only the
// status field is interpreted by the client.
type PartialResults struct {
	Status string `json:"status,omitempty"`
}

// EmbeddedStatus returns the job status embedded in the event, or the empty
// string when the event carries none.
func (e ProgressEvent) EmbeddedStatus() string {
	if e.PartialResults == nil {
		return ""
	}
	return e.PartialResults.Status
}

// PullStatus is the response of the pull status endpoint.
type PullStatus struct {
	Status      string `json:"status"`
	ProgressPct int    `json:"progress_pct"`
	CurrentStep string `json:"current_step,omitempty"`
}

// DecisionStatus is the accept/reject state of a value-engineering opportunity.
type DecisionStatus string

const (
	DecisionPending  DecisionStatus = "PENDING"
	DecisionAccepted DecisionStatus = "ACCEPTED"
	DecisionRejected DecisionStatus = "REJECTED"
)

// VEOpportunity is a proposed cost-saving substitution awaiting a decision.
// Created server-side; only its decision fields mutate.
type VEOpportunity struct {
	VEID           string         `json:"ve_id"`
	Description    string         `json:"description,omitempty"`
	SavingAED      float64        `json:"saving_aed"`
	SavingPct      float64        `json:"saving_pct,omitempty"`
	RiskLevel      string         `json:"risk_level,omitempty"`
	Status         DecisionStatus `json:"status"`
	RejectedReason string         `json:"rejected_reason,omitempty"`
}

// DecisionRequest is the body of a VE decision command.
type DecisionRequest struct {
	Decision        DecisionStatus `json:"decision"`
	DecidedBy       string         `json:"decided_by"`
	RejectionReason string         `json:"rejection_reason,omitempty"`
}

// DecisionResult carries the server-confirmed savings aggregates after a
// decision. The server is the source of truth for money; the client only
// reflects these values.
type DecisionResult struct {
	AcceptedSavingsAED       float64 `json:"accepted_savings_aed"`
	TotalPotentialSavingsAED float64 `json:"total_potential_savings_aed"`
}

// RFIStatus is the lifecycle state of a clarification request.
type RFIStatus string

const (
	RFIOpen      RFIStatus = "OPEN"
	RFIResponded RFIStatus = "RESPONDED"
)

// RFIEntry is one clarification request in the register. DaysOpen and Overdue
// are computed by the server's overdue policy and carried verbatim.
type RFIEntry struct {
	RFIID        string     `json:"rfi_id"`
	Reference    string     `json:"reference,omitempty"`
	RFIText      string     `json:"rfi_text"`
	Status       RFIStatus  `json:"status"`
	SubmittedAt  time.Time  `json:"submitted_at"`
	RespondedAt  *time.Time `json:"responded_at,omitempty"`
	ResponseText string     `json:"response_text,omitempty"`
	DaysOpen     int        `json:"days_open,omitempty"`
	Overdue      bool       `json:"overdue,omitempty"`
}

// RFICounts are the server-derived aggregate counts of the clarification log.
type RFICounts struct {
	Total   int `json:"total"`
	Open    int `json:"open"`
	Overdue int `json:"overdue"`
}

// ClarificationLog is the full RFI register plus its aggregate counts.
type ClarificationLog struct {
	Items  []RFIEntry `json:"items"`
	Counts RFICounts  `json:"counts"`
}

// AddRFIRequest is the body of the add-clarification command.
type AddRFIRequest struct {
	Reference string `json:"reference"`
	RFIText   string `json:"rfi_text"`
}

// RespondRFIRequest is the body of the respond-clarification command.
type RespondRFIRequest struct {
	ResponseText string `json:"response_text"`
}

// BOQLine is one bill-of-quantities line item of a completed estimate.
type BOQLine struct {
	Ref         string  `json:"ref,omitempty"`
	Description string  `json:"description"`
	Unit        string  `json:"unit,omitempty"`
	Qty         float64 `json:"qty"`
	RateAED     float64 `json:"rate_aed"`
	AmountAED   float64 `json:"amount_aed"`
}

// StructuralResult is one structural compliance check result.
type StructuralResult struct {
	Member      string  `json:"member"`
	Check       string  `json:"check"`
	Utilisation float64 `json:"utilisation"`
	Pass        bool    `json:"pass"`
}

// FinancialSummary is the commercial roll-up of a completed estimate.
type FinancialSummary struct {
	SubtotalAED              float64 `json:"subtotal_aed"`
	PrelimsAED               float64 `json:"prelims_aed,omitempty"`
	ContingencyPct           float64 `json:"contingency_pct,omitempty"`
	GrandTotalAED            float64 `json:"grand_total_aed"`
	TotalPotentialSavingsAED float64 `json:"total_potential_savings_aed"`
	AcceptedSavingsAED       float64 `json:"accepted_savings_aed"`
}

// EstimateDetail is the full estimate payload, fetched once on load and again
// exactly once when a terminal status is first observed.
type EstimateDetail struct {
	JobID             string             `json:"job_id"`
	Status            JobStatus          `json:"status"`
	BOQ               []BOQLine          `json:"boq_output,omitempty"`
	RFIRegister       []RFIEntry         `json:"rfi_register,omitempty"`
	VEOpportunities   []VEOpportunity    `json:"ve_opportunities,omitempty"`
	StructuralResults []StructuralResult `json:"structural_results,omitempty"`
	FinancialSummary  *FinancialSummary  `json:"financial_summary,omitempty"`
}
