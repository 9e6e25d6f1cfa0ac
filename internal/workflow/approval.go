package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	api "github.com/meridianqs/estimator-client/api/v1alpha1"
	"github.com/meridianqs/estimator-client/internal/client"
	"github.com/meridianqs/estimator-client/internal/events"
	"github.com/meridianqs/estimator-client/pkg/metrics"
)

// ApprovalState is the commercial sign-off state of a completed estimate.
type ApprovalState string

const (
	ApprovalEstimating     ApprovalState = "ESTIMATING"
	ApprovalReviewRequired ApprovalState = "REVIEW_REQUIRED"
	ApprovalApproved       ApprovalState = "APPROVED"
	ApprovalDispatched     ApprovalState = "DISPATCHED"
)

// rank orders the states; the machine only ever moves forward.
func (s ApprovalState) rank() int {
	switch s {
	case ApprovalReviewRequired:
		return 1
	case ApprovalApproved:
		return 2
	case ApprovalDispatched:
		return 3
	default:
		return 0
	}
}

// ApprovalStateFromJobStatus derives the sign-off state from a job status.
// Lifecycle statuses (including Complete and Failed) map to ESTIMATING: the
// pipeline has not asked for commercial review.
func ApprovalStateFromJobStatus(status api.JobStatus) ApprovalState {
	switch status {
	case api.JobStatusReviewRequired:
		return ApprovalReviewRequired
	case api.JobStatusApproved:
		return ApprovalApproved
	case api.JobStatusDispatched:
		return ApprovalDispatched
	default:
		return ApprovalEstimating
	}
}

// ApprovalStateMachine drives ESTIMATING → REVIEW_REQUIRED → APPROVED →
// DISPATCHED. The only client-initiated transition is REVIEW_REQUIRED →
// APPROVED; everything else is observed from authoritative fetches.
type ApprovalStateMachine struct {
	jobID    string
	client   client.Pipeline
	producer *events.EventProducer

	mu        sync.Mutex
	state     ApprovalState
	approving bool
}

func NewApprovalStateMachine(pipeline client.Pipeline, jobID string, initial api.JobStatus) *ApprovalStateMachine {
	return &ApprovalStateMachine{
		jobID:  jobID,
		client: pipeline,
		state:  ApprovalStateFromJobStatus(initial),
	}
}

// WithEventProducer attaches an audit producer; confirmed approvals emit an
// event through it.
func (m *ApprovalStateMachine) WithEventProducer(p *events.EventProducer) *ApprovalStateMachine {
	m.producer = p
	return m
}

func (m *ApprovalStateMachine) State() ApprovalState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CanApprove reports whether the approval command is currently legal. Callers
// disable the control on false; this is the stale-button guard.
func (m *ApprovalStateMachine) CanApprove() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == ApprovalReviewRequired && !m.approving
}

// Observe adopts a state re-derived from an authoritative fetch. The machine
// never moves backwards: an out-of-order fetch result cannot revert a state
// already observed.
func (m *ApprovalStateMachine) Observe(status api.JobStatus) ApprovalState {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := ApprovalStateFromJobStatus(status)
	if next.rank() > m.state.rank() {
		m.state = next
	}
	return m.state
}

// Approve issues the idempotent approval command. The returned bool is true
// only when this call performed the approval and the authoritative re-fetch
// confirmed it; an already-approved job is a silent no-op, so racing a
// concurrent refresh never yields a second confirmation or a duplicate
// request. Failure leaves the state untouched and is never retried here.
func (m *ApprovalStateMachine) Approve(ctx context.Context) (bool, error) {
	m.mu.Lock()
	switch {
	case m.state == ApprovalApproved || m.state == ApprovalDispatched:
		m.mu.Unlock()
		return false, nil
	case m.state != ApprovalReviewRequired:
		state := m.state
		m.mu.Unlock()
		return false, NewErrApprovalNotAllowed(state)
	case m.approving:
		m.mu.Unlock()
		return false, NewErrApprovalInFlight(m.jobID)
	}
	m.approving = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.approving = false
		m.mu.Unlock()
	}()

	if err := m.client.Approve(ctx, m.jobID); err != nil {
		metrics.IncreaseCommandFailuresTotalMetric("approve")
		return false, err
	}

	// The call succeeded but success is only shown once the authoritative
	// state confirms it; the pipeline may have accepted the command and still
	// be settling.
	detail, err := m.client.GetEstimate(ctx, m.jobID)
	if err != nil {
		return false, fmt.Errorf("approval accepted but state could not be confirmed: %w", err)
	}

	state := m.Observe(detail.Status)
	if state.rank() < ApprovalApproved.rank() {
		return false, fmt.Errorf("approval accepted but pipeline still reports %s", detail.Status)
	}

	m.emitApprovalEvent(ctx, state)
	return true, nil
}

func (m *ApprovalStateMachine) emitApprovalEvent(ctx context.Context, state ApprovalState) {
	if m.producer == nil {
		return
	}
	payload, err := json.Marshal(events.ApprovalEvent{JobID: m.jobID, State: string(state)})
	if err != nil {
		return
	}
	if err := m.producer.Write(ctx, events.ApprovalKind, bytes.NewReader(payload)); err != nil {
		zap.S().Named("approval").Warnw("failed to emit approval event", "job_id", m.jobID, "error", err)
	}
}
