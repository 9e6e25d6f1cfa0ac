package workflow

import (
	"fmt"
)

type ErrApprovalNotAllowed struct {
	error
}

func NewErrApprovalNotAllowed(state ApprovalState) *ErrApprovalNotAllowed {
	return &ErrApprovalNotAllowed{fmt.Errorf("approval is only allowed from %s, current state is %s", ApprovalReviewRequired, state)}
}

type ErrApprovalInFlight struct {
	error
}

func NewErrApprovalInFlight(jobID string) *ErrApprovalInFlight {
	return &ErrApprovalInFlight{fmt.Errorf("an approval call for job %s is already in flight", jobID)}
}

type ErrDecisionInFlight struct {
	error
}

func NewErrDecisionInFlight(veID string) *ErrDecisionInFlight {
	return &ErrDecisionInFlight{fmt.Errorf("a decision for opportunity %s is already in flight", veID)}
}

type ErrUnknownOpportunity struct {
	error
}

func NewErrUnknownOpportunity(veID string) *ErrUnknownOpportunity {
	return &ErrUnknownOpportunity{fmt.Errorf("opportunity %s not found", veID)}
}

type ErrInvalidDecision struct {
	error
}

func NewErrInvalidDecision(message string) *ErrInvalidDecision {
	return &ErrInvalidDecision{fmt.Errorf("invalid decision: %s", message)}
}
