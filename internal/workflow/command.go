package workflow

import (
	"context"

	api "github.com/meridianqs/estimator-client/api/v1alpha1"
	"github.com/meridianqs/estimator-client/internal/client"
)

type commandState int

const (
	commandPending commandState = iota
	commandCommitted
	commandRolledBack
)

// decisionCommand is one optimistic VE decision: apply mutates the local item
// immediately, commit issues the authoritative call, rollback restores the
// pre-optimistic item. The pending/committed/rolled-back transition is
// explicit so the reconciliation is testable without a server.
type decisionCommand struct {
	veID     string
	decision api.DecisionStatus
	reason   string
	actor    string

	prev  api.VEOpportunity
	state commandState
}

func newDecisionCommand(item api.VEOpportunity, decision api.DecisionStatus, reason, actor string) *decisionCommand {
	return &decisionCommand{
		veID:     item.VEID,
		decision: decision,
		reason:   reason,
		actor:    actor,
		prev:     item,
		state:    commandPending,
	}
}

// apply returns the optimistically mutated item.
func (c *decisionCommand) apply() api.VEOpportunity {
	next := c.prev
	next.Status = c.decision
	if c.decision == api.DecisionRejected {
		next.RejectedReason = c.reason
	} else {
		next.RejectedReason = ""
	}
	return next
}

// commit issues the authoritative call. The server response is the source of
// truth for the savings aggregates.
func (c *decisionCommand) commit(ctx context.Context, pipeline client.Pipeline, jobID string) (api.DecisionResult, error) {
	result, err := pipeline.DecideOpportunity(ctx, jobID, c.veID, api.DecisionRequest{
		Decision:        c.decision,
		DecidedBy:       c.actor,
		RejectionReason: c.reason,
	})
	if err != nil {
		return api.DecisionResult{}, err
	}
	c.state = commandCommitted
	return result, nil
}

// rollback returns the pre-optimistic item.
func (c *decisionCommand) rollback() api.VEOpportunity {
	c.state = commandRolledBack
	return c.prev
}
