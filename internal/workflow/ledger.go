package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	api "github.com/meridianqs/estimator-client/api/v1alpha1"
	"github.com/meridianqs/estimator-client/internal/client"
	"github.com/meridianqs/estimator-client/internal/events"
	"github.com/meridianqs/estimator-client/internal/validator"
	"github.com/meridianqs/estimator-client/pkg/metrics"
)

// Aggregates are the ledger's money totals. AcceptedSavingsAED is the
// server-confirmed value after every reconciled decision; it may diverge only
// transiently while a decision is in flight.
type Aggregates struct {
	TotalPotentialSavingsAED float64
	AcceptedSavingsAED       float64
}

type decisionInput struct {
	Decision  api.DecisionStatus `validate:"required,decision"`
	DecidedBy string             `validate:"required"`
}

// DecisionLedger tracks the accept/reject decision of each VE opportunity for
// one job. Mutations are optimistic: the item flips immediately, the
// authoritative call reconciles or rolls it back. Decisions on distinct items
// run concurrently; a second decision on an item whose call is still pending
// is refused.
type DecisionLedger struct {
	jobID    string
	actor    string
	client   client.Pipeline
	producer *events.EventProducer
	val      *validator.Validator

	mu         sync.Mutex
	items      map[string]api.VEOpportunity
	order      []string
	aggregates Aggregates
	inFlight   map[string]bool
}

func NewDecisionLedger(pipeline client.Pipeline, jobID, actor string, detail api.EstimateDetail) *DecisionLedger {
	v := validator.NewValidator()
	v.Register(validator.NewDecisionValidationRules()...)

	l := &DecisionLedger{
		jobID:    jobID,
		actor:    actor,
		client:   pipeline,
		val:      v,
		items:    make(map[string]api.VEOpportunity, len(detail.VEOpportunities)),
		order:    make([]string, 0, len(detail.VEOpportunities)),
		inFlight: make(map[string]bool),
	}
	for _, item := range detail.VEOpportunities {
		l.items[item.VEID] = item
		l.order = append(l.order, item.VEID)
	}
	if detail.FinancialSummary != nil {
		l.aggregates = Aggregates{
			TotalPotentialSavingsAED: detail.FinancialSummary.TotalPotentialSavingsAED,
			AcceptedSavingsAED:       detail.FinancialSummary.AcceptedSavingsAED,
		}
	}
	return l
}

// WithEventProducer attaches an audit producer; reconciled decisions emit an
// event through it.
func (l *DecisionLedger) WithEventProducer(p *events.EventProducer) *DecisionLedger {
	l.producer = p
	return l
}

// Items returns the opportunities in server order. The slice and its elements
// are copies.
func (l *DecisionLedger) Items() []api.VEOpportunity {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]api.VEOpportunity, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.items[id])
	}
	return out
}

func (l *DecisionLedger) Aggregates() Aggregates {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.aggregates
}

// InFlight reports whether a decision call for the item is pending. Callers
// disable the item's controls on true.
func (l *DecisionLedger) InFlight(veID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight[veID]
}

// Decide applies an accept/reject decision to one opportunity. The local item
// flips optimistically before the call; on success the server aggregates are
// adopted verbatim, on failure the item rolls back to its pre-optimistic
// state, the aggregates stay untouched and the error is returned to the
// caller. The call is never retried here.
func (l *DecisionLedger) Decide(ctx context.Context, veID string, decision api.DecisionStatus, reason string) (api.DecisionResult, error) {
	if err := l.val.Struct(decisionInput{Decision: decision, DecidedBy: l.actor}); err != nil {
		return api.DecisionResult{}, NewErrInvalidDecision(err.Error())
	}

	l.mu.Lock()
	item, ok := l.items[veID]
	if !ok {
		l.mu.Unlock()
		return api.DecisionResult{}, NewErrUnknownOpportunity(veID)
	}
	if l.inFlight[veID] {
		l.mu.Unlock()
		return api.DecisionResult{}, NewErrDecisionInFlight(veID)
	}
	cmd := newDecisionCommand(item, decision, reason, l.actor)
	l.items[veID] = cmd.apply()
	l.inFlight[veID] = true
	l.mu.Unlock()

	result, err := cmd.commit(ctx, l.client, l.jobID)

	l.mu.Lock()
	delete(l.inFlight, veID)
	if err != nil {
		l.items[veID] = cmd.rollback()
		l.mu.Unlock()
		metrics.IncreaseCommandFailuresTotalMetric("ve_decision")
		zap.S().Named("ledger").Warnw("decision failed, rolled back", "job_id", l.jobID, "ve_id", veID, "error", err)
		return api.DecisionResult{}, err
	}
	l.aggregates.AcceptedSavingsAED = result.AcceptedSavingsAED
	l.aggregates.TotalPotentialSavingsAED = result.TotalPotentialSavingsAED
	l.mu.Unlock()

	l.emitDecisionEvent(ctx, veID, decision, result)
	return result, nil
}

func (l *DecisionLedger) emitDecisionEvent(ctx context.Context, veID string, decision api.DecisionStatus, result api.DecisionResult) {
	if l.producer == nil {
		return
	}
	payload, err := json.Marshal(events.DecisionEvent{
		JobID:              l.jobID,
		VEID:               veID,
		Decision:           string(decision),
		AcceptedSavingsAED: result.AcceptedSavingsAED,
	})
	if err != nil {
		return
	}
	if err := l.producer.Write(ctx, events.DecisionKind, bytes.NewReader(payload)); err != nil {
		zap.S().Named("ledger").Warnw("failed to emit decision event", "job_id", l.jobID, "ve_id", veID, "error", err)
	}
}
