package workflow

import (
	"context"
	"sync"
	"time"

	api "github.com/meridianqs/estimator-client/api/v1alpha1"
	"github.com/meridianqs/estimator-client/internal/client"
	"github.com/meridianqs/estimator-client/pkg/metrics"
)

// DefaultOverdueThresholdDays is used when the policy collaborator supplies
// none.
const DefaultOverdueThresholdDays = 7

type RegisterOption func(*ClarificationRegister)

// WithClock injects the register's notion of now; tests use it.
func WithClock(now func() time.Time) RegisterOption {
	return func(r *ClarificationRegister) {
		r.now = now
	}
}

// WithOverdueThresholdDays sets the collaborator-supplied overdue policy
// threshold.
func WithOverdueThresholdDays(days int) RegisterOption {
	return func(r *ClarificationRegister) {
		r.thresholdDays = days
	}
}

// ClarificationRegister tracks the RFI log of one job. DaysOpen and Overdue
// are derived at read time, never stored; both mutations refetch the full log
// because the server owns the overdue policy and the aggregate counts.
type ClarificationRegister struct {
	jobID         string
	client        client.Pipeline
	now           func() time.Time
	thresholdDays int

	mu     sync.Mutex
	items  []api.RFIEntry
	counts api.RFICounts
}

func NewClarificationRegister(pipeline client.Pipeline, jobID string, log api.ClarificationLog, opts ...RegisterOption) *ClarificationRegister {
	r := &ClarificationRegister{
		jobID:         jobID,
		client:        pipeline,
		now:           time.Now,
		thresholdDays: DefaultOverdueThresholdDays,
	}
	for _, o := range opts {
		o(r)
	}
	r.adopt(log)
	return r
}

// Items returns the register entries with DaysOpen and Overdue recomputed
// against the current clock. The server's aggregate counts are not touched by
// this derivation.
func (r *ClarificationRegister) Items() []api.RFIEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	out := make([]api.RFIEntry, len(r.items))
	for i, item := range r.items {
		item.DaysOpen = daysOpen(item, now)
		item.Overdue = item.Status == api.RFIOpen && item.DaysOpen > r.thresholdDays
		out[i] = item
	}
	return out
}

// Counts returns the server-derived aggregate counts of the last fetched log.
// They are never summed locally; the authoritative overdue policy may differ
// from the client's rendering threshold.
func (r *ClarificationRegister) Counts() api.RFICounts {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts
}

// Add logs a new RFI and refetches the full log on success.
func (r *ClarificationRegister) Add(ctx context.Context, params api.AddRFIRequest) error {
	if err := r.client.AddClarification(ctx, r.jobID, params); err != nil {
		metrics.IncreaseCommandFailuresTotalMetric("rfi_add")
		return err
	}
	return r.refetch(ctx)
}

// Respond records a response to an open RFI and refetches the full log on
// success.
func (r *ClarificationRegister) Respond(ctx context.Context, rfiID string, params api.RespondRFIRequest) error {
	if err := r.client.RespondClarification(ctx, r.jobID, rfiID, params); err != nil {
		metrics.IncreaseCommandFailuresTotalMetric("rfi_respond")
		return err
	}
	return r.refetch(ctx)
}

// Refresh refetches the full log from the server.
func (r *ClarificationRegister) Refresh(ctx context.Context) error {
	return r.refetch(ctx)
}

func (r *ClarificationRegister) refetch(ctx context.Context) error {
	log, err := r.client.GetClarificationLog(ctx, r.jobID)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adoptLocked(log)
	return nil
}

func (r *ClarificationRegister) adopt(log api.ClarificationLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adoptLocked(log)
}

func (r *ClarificationRegister) adoptLocked(log api.ClarificationLog) {
	r.items = make([]api.RFIEntry, len(log.Items))
	copy(r.items, log.Items)
	r.counts = log.Counts
}

func daysOpen(item api.RFIEntry, now time.Time) int {
	end := now
	if item.Status == api.RFIResponded && item.RespondedAt != nil {
		end = *item.RespondedAt
	}
	d := int(end.Sub(item.SubmittedAt).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}
