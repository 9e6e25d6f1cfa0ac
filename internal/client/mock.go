package client

import (
	"context"
	"io"

	api "github.com/meridianqs/estimator-client/api/v1alpha1"
)

// PipelineMock is a test double for Pipeline. Unset function fields make the
// corresponding call fail loudly instead of silently succeeding.
type PipelineMock struct {
	StreamProgressFunc       func(ctx context.Context, jobID string) (io.ReadCloser, error)
	GetJobStatusFunc         func(ctx context.Context, jobID string) (api.PullStatus, error)
	GetEstimateFunc          func(ctx context.Context, jobID string) (api.EstimateDetail, error)
	ApproveFunc              func(ctx context.Context, jobID string) error
	DecideOpportunityFunc    func(ctx context.Context, jobID string, veID string, params api.DecisionRequest) (api.DecisionResult, error)
	AddClarificationFunc     func(ctx context.Context, jobID string, params api.AddRFIRequest) error
	RespondClarificationFunc func(ctx context.Context, jobID string, rfiID string, params api.RespondRFIRequest) error
	GetClarificationLogFunc  func(ctx context.Context, jobID string) (api.ClarificationLog, error)
}

var _ Pipeline = (*PipelineMock)(nil)

func (m *PipelineMock) StreamProgress(ctx context.Context, jobID string) (io.ReadCloser, error) {
	if m.StreamProgressFunc == nil {
		panic("PipelineMock.StreamProgressFunc: method is nil but Pipeline.StreamProgress was called")
	}
	return m.StreamProgressFunc(ctx, jobID)
}

func (m *PipelineMock) GetJobStatus(ctx context.Context, jobID string) (api.PullStatus, error) {
	if m.GetJobStatusFunc == nil {
		panic("PipelineMock.GetJobStatusFunc: method is nil but Pipeline.GetJobStatus was called")
	}
	return m.GetJobStatusFunc(ctx, jobID)
}

func (m *PipelineMock) GetEstimate(ctx context.Context, jobID string) (api.EstimateDetail, error) {
	if m.GetEstimateFunc == nil {
		panic("PipelineMock.GetEstimateFunc: method is nil but Pipeline.GetEstimate was called")
	}
	return m.GetEstimateFunc(ctx, jobID)
}

func (m *PipelineMock) Approve(ctx context.Context, jobID string) error {
	if m.ApproveFunc == nil {
		panic("PipelineMock.ApproveFunc: method is nil but Pipeline.Approve was called")
	}
	return m.ApproveFunc(ctx, jobID)
}

func (m *PipelineMock) DecideOpportunity(ctx context.Context, jobID string, veID string, params api.DecisionRequest) (api.DecisionResult, error) {
	if m.DecideOpportunityFunc == nil {
		panic("PipelineMock.DecideOpportunityFunc: method is nil but Pipeline.DecideOpportunity was called")
	}
	return m.DecideOpportunityFunc(ctx, jobID, veID, params)
}

func (m *PipelineMock) AddClarification(ctx context.Context, jobID string, params api.AddRFIRequest) error {
	if m.AddClarificationFunc == nil {
		panic("PipelineMock.AddClarificationFunc: method is nil but Pipeline.AddClarification was called")
	}
	return m.AddClarificationFunc(ctx, jobID, params)
}

func (m *PipelineMock) RespondClarification(ctx context.Context, jobID string, rfiID string, params api.RespondRFIRequest) error {
	if m.RespondClarificationFunc == nil {
		panic("PipelineMock.RespondClarificationFunc: method is nil but Pipeline.RespondClarification was called")
	}
	return m.RespondClarificationFunc(ctx, jobID, rfiID, params)
}

func (m *PipelineMock) GetClarificationLog(ctx context.Context, jobID string) (api.ClarificationLog, error) {
	if m.GetClarificationLogFunc == nil {
		panic("PipelineMock.GetClarificationLogFunc: method is nil but Pipeline.GetClarificationLog was called")
	}
	return m.GetClarificationLogFunc(ctx, jobID)
}
