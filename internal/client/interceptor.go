package client

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	api "github.com/meridianqs/estimator-client/api/v1alpha1"
)

// LinkStatus is the observed health of the link to the pipeline.
type LinkStatus struct {
	Connected        bool
	LastFetchOK      *bool // nil means no fetch has been made yet
	LastCommandOK    *bool // nil means no command has been issued yet
	LastFetchError   error
	LastCommandError error
}

// Interceptor wraps a Pipeline and records link health per call. A network
// error marks the link disconnected; an API error means the link works but the
// call was refused.
type Interceptor struct {
	status LinkStatus
	client Pipeline
	l      sync.Mutex
}

var _ Pipeline = (*Interceptor)(nil)

func NewInterceptor(client Pipeline) *Interceptor {
	return &Interceptor{
		client: client,
		status: LinkStatus{Connected: false},
	}
}

func (i *Interceptor) GetStatus() LinkStatus {
	i.l.Lock()
	defer i.l.Unlock()
	return i.status
}

func (i *Interceptor) recordFetch(err error) {
	i.l.Lock()
	defer i.l.Unlock()

	if err != nil {
		var netOpErr *net.OpError
		if errors.As(err, &netOpErr) {
			i.status.Connected = false
			return
		}
		i.status.Connected = true
		i.status.LastFetchOK = ptr(false)
		i.status.LastFetchError = err
		return
	}
	i.status.Connected = true
	i.status.LastFetchOK = ptr(true)
	i.status.LastFetchError = nil
}

func (i *Interceptor) recordCommand(err error) {
	i.l.Lock()
	defer i.l.Unlock()

	if err != nil {
		var netOpErr *net.OpError
		if errors.As(err, &netOpErr) {
			i.status.Connected = false
			return
		}
		i.status.Connected = true
		i.status.LastCommandOK = ptr(false)
		i.status.LastCommandError = err
		return
	}
	i.status.Connected = true
	i.status.LastCommandOK = ptr(true)
	i.status.LastCommandError = nil
}

func (i *Interceptor) StreamProgress(ctx context.Context, jobID string) (io.ReadCloser, error) {
	body, err := i.client.StreamProgress(ctx, jobID)
	i.recordFetch(err)
	return body, err
}

func (i *Interceptor) GetJobStatus(ctx context.Context, jobID string) (api.PullStatus, error) {
	status, err := i.client.GetJobStatus(ctx, jobID)
	i.recordFetch(err)
	return status, err
}

func (i *Interceptor) GetEstimate(ctx context.Context, jobID string) (api.EstimateDetail, error) {
	detail, err := i.client.GetEstimate(ctx, jobID)
	i.recordFetch(err)
	return detail, err
}

func (i *Interceptor) Approve(ctx context.Context, jobID string) error {
	err := i.client.Approve(ctx, jobID)
	i.recordCommand(err)
	return err
}

func (i *Interceptor) DecideOpportunity(ctx context.Context, jobID string, veID string, params api.DecisionRequest) (api.DecisionResult, error) {
	result, err := i.client.DecideOpportunity(ctx, jobID, veID, params)
	i.recordCommand(err)
	return result, err
}

func (i *Interceptor) AddClarification(ctx context.Context, jobID string, params api.AddRFIRequest) error {
	err := i.client.AddClarification(ctx, jobID, params)
	i.recordCommand(err)
	return err
}

func (i *Interceptor) RespondClarification(ctx context.Context, jobID string, rfiID string, params api.RespondRFIRequest) error {
	err := i.client.RespondClarification(ctx, jobID, rfiID, params)
	i.recordCommand(err)
	return err
}

func (i *Interceptor) GetClarificationLog(ctx context.Context, jobID string) (api.ClarificationLog, error) {
	log, err := i.client.GetClarificationLog(ctx, jobID)
	i.recordFetch(err)
	return log, err
}

func ptr(b bool) *bool {
	return &b
}
