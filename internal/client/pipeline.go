package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5/middleware"

	api "github.com/meridianqs/estimator-client/api/v1alpha1"
	"github.com/meridianqs/estimator-client/pkg/requestid"
)

var (
	ErrEmptyResponse = errors.New("empty response")
)

// TokenFunc supplies the bearer credential for outbound calls. It is provided
// by the authentication collaborator; a 401 simply propagates back to it.
type TokenFunc func(ctx context.Context) (string, error)

// Pipeline is the client interface for the estimation pipeline API.
type Pipeline interface {
	// StreamProgress opens the push channel for a job. The returned body
	// carries newline-delimited JSON progress frames until the server closes
	// the stream or the caller closes the body.
	StreamProgress(ctx context.Context, jobID string) (io.ReadCloser, error)
	// GetJobStatus is the pull channel: a one-shot status fetch.
	GetJobStatus(ctx context.Context, jobID string) (api.PullStatus, error)
	// GetEstimate fetches the full estimate detail.
	GetEstimate(ctx context.Context, jobID string) (api.EstimateDetail, error)
	// Approve issues the idempotent commercial approval command. Success has
	// no payload guarantee beyond 2xx; callers re-fetch detail to confirm.
	Approve(ctx context.Context, jobID string) error
	// DecideOpportunity issues a VE accept/reject decision and returns the
	// server-confirmed savings aggregates.
	DecideOpportunity(ctx context.Context, jobID string, veID string, params api.DecisionRequest) (api.DecisionResult, error)
	// AddClarification logs a new RFI against the job.
	AddClarification(ctx context.Context, jobID string, params api.AddRFIRequest) error
	// RespondClarification records a response to an open RFI.
	RespondClarification(ctx context.Context, jobID string, rfiID string, params api.RespondRFIRequest) error
	// GetClarificationLog fetches the full RFI register with server-derived
	// counts.
	GetClarificationLog(ctx context.Context, jobID string) (api.ClarificationLog, error)
}

var _ Pipeline = (*pipeline)(nil)

type pipeline struct {
	server string
	client *http.Client
	token  TokenFunc
}

// NewPipeline returns a Pipeline talking to the server named in config. token
// may be nil for unauthenticated deployments.
func NewPipeline(config *Config, token TokenFunc) (Pipeline, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	httpClient, err := NewHTTPClientFromConfig(config)
	if err != nil {
		return nil, fmt.Errorf("NewPipeline: creating HTTP client %w", err)
	}
	return &pipeline{
		server: config.Service.Server,
		client: httpClient,
		token:  token,
	}, nil
}

func (p *pipeline) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	u, err := url.JoinPath(p.server, path)
	if err != nil {
		return nil, fmt.Errorf("building request url: %w", err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(middleware.RequestIDHeader, requestid.OrGenerate(ctx))
	if p.token != nil {
		token, err := p.token(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolving bearer token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (p *pipeline) do(req *http.Request, out any) error {
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%s %s failed: %s", req.Method, req.URL.Path, resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyResponse
		}
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (p *pipeline) StreamProgress(ctx context.Context, jobID string) (io.ReadCloser, error) {
	req, err := p.newRequest(ctx, http.MethodGet, fmt.Sprintf("/api/v1/estimates/%s/stream", jobID), nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("open progress stream failed: %s", resp.Status)
	}
	return resp.Body, nil
}

func (p *pipeline) GetJobStatus(ctx context.Context, jobID string) (api.PullStatus, error) {
	req, err := p.newRequest(ctx, http.MethodGet, fmt.Sprintf("/api/v1/estimates/%s/status", jobID), nil)
	if err != nil {
		return api.PullStatus{}, err
	}
	var status api.PullStatus
	if err := p.do(req, &status); err != nil {
		return api.PullStatus{}, err
	}
	return status, nil
}

func (p *pipeline) GetEstimate(ctx context.Context, jobID string) (api.EstimateDetail, error) {
	req, err := p.newRequest(ctx, http.MethodGet, fmt.Sprintf("/api/v1/estimates/%s", jobID), nil)
	if err != nil {
		return api.EstimateDetail{}, err
	}
	var detail api.EstimateDetail
	if err := p.do(req, &detail); err != nil {
		return api.EstimateDetail{}, err
	}
	return detail, nil
}

func (p *pipeline) Approve(ctx context.Context, jobID string) error {
	req, err := p.newRequest(ctx, http.MethodPost, fmt.Sprintf("/api/v1/estimates/%s/approve", jobID), nil)
	if err != nil {
		return err
	}
	return p.do(req, nil)
}

func (p *pipeline) DecideOpportunity(ctx context.Context, jobID string, veID string, params api.DecisionRequest) (api.DecisionResult, error) {
	req, err := p.newRequest(ctx, http.MethodPost, fmt.Sprintf("/api/v1/estimates/%s/ve-opportunities/%s/decision", jobID, veID), params)
	if err != nil {
		return api.DecisionResult{}, err
	}
	var result api.DecisionResult
	if err := p.do(req, &result); err != nil {
		return api.DecisionResult{}, err
	}
	return result, nil
}

func (p *pipeline) AddClarification(ctx context.Context, jobID string, params api.AddRFIRequest) error {
	req, err := p.newRequest(ctx, http.MethodPost, fmt.Sprintf("/api/v1/estimates/%s/rfis", jobID), params)
	if err != nil {
		return err
	}
	return p.do(req, nil)
}

func (p *pipeline) RespondClarification(ctx context.Context, jobID string, rfiID string, params api.RespondRFIRequest) error {
	req, err := p.newRequest(ctx, http.MethodPost, fmt.Sprintf("/api/v1/estimates/%s/rfis/%s/response", jobID, rfiID), params)
	if err != nil {
		return err
	}
	return p.do(req, nil)
}

func (p *pipeline) GetClarificationLog(ctx context.Context, jobID string) (api.ClarificationLog, error) {
	req, err := p.newRequest(ctx, http.MethodGet, fmt.Sprintf("/api/v1/estimates/%s/rfis", jobID), nil)
	if err != nil {
		return api.ClarificationLog{}, err
	}
	var log api.ClarificationLog
	if err := p.do(req, &log); err != nil {
		return api.ClarificationLog{}, err
	}
	return log, nil
}
