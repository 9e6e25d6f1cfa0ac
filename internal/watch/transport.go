package watch

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"

	api "github.com/meridianqs/estimator-client/api/v1alpha1"
	"github.com/meridianqs/estimator-client/internal/client"
	"github.com/meridianqs/estimator-client/pkg/metrics"
)

const (
	// DefaultPollInterval is the pull-channel fetch interval after a push
	// channel failover.
	DefaultPollInterval = 3 * time.Second

	defaultFetchTimeout = 5 * time.Second
)

// ChannelState is the delivery channel currently carrying progress events.
// The two channels are never open simultaneously for the same job.
type ChannelState int

const (
	ChannelClosed ChannelState = iota
	ChannelPushActive
	ChannelPullActive
)

func (s ChannelState) String() string {
	switch s {
	case ChannelPushActive:
		return "push"
	case ChannelPullActive:
		return "pull"
	default:
		return "closed"
	}
}

// Transport delivers progress events for one job: push channel first, interval
// pull as fallback. It stops on its own when a terminal status passes through,
// and synchronously on Close.
type Transport struct {
	jobID        string
	client       client.Pipeline
	pollInterval time.Duration

	events    chan api.ProgressEvent
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once

	mu     sync.Mutex
	state  ChannelState
	stream io.ReadCloser
}

func NewTransport(pipeline client.Pipeline, jobID string, pollInterval time.Duration) *Transport {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Transport{
		jobID:        jobID,
		client:       pipeline,
		pollInterval: pollInterval,
		events:       make(chan api.ProgressEvent, 16),
		done:         make(chan struct{}),
	}
}

// Events is the stream of progress events in arrival order. It is closed when
// the transport stops for any reason.
func (t *Transport) Events() <-chan api.ProgressEvent {
	return t.events
}

func (t *Transport) State() ChannelState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Start begins delivery. Subsequent calls are no-ops.
func (t *Transport) Start(ctx context.Context) {
	t.startOnce.Do(func() {
		go t.run(ctx)
	})
}

// Close disposes the transport: it synchronously closes whichever channel is
// open and cancels any pending timer. Closing an already-closed transport is a
// no-op.
func (t *Transport) Close() {
	t.closeOnce.Do(func() {
		close(t.done)
		t.mu.Lock()
		if t.stream != nil {
			_ = t.stream.Close()
			t.stream = nil
		}
		t.state = ChannelClosed
		t.mu.Unlock()
	})
}

func (t *Transport) run(ctx context.Context) {
	defer close(t.events)
	defer t.setState(ChannelClosed)

	if stop := t.pushPhase(ctx); stop {
		return
	}
	if t.disposed(ctx) {
		return
	}

	zap.S().Named("transport").Warnw("push channel lost, failing over to polling", "job_id", t.jobID, "interval", t.pollInterval)
	metrics.IncreaseChannelFailoversTotalMetric()
	t.pullPhase(ctx)
}

// pushPhase consumes the push channel. It returns true when the transport is
// finished (terminal status delivered or disposed) and false when the pull
// channel should take over.
func (t *Transport) pushPhase(ctx context.Context) bool {
	body, err := t.client.StreamProgress(ctx, t.jobID)
	if err != nil {
		zap.S().Named("transport").Warnw("failed to open push channel", "job_id", t.jobID, "error", err)
		return false
	}

	t.mu.Lock()
	select {
	case <-t.done:
		t.mu.Unlock()
		_ = body.Close()
		return true
	default:
	}
	t.stream = body
	t.state = ChannelPushActive
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		if t.stream != nil {
			_ = t.stream.Close()
			t.stream = nil
		}
		t.mu.Unlock()
	}()

	reader := newFrameReader(body)
	for {
		event, err := reader.Next()
		if err != nil {
			if !t.disposed(ctx) && err != io.EOF {
				zap.S().Named("transport").Warnw("push channel read failed", "job_id", t.jobID, "error", err)
			}
			return t.disposed(ctx)
		}
		if !t.deliver(ctx, event, "push") {
			return true
		}
		if eventTerminal(event) {
			return true
		}
	}
}

// pullPhase polls the status endpoint on a fixed jittered interval until a
// terminal status is observed or the transport is disposed. A failed poll is
// counted and retried on the next tick; the pipeline owner decided no amount
// of consecutive failures is terminal on its own.
func (t *Transport) pullPhase(ctx context.Context) {
	t.setState(ChannelPullActive)

	ticker := jitterbug.New(t.pollInterval, &jitterbug.Norm{Stdev: 30 * time.Millisecond, Mean: 0})
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		status, err := t.fetchStatus(ctx)
		if err != nil {
			zap.S().Named("transport").Debugw("status poll failed", "job_id", t.jobID, "error", err)
			metrics.IncreasePollFailuresTotalMetric()
			continue
		}

		event := api.ProgressEvent{
			JobID:          t.jobID,
			CurrentAgent:   status.CurrentStep,
			ProgressPct:    status.ProgressPct,
			PartialResults: &api.PartialResults{Status: status.Status},
		}
		if !t.deliver(ctx, event, "pull") {
			return
		}
		if api.StringToJobStatus(status.Status).IsTerminal() {
			return
		}
	}
}

func (t *Transport) fetchStatus(ctx context.Context) (api.PullStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultFetchTimeout)
	defer cancel()
	return t.client.GetJobStatus(ctx, t.jobID)
}

func (t *Transport) deliver(ctx context.Context, event api.ProgressEvent, channel string) bool {
	select {
	case t.events <- event:
		metrics.IncreaseProgressEventsTotalMetric(channel)
		return true
	case <-t.done:
		return false
	case <-ctx.Done():
		return false
	}
}

func (t *Transport) disposed(ctx context.Context) bool {
	select {
	case <-t.done:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func (t *Transport) setState(s ChannelState) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

func eventTerminal(event api.ProgressEvent) bool {
	if event.Error != "" {
		return true
	}
	s := event.EmbeddedStatus()
	return s != "" && api.StringToJobStatus(s).IsTerminal()
}
