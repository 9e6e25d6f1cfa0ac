package watch

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	api "github.com/meridianqs/estimator-client/api/v1alpha1"
	"github.com/meridianqs/estimator-client/internal/client"
	"github.com/meridianqs/estimator-client/internal/events"
)

const defaultDetailTimeout = 10 * time.Second

// Snapshot is an immutable view of one job's observed state. A new value is
// published on every change; the previous one is never mutated.
type Snapshot struct {
	Job     Job
	Triage  *TriageFlag
	Channel ChannelState
	// Detail is set once, after the first terminal status is reduced.
	Detail    *api.EstimateDetail
	DetailErr error
}

type WatcherOption func(*Watcher)

func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.pollInterval = d
	}
}

func WithEventProducer(p *events.EventProducer) WatcherOption {
	return func(w *Watcher) {
		w.producer = p
	}
}

// Watcher owns the observation of a single estimate job: it runs the dual
// channel transport, reduces events in arrival order, derives the triage gate
// and performs the exactly-once detail fetch on the first terminal status.
// One watcher per consumer; watchers share nothing.
type Watcher struct {
	jobID        string
	client       client.Pipeline
	transport    *Transport
	producer     *events.EventProducer
	pollInterval time.Duration

	mu        sync.Mutex
	job       Job
	gate      TriageGate
	detail    *api.EstimateDetail
	detailErr error
	disposed  bool

	updates   chan Snapshot
	stopCh    chan chan any
	finished  chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

func NewWatcher(pipeline client.Pipeline, jobID string, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		jobID:        jobID,
		client:       pipeline,
		pollInterval: DefaultPollInterval,
		job:          NewJob(jobID),
		updates:      make(chan Snapshot, 1),
		stopCh:       make(chan chan any),
		finished:     make(chan struct{}),
	}
	for _, o := range opts {
		o(w)
	}
	w.transport = NewTransport(pipeline, jobID, w.pollInterval)
	return w
}

// Start begins observation. Subsequent calls are no-ops.
func (w *Watcher) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		w.transport.Start(ctx)
		go w.run(ctx)
	})
}

// Stop disposes the watcher: the transport is closed synchronously and the
// event loop is joined. Stopping an already-stopped watcher is a no-op.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.transport.Close()

		w.mu.Lock()
		w.disposed = true
		w.mu.Unlock()

		c := make(chan any)
		select {
		case w.stopCh <- c:
			<-c
		case <-w.finished:
		}
	})
}

// Snapshot returns the current observed state.
func (w *Watcher) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// Updates notifies on state changes, latest snapshot wins. The channel is
// never closed; select against the consumer's own lifecycle.
func (w *Watcher) Updates() <-chan Snapshot {
	return w.updates
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.finished)

	for {
		select {
		case c := <-w.stopCh:
			c <- struct{}{}
			close(c)
			return
		case <-ctx.Done():
			w.transport.Close()
			return
		case event, ok := <-w.transport.Events():
			if !ok {
				return
			}
			w.apply(ctx, event)
		}
	}
}

func (w *Watcher) apply(ctx context.Context, event api.ProgressEvent) {
	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return
	}
	next, fetchDetail := Reduce(w.job, event)
	w.job = next
	w.gate.Observe(event, next)
	w.mu.Unlock()

	if fetchDetail {
		w.fetchDetail(ctx)
		w.emitTerminalEvent(ctx, next)
	}
	w.publish()
}

// fetchDetail runs at most once per watcher lifetime: the reducer's edge
// trigger guarantees a single true even under a burst of duplicate terminal
// events.
func (w *Watcher) fetchDetail(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, defaultDetailTimeout)
	defer cancel()

	detail, err := w.client.GetEstimate(ctx, w.jobID)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.disposed {
		// the consumer is gone, do not apply the result to a disposed view
		return
	}
	if err != nil {
		zap.S().Named("watcher").Errorw("failed to fetch estimate detail", "job_id", w.jobID, "error", err)
		w.detailErr = err
		return
	}
	w.detail = &detail
	w.detailErr = nil
}

func (w *Watcher) emitTerminalEvent(ctx context.Context, job Job) {
	if w.producer == nil {
		return
	}
	payload, err := json.Marshal(events.JobTerminalEvent{
		JobID:       job.ID,
		Status:      string(job.Status),
		ProgressPct: job.ProgressPct,
	})
	if err != nil {
		return
	}
	if err := w.producer.Write(ctx, events.JobTerminalKind, bytes.NewReader(payload)); err != nil {
		zap.S().Named("watcher").Warnw("failed to emit terminal event", "job_id", job.ID, "error", err)
	}
}

func (w *Watcher) publish() {
	w.mu.Lock()
	snap := w.snapshotLocked()
	w.mu.Unlock()

	// latest wins, a slow consumer only ever misses intermediate snapshots
	select {
	case w.updates <- snap:
	default:
		select {
		case <-w.updates:
		default:
		}
		select {
		case w.updates <- snap:
		default:
		}
	}
}

func (w *Watcher) snapshotLocked() Snapshot {
	return Snapshot{
		Job:       w.job,
		Triage:    w.gate.Current(),
		Channel:   w.transport.State(),
		Detail:    w.detail,
		DetailErr: w.detailErr,
	}
}
