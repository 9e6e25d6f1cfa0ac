package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	estimatorClient = "estimator_client"

	// Transport metrics
	progressEventsTotal   = "progress_events_total"
	framesDroppedTotal    = "frames_dropped_total"
	channelFailoversTotal = "channel_failovers_total"
	pollFailuresTotal     = "poll_failures_total"

	// Workflow metrics
	commandFailuresTotal = "command_failures_total"

	// Labels
	channelLabel = "channel"
	commandLabel = "command"
)

var progressEventLabels = []string{
	channelLabel,
}

var commandFailureLabels = []string{
	commandLabel,
}

/**
* Metrics definition
**/
var progressEventsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: estimatorClient,
		Name:      progressEventsTotal,
		Help:      "number of progress events applied to the job projection, by delivery channel",
	},
	progressEventLabels,
)

var framesDroppedTotalMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: estimatorClient,
		Name:      framesDroppedTotal,
		Help:      "number of malformed push-channel frames dropped",
	},
)

var channelFailoversTotalMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: estimatorClient,
		Name:      channelFailoversTotal,
		Help:      "number of push-to-pull channel failovers",
	},
)

var pollFailuresTotalMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: estimatorClient,
		Name:      pollFailuresTotal,
		Help:      "number of failed pull-channel status fetches",
	},
)

var commandFailuresTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: estimatorClient,
		Name:      commandFailuresTotal,
		Help:      "number of failed workflow commands, by command",
	},
	commandFailureLabels,
)

func IncreaseProgressEventsTotalMetric(channel string) {
	labels := prometheus.Labels{
		channelLabel: channel,
	}
	progressEventsTotalMetric.With(labels).Inc()
}

func IncreaseFramesDroppedTotalMetric() {
	framesDroppedTotalMetric.Inc()
}

func IncreaseChannelFailoversTotalMetric() {
	channelFailoversTotalMetric.Inc()
}

func IncreasePollFailuresTotalMetric() {
	pollFailuresTotalMetric.Inc()
}

func IncreaseCommandFailuresTotalMetric(command string) {
	labels := prometheus.Labels{
		commandLabel: command,
	}
	commandFailuresTotalMetric.With(labels).Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(progressEventsTotalMetric)
	prometheus.MustRegister(framesDroppedTotalMetric)
	prometheus.MustRegister(channelFailoversTotalMetric)
	prometheus.MustRegister(pollFailuresTotalMetric)
	prometheus.MustRegister(commandFailuresTotalMetric)
}
