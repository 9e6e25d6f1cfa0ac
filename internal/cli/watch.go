package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/meridianqs/estimator-client/internal/events"
	"github.com/meridianqs/estimator-client/internal/watch"
)

type WatchOptions struct {
	GlobalOptions

	PollInterval time.Duration
}

func DefaultWatchOptions() *WatchOptions {
	return &WatchOptions{
		GlobalOptions: DefaultGlobalOptions(),
		PollInterval:  watch.DefaultPollInterval,
	}
}

func NewCmdWatch() *cobra.Command {
	o := DefaultWatchOptions()
	cmd := &cobra.Command{
		Use:   "watch JOB_ID",
		Short: "Follow the progress of an estimate job until it reaches a terminal status.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *WatchOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	fs.DurationVar(&o.PollInterval, "poll-interval", o.PollInterval, "Pull-channel fetch interval used after a push channel failover")
}

func (o *WatchOptions) Run(ctx context.Context, args []string) error {
	jobID := args[0]

	c, err := o.Client()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	producer := events.NewEventProducer(&events.StdoutWriter{})
	defer func() { _ = producer.Close() }()

	watcher := watch.NewWatcher(c, jobID,
		watch.WithPollInterval(o.PollInterval),
		watch.WithEventProducer(producer),
	)
	watcher.Start(ctx)
	defer watcher.Stop()

	var lastLine string
	var lastTriage string
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap := <-watcher.Updates():
			line := fmt.Sprintf("[%3d%%] %s (%s)", snap.Job.ProgressPct, snap.Job.CurrentStep, snap.Channel)
			if line != lastLine {
				fmt.Println(line)
				lastLine = line
			}

			triage := ""
			if snap.Triage != nil {
				triage = snap.Triage.TriageID
			}
			if triage != lastTriage {
				if triage != "" {
					fmt.Printf("REVIEW REQUIRED: triage %s is blocking the pipeline until a human acts\n", triage)
				} else if lastTriage != "" {
					fmt.Println("triage cleared, pipeline resumed")
				}
				lastTriage = triage
			}

			if snap.Job.Terminal() {
				return o.renderTerminal(snap)
			}
		}
	}
}

func (o *WatchOptions) renderTerminal(snap watch.Snapshot) error {
	fmt.Printf("job %s finished with status %s\n", snap.Job.ID, snap.Job.Status)
	if snap.Job.Error != "" {
		fmt.Printf("pipeline error: %s\n", snap.Job.Error)
	}
	if snap.DetailErr != nil {
		return fmt.Errorf("fetching estimate detail: %w", snap.DetailErr)
	}
	if snap.Detail == nil {
		return nil
	}
	if fs := snap.Detail.FinancialSummary; fs != nil {
		fmt.Printf("grand total: AED %s (accepted savings AED %s of AED %s potential)\n",
			formatAED(fs.GrandTotalAED), formatAED(fs.AcceptedSavingsAED), formatAED(fs.TotalPotentialSavingsAED))
	}
	fmt.Printf("%d BOQ lines, %d VE opportunities, %d RFIs\n",
		len(snap.Detail.BOQ), len(snap.Detail.VEOpportunities), len(snap.Detail.RFIRegister))
	return nil
}
