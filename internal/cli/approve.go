package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/meridianqs/estimator-client/internal/workflow"
)

type ApproveOptions struct {
	GlobalOptions

	Timeout time.Duration
}

func DefaultApproveOptions() *ApproveOptions {
	return &ApproveOptions{
		GlobalOptions: DefaultGlobalOptions(),
		Timeout:       30 * time.Second,
	}
}

func NewCmdApprove() *cobra.Command {
	o := DefaultApproveOptions()
	cmd := &cobra.Command{
		Use:   "approve JOB_ID",
		Short: "Approve an estimate that is awaiting commercial review.",
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

func (o *ApproveOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	fs.DurationVar(&o.Timeout, "timeout", o.Timeout, "Time budget for the approval call and its confirmation fetch")
}

func (o *ApproveOptions) Run(ctx context.Context, args []string) error {
	jobID := args[0]

	c, err := o.Client()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	detail, err := c.GetEstimate(ctx, jobID)
	if err != nil {
		return fmt.Errorf("reading estimate %s: %w", jobID, err)
	}

	machine := workflow.NewApprovalStateMachine(c, jobID, detail.Status)
	if !machine.CanApprove() {
		return fmt.Errorf("job %s cannot be approved: current state is %s", jobID, machine.State())
	}

	ctx, cancel := context.WithTimeout(ctx, o.Timeout)
	defer cancel()

	confirmed, err := machine.Approve(ctx)
	if err != nil {
		return err
	}
	if confirmed {
		fmt.Printf("job %s approved, pipeline confirmed %s\n", jobID, machine.State())
		return nil
	}
	fmt.Printf("job %s was already %s, nothing to do\n", jobID, machine.State())
	return nil
}
