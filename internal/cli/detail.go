package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type DetailOptions struct {
	GlobalOptions

	Output string
}

func DefaultDetailOptions() *DetailOptions {
	return &DetailOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdDetail() *cobra.Command {
	o := DefaultDetailOptions()
	cmd := &cobra.Command{
		Use:   "detail JOB_ID",
		Short: "Display the full estimate detail of a job.",
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

func (o *DetailOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	fs.StringVarP(&o.Output, "output", "o", o.Output, "Output format. One of: (json, yaml).")
}

func (o *DetailOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	return validateOutputFormat(o.Output)
}

func (o *DetailOptions) Run(ctx context.Context, args []string) error {
	c, err := o.Client()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	detail, err := c.GetEstimate(ctx, args[0])
	if err != nil {
		return fmt.Errorf("reading estimate %s: %w", args[0], err)
	}
	return printResource(detail, o.Output)
}
