package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	api "github.com/meridianqs/estimator-client/api/v1alpha1"
	"github.com/meridianqs/estimator-client/internal/workflow"
)

func NewCmdRFI() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rfi",
		Short: "Work with the clarification (RFI) register.",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
	cmd.AddCommand(newCmdRFIList())
	cmd.AddCommand(newCmdRFIAdd())
	cmd.AddCommand(newCmdRFIRespond())
	return cmd
}

type RFIOptions struct {
	GlobalOptions

	Reference     string
	Text          string
	ThresholdDays int
}

func defaultRFIOptions() *RFIOptions {
	return &RFIOptions{
		GlobalOptions: DefaultGlobalOptions(),
		ThresholdDays: workflow.DefaultOverdueThresholdDays,
	}
}

func (o *RFIOptions) register(ctx context.Context, jobID string) (*workflow.ClarificationRegister, error) {
	c, err := o.Client()
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}
	log, err := c.GetClarificationLog(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("reading RFI log for %s: %w", jobID, err)
	}
	return workflow.NewClarificationRegister(c, jobID, log,
		workflow.WithOverdueThresholdDays(o.ThresholdDays)), nil
}

func (o *RFIOptions) renderLog(register *workflow.ClarificationRegister) {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "RFI_ID\tREF\tSTATUS\tDAYS_OPEN\tOVERDUE\tQUESTION")
	for _, item := range register.Items() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%t\t%s\n",
			item.RFIID, item.Reference, item.Status, item.DaysOpen, item.Overdue, item.RFIText)
	}
	_ = w.Flush()

	counts := register.Counts()
	fmt.Printf("total: %d, open: %d, overdue: %d\n", counts.Total, counts.Open, counts.Overdue)
}

func newCmdRFIList() *cobra.Command {
	o := defaultRFIOptions()
	cmd := &cobra.Command{
		Use:   "list JOB_ID",
		Short: "List the RFI register with server-derived counts.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			register, err := o.register(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			o.renderLog(register)
			return nil
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func newCmdRFIAdd() *cobra.Command {
	o := defaultRFIOptions()
	cmd := &cobra.Command{
		Use:   "add JOB_ID",
		Short: "Log a new clarification request.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.Text == "" {
				return fmt.Errorf("--text is required")
			}
			register, err := o.register(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := register.Add(cmd.Context(), api.AddRFIRequest{Reference: o.Reference, RFIText: o.Text}); err != nil {
				return err
			}
			o.renderLog(register)
			return nil
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	cmd.Flags().StringVar(&o.Reference, "ref", "", "Drawing or specification reference")
	cmd.Flags().StringVar(&o.Text, "text", "", "Clarification question")
	return cmd
}

func newCmdRFIRespond() *cobra.Command {
	o := defaultRFIOptions()
	cmd := &cobra.Command{
		Use:   "respond JOB_ID RFI_ID",
		Short: "Record a response to an open clarification.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.Text == "" {
				return fmt.Errorf("--text is required")
			}
			register, err := o.register(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := register.Respond(cmd.Context(), args[1], api.RespondRFIRequest{ResponseText: o.Text}); err != nil {
				return err
			}
			o.renderLog(register)
			return nil
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	cmd.Flags().StringVar(&o.Text, "text", "", "Response text")
	return cmd
}

func (o *RFIOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	fs.IntVar(&o.ThresholdDays, "overdue-threshold", o.ThresholdDays, "Days after which an open RFI renders as overdue")
}
