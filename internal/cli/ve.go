package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	api "github.com/meridianqs/estimator-client/api/v1alpha1"
	"github.com/meridianqs/estimator-client/internal/workflow"
)

func NewCmdVE() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ve",
		Short: "Work with value-engineering opportunities.",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
	cmd.AddCommand(newCmdVEList())
	cmd.AddCommand(newCmdVEDecide(api.DecisionAccepted))
	cmd.AddCommand(newCmdVEDecide(api.DecisionRejected))
	return cmd
}

type VEListOptions struct {
	GlobalOptions
}

func newCmdVEList() *cobra.Command {
	o := &VEListOptions{GlobalOptions: DefaultGlobalOptions()}
	cmd := &cobra.Command{
		Use:   "list JOB_ID",
		Short: "List the VE opportunities of a job with the running savings total.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *VEListOptions) Run(ctx context.Context, args []string) error {
	jobID := args[0]

	c, err := o.Client()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}
	detail, err := c.GetEstimate(ctx, jobID)
	if err != nil {
		return fmt.Errorf("reading estimate %s: %w", jobID, err)
	}

	ledger := workflow.NewDecisionLedger(c, jobID, o.DecidedBy, detail)

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "VE_ID\tDESCRIPTION\tSAVING_AED\tRISK\tSTATUS\tREASON")
	for _, item := range ledger.Items() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			item.VEID, item.Description, formatAED(item.SavingAED), item.RiskLevel, item.Status, item.RejectedReason)
	}
	_ = w.Flush()

	agg := ledger.Aggregates()
	fmt.Printf("accepted savings: AED %s of AED %s potential\n",
		formatAED(agg.AcceptedSavingsAED), formatAED(agg.TotalPotentialSavingsAED))
	return nil
}

type VEDecideOptions struct {
	GlobalOptions

	Reason  string
	Timeout time.Duration
}

func newCmdVEDecide(decision api.DecisionStatus) *cobra.Command {
	o := &VEDecideOptions{
		GlobalOptions: DefaultGlobalOptions(),
		Timeout:       10 * time.Second,
	}
	use := "accept"
	short := "Accept a VE opportunity."
	if decision == api.DecisionRejected {
		use = "reject"
		short = "Reject a VE opportunity, optionally with a reason."
	}
	cmd := &cobra.Command{
		Use:   use + " JOB_ID VE_ID",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.Run(cmd.Context(), args, decision)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	if decision == api.DecisionRejected {
		cmd.Flags().StringVarP(&o.Reason, "reason", "r", "", "Free-text rejection reason")
	}
	return cmd
}

func (o *VEDecideOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	fs.DurationVar(&o.Timeout, "timeout", o.Timeout, "Time budget for the decision call")
}

func (o *VEDecideOptions) Run(ctx context.Context, args []string, decision api.DecisionStatus) error {
	jobID, veID := args[0], args[1]

	c, err := o.Client()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}
	detail, err := c.GetEstimate(ctx, jobID)
	if err != nil {
		return fmt.Errorf("reading estimate %s: %w", jobID, err)
	}

	ledger := workflow.NewDecisionLedger(c, jobID, o.DecidedBy, detail)

	ctx, cancel := context.WithTimeout(ctx, o.Timeout)
	defer cancel()

	result, err := ledger.Decide(ctx, veID, decision, o.Reason)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s: accepted savings now AED %s of AED %s potential\n",
		veID, decision, formatAED(result.AcceptedSavingsAED), formatAED(result.TotalPotentialSavingsAED))
	return nil
}
