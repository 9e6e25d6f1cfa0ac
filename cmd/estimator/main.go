package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/meridianqs/estimator-client/internal/cli"
	"github.com/meridianqs/estimator-client/internal/config"
	"github.com/meridianqs/estimator-client/pkg/log"
)

func main() {
	level := "info"
	if cfg, err := config.New(); err == nil {
		level = cfg.Service.LogLevel
	}
	_, teardown := log.InitFromLevel(level)
	defer teardown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	command := NewEstimatorCommand()
	if err := command.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func NewEstimatorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimator [flags] [options]",
		Short: "estimator tracks and steers estimation jobs on the pipeline.",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
			os.Exit(1)
		},
	}
	cmd.AddCommand(cli.NewCmdWatch())
	cmd.AddCommand(cli.NewCmdDetail())
	cmd.AddCommand(cli.NewCmdApprove())
	cmd.AddCommand(cli.NewCmdVE())
	cmd.AddCommand(cli.NewCmdRFI())
	cmd.AddCommand(cli.NewCmdConfig())
	cmd.AddCommand(cli.NewCmdVersion())

	return cmd
}
