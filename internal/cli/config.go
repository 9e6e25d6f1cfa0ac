package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meridianqs/estimator-client/internal/client"
)

func NewCmdConfig() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View or update the persisted client configuration.",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
	cmd.AddCommand(newCmdConfigView())
	cmd.AddCommand(newCmdConfigSet())
	return cmd
}

type ConfigOptions struct {
	Path   string
	Output string
}

func defaultConfigOptions() *ConfigOptions {
	return &ConfigOptions{
		Path: client.DefaultClientConfigPath(),
	}
}

func newCmdConfigView() *cobra.Command {
	o := defaultConfigOptions()
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Print the persisted client configuration.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutputFormat(o.Output); err != nil {
				return err
			}
			cfg, err := client.ParseConfigFile(o.Path)
			if err != nil {
				return fmt.Errorf("reading config %s: %w", o.Path, err)
			}
			return printResource(cfg, o.Output)
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&o.Path, "config", o.Path, "Path to the client config file")
	cmd.Flags().StringVarP(&o.Output, "output", "o", o.Output, "Output format. One of: (json, yaml).")
	return cmd
}

func newCmdConfigSet() *cobra.Command {
	o := defaultConfigOptions()
	cmd := &cobra.Command{
		Use:   "set SERVER_URL",
		Short: "Persist the pipeline server address.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := client.NewDefault()
			cfg.Service.Server = args[0]
			if err := cfg.Validate(); err != nil {
				return err
			}
			if current, err := client.ParseConfigFile(o.Path); err == nil && current.Equal(cfg) {
				fmt.Printf("config unchanged, server is already %s\n", cfg.Service.Server)
				return nil
			}
			if err := cfg.Persist(o.Path); err != nil {
				return err
			}
			fmt.Printf("server %s persisted to %s\n", cfg.Service.Server, o.Path)
			return nil
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&o.Path, "config", o.Path, "Path to the client config file")
	return cmd
}
