// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/imamik/hdcluster/cmd/hdcluster/handlers"
)

// Root returns the root command for the hdcluster CLI.
//
// The persistent flags are shared by every subcommand through a single
// handlers.Globals value.
func Root() *cobra.Command {
	g := &handlers.Globals{}

	cmd := &cobra.Command{
		Use:           "hdcluster",
		Short:         "Launch and manage Hadoop clusters on EC2 or Hetzner Cloud",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&g.ConfigPath, "config", "c", "", "Path to configuration file")
	flags.StringVar(&g.EnvFile, "env-file", ".env", "Path to a dotenv file with credentials")
	flags.BoolVarP(&g.Verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&g.LogFormat, "log-format", "console", "Log format (console or json)")
	flags.StringVar(&g.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")

	// Cluster commands
	cmd.AddCommand(List(g))
	cmd.AddCommand(LaunchCluster(g))
	cmd.AddCommand(LaunchMaster(g))
	cmd.AddCommand(LaunchWorkers(g))
	cmd.AddCommand(WaitForService(g))
	cmd.AddCommand(URL(g))
	cmd.AddCommand(TerminateCluster(g))
	cmd.AddCommand(DeleteCluster(g))

	// Storage commands
	cmd.AddCommand(CreateStorage(g))
	cmd.AddCommand(AttachStorage(g))
	cmd.AddCommand(ListStorage(g))
	cmd.AddCommand(DeleteStorage(g))
	cmd.AddCommand(CreateFormattedSnapshot(g))

	cmd.AddCommand(Version())

	return cmd
}

// positiveArg parses a positional argument that must be a positive integer.
func positiveArg(value, name string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be an integer", name, value)
	}
	if n < 1 {
		return 0, fmt.Errorf("invalid %s %d: must be positive", name, n)
	}
	return n, nil
}
