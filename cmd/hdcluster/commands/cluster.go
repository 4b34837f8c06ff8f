package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/hdcluster/cmd/hdcluster/handlers"
)

// List returns the list command.
func List(g *handlers.Globals) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list [CLUSTER]",
		Short: "List running clusters or the instances of one cluster",
		Long: `List prints the names of all running clusters. Given a cluster name it
prints one line per running instance with its role, ID, image, addresses,
state, key, type, launch time and zone.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return handlers.List(cmd.Context(), g, name, all)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include instances in every state")

	return cmd
}

// LaunchCluster returns the launch-cluster command.
func LaunchCluster(g *handlers.Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "launch-cluster CLUSTER NUM_WORKERS",
		Short: "Launch a coordinator and workers and wait for the service",
		Long: `Launch a cluster: start the coordinator, open its client ports, write the
client configuration, start the workers, attach any recorded storage and
wait until the coordinator reports every worker.

Example:
  hdcluster launch-cluster prod 10`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := positiveArg(args[1], "worker count")
			if err != nil {
				return err
			}
			return handlers.LaunchCluster(cmd.Context(), g, args[0], n)
		},
	}
}

// LaunchMaster returns the launch-master command.
func LaunchMaster(g *handlers.Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "launch-master CLUSTER",
		Short: "Launch the coordinator of a new cluster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.LaunchMaster(cmd.Context(), g, args[0])
		},
	}
}

// LaunchWorkers returns the launch-workers command.
func LaunchWorkers(g *handlers.Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "launch-workers CLUSTER NUM_WORKERS",
		Short: "Add workers to a running cluster",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := positiveArg(args[1], "worker count")
			if err != nil {
				return err
			}
			return handlers.LaunchWorkers(cmd.Context(), g, args[0], n)
		},
	}
}

// WaitForService returns the wait-for-service command.
func WaitForService(g *handlers.Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "wait-for-service CLUSTER NUM_WORKERS",
		Short: "Wait until the coordinator reports the expected workers",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := positiveArg(args[1], "worker count")
			if err != nil {
				return err
			}
			return handlers.WaitForService(cmd.Context(), g, args[0], n)
		},
	}
}

// URL returns the url command.
func URL(g *handlers.Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "url CLUSTER",
		Short: "Print the address of the coordinator's web interface",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.URL(cmd.Context(), g, args[0])
		},
	}
}

// TerminateCluster returns the terminate-cluster command.
func TerminateCluster(g *handlers.Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "terminate-cluster CLUSTER",
		Short: "Terminate all running instances of a cluster",
		Long: `Terminate lists the running instances of the cluster and terminates them
after confirmation. Security groups and storage are kept.

WARNING: Data on instance storage is lost.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.TerminateCluster(cmd.Context(), g, args[0])
		},
	}

	cmd.Flags().BoolVarP(&g.Force, "force", "f", false, "Do not ask for confirmation")

	return cmd
}

// DeleteCluster returns the delete-cluster command.
func DeleteCluster(g *handlers.Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete-cluster CLUSTER",
		Short: "Terminate a cluster and delete its security groups",
		Long: `Delete terminates every instance of the cluster, waits until they are gone
and deletes the cluster and role security groups. Recorded storage is kept;
use delete-storage to remove it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.DeleteCluster(cmd.Context(), g, args[0])
		},
	}

	cmd.Flags().BoolVarP(&g.Force, "force", "f", false, "Do not ask for confirmation")

	return cmd
}
