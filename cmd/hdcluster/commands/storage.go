package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/hdcluster/cmd/hdcluster/handlers"
)

// CreateStorage returns the create-storage command.
func CreateStorage(g *handlers.Globals) *cobra.Command {
	var zone string

	cmd := &cobra.Command{
		Use:   "create-storage CLUSTER ROLE NUM_INSTANCES SPEC_FILE",
		Short: "Create persistent volumes for the instances of a role",
		Long: `Create one group of volumes per instance of ROLE, as described for that
role in SPEC_FILE, and record them in the cluster's storage manifest.

SPEC_FILE is JSON or YAML mapping roles to volume lists:

  worker:
    - size_gb: 100
      mount_point: /data
      device: /dev/sdj
      snapshot_id: snap-1234

Example:
  hdcluster create-storage prod worker 10 volumes.yaml --zone us-east-1a`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := positiveArg(args[2], "instance count")
			if err != nil {
				return err
			}
			return handlers.CreateStorage(cmd.Context(), g, args[0], args[1], n, zone, args[3])
		},
	}

	cmd.Flags().StringVarP(&zone, "zone", "z", "", "Availability zone (default: configured placement)")

	return cmd
}

// AttachStorage returns the attach-storage command.
func AttachStorage(g *handlers.Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "attach-storage CLUSTER [ROLE...]",
		Short: "Attach recorded storage to running instances",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.AttachStorage(cmd.Context(), g, args[0], args[1:])
		},
	}
}

// ListStorage returns the list-storage command.
func ListStorage(g *handlers.Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "list-storage CLUSTER",
		Short: "List the recorded volumes of a cluster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.ListStorage(cmd.Context(), g, args[0])
		},
	}
}

// DeleteStorage returns the delete-storage command.
func DeleteStorage(g *handlers.Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete-storage CLUSTER [ROLE...]",
		Short: "Delete the recorded volumes of a cluster",
		Long: `Delete the recorded volumes of the given roles, or of every role. A role
whose volumes are not all available is left untouched.

WARNING: This operation is irreversible.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.DeleteStorage(cmd.Context(), g, args[0], args[1:])
		},
	}

	cmd.Flags().BoolVarP(&g.Force, "force", "f", false, "Do not ask for confirmation")

	return cmd
}

// CreateFormattedSnapshot returns the create-formatted-snapshot command.
func CreateFormattedSnapshot(g *handlers.Globals) *cobra.Command {
	var zone string

	cmd := &cobra.Command{
		Use:   "create-formatted-snapshot CLUSTER SIZE_GB",
		Short: "Create a snapshot of a formatted volume",
		Long: `Start a scratch instance, attach a new volume of SIZE_GB, format it over
SSH and snapshot it. Volumes created from the snapshot need no formatting.
The scratch volume and instance are removed afterwards.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := positiveArg(args[1], "size")
			if err != nil {
				return err
			}
			return handlers.CreateFormattedSnapshot(cmd.Context(), g, args[0], size, zone)
		},
	}

	cmd.Flags().StringVarP(&zone, "zone", "z", "", "Availability zone (default: configured placement)")

	return cmd
}
