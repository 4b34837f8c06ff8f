package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/hdcluster/internal/cloud"
	"github.com/imamik/hdcluster/internal/cluster"
	"github.com/imamik/hdcluster/internal/provisioning"
)

// List prints the running clusters, or the instances of one cluster when a
// name is given. With all set, instances in every state are listed.
func List(ctx context.Context, g *Globals, name string, all bool) error {
	return withSession(ctx, g, func(s *session) error {
		styled := interactive()
		if name == "" {
			names, err := cluster.ListClusters(ctx, s.provider, cluster.RoleCoordinator)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(stdout, "No running clusters")
				return nil
			}
			printTitle(stdout, "Running clusters:", styled)
			for _, n := range names {
				fmt.Fprintln(stdout, n)
			}
			return nil
		}

		controller, err := s.controller(name)
		if err != nil {
			return err
		}
		state := cloud.InstanceRunning
		if all {
			state = ""
		}
		statuses, err := controller.Status(ctx, cluster.Roles, state)
		if err != nil {
			return err
		}
		if len(statuses) == 0 {
			fmt.Fprintf(stdout, "No instances in cluster %s\n", name)
			return nil
		}
		printInstances(stdout, statuses, styled)
		return nil
	})
}

// LaunchCluster starts a coordinator and workers, attaches recorded storage
// and waits for the service.
func LaunchCluster(ctx context.Context, g *Globals, name string, workers int) error {
	return withCommand(ctx, g, name, func(pctx *provisioning.Context) error {
		if err := provisioning.LaunchCluster(pctx, workers); err != nil {
			return err
		}
		printLaunched(pctx)
		return nil
	})
}

// LaunchMaster starts the coordinator of a new cluster.
func LaunchMaster(ctx context.Context, g *Globals, name string) error {
	return withCommand(ctx, g, name, func(pctx *provisioning.Context) error {
		if err := provisioning.LaunchCoordinator(pctx); err != nil {
			return err
		}
		printLaunched(pctx)
		return nil
	})
}

// LaunchWorkers adds workers to a running cluster.
func LaunchWorkers(ctx context.Context, g *Globals, name string, workers int) error {
	return withCommand(ctx, g, name, func(pctx *provisioning.Context) error {
		if err := provisioning.LaunchWorkers(pctx, workers); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Launched %d workers in cluster %s\n", len(pctx.State.Workers), name)
		return nil
	})
}

// WaitForService waits until the coordinator reports the expected workers.
func WaitForService(ctx context.Context, g *Globals, name string, workers int) error {
	return withCommand(ctx, g, name, func(pctx *provisioning.Context) error {
		n, err := provisioning.WaitForService(pctx, workers)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Cluster %s is ready with %d workers\n", name, n)
		return nil
	})
}

// URL prints the address of the coordinator's web interface.
func URL(ctx context.Context, g *Globals, name string) error {
	return withCommand(ctx, g, name, func(pctx *provisioning.Context) error {
		url, err := provisioning.CoordinatorURL(pctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Browse the cluster at %s\n", url)
		return nil
	})
}

// TerminateCluster terminates every running instance of the cluster after
// confirmation.
func TerminateCluster(ctx context.Context, g *Globals, name string) error {
	return withSession(ctx, g, func(s *session) error {
		pctx, err := s.provisioningContext(ctx, name)
		if err != nil {
			return err
		}
		statuses, err := pctx.Cluster.Status(ctx, cluster.Roles, cloud.InstanceRunning)
		if err != nil {
			return err
		}
		if len(statuses) == 0 {
			fmt.Fprintf(stdout, "No running instances in cluster %s\n", name)
			return nil
		}
		printInstances(stdout, statuses, interactive())
		if err := confirmDestructive(ctx, g, fmt.Sprintf("Terminate all instances in cluster %s?", name)); err != nil {
			return err
		}
		ids, err := provisioning.TerminateCluster(pctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Terminated %d instances in cluster %s\n", len(ids), name)
		return nil
	})
}

// DeleteCluster terminates the cluster and deletes its groups after
// confirmation.
func DeleteCluster(ctx context.Context, g *Globals, name string) error {
	if err := confirmDestructive(ctx, g, fmt.Sprintf("Delete cluster %s and its security groups?", name)); err != nil {
		return err
	}
	return withCommand(ctx, g, name, func(pctx *provisioning.Context) error {
		if err := provisioning.DeleteCluster(pctx); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Deleted cluster %s\n", name)
		return nil
	})
}

// withCommand runs fn with the provisioning context of the named cluster.
func withCommand(ctx context.Context, g *Globals, name string, fn func(*provisioning.Context) error) error {
	return withSession(ctx, g, func(s *session) error {
		pctx, err := s.provisioningContext(ctx, name)
		if err != nil {
			return err
		}
		return fn(pctx)
	})
}

func printLaunched(pctx *provisioning.Context) {
	if coord := pctx.State.Coordinator; coord != nil {
		fmt.Fprintf(stdout, "Browse the cluster at http://%s/\n", coord.Address())
	}
	if pctx.State.ClientConfigPath != "" {
		fmt.Fprintf(stdout, "Client configuration written to %s\n", pctx.State.ClientConfigPath)
	}
}
