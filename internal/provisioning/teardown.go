package provisioning

import (
	"context"
	"slices"

	"github.com/imamik/hdcluster/internal/cloud"
	"github.com/imamik/hdcluster/internal/cluster"
	"github.com/imamik/hdcluster/internal/readiness"
)

// TerminatePhase terminates every running instance of the cluster. With
// Wait it blocks until the provider reports them terminated or gone.
type TerminatePhase struct {
	Wait bool
}

// Name implements Phase.
func (TerminatePhase) Name() string { return "terminate" }

// Provision implements Phase.
func (p TerminatePhase) Provision(ctx *Context) error {
	ids, err := ctx.Cluster.Terminate(ctx)
	if err != nil {
		return err
	}
	ctx.State.Terminated = ids
	if len(ids) == 0 {
		ctx.Observer.Printf("No running instances in cluster %s", ctx.Cluster.Name())
		return nil
	}
	for _, id := range ids {
		LogResourceDeleting(ctx.Observer, "terminate", "instance", id)
	}
	if !p.Wait {
		return nil
	}

	group := ctx.Cluster.ClusterGroup()
	_, err = readiness.Until(ctx, ctx.Poller("termination", ctx.Timeouts.InstanceWait),
		func(c context.Context) ([]cloud.Instance, error) {
			return ctx.Cluster.InstancesInGroup(c, group, "")
		},
		func(insts []cloud.Instance) bool {
			for _, inst := range insts {
				if slices.Contains(ids, inst.ID) && inst.State != cloud.InstanceTerminated {
					return false
				}
			}
			return true
		})
	if err != nil {
		return err
	}
	for _, id := range ids {
		LogResourceDeleted(ctx.Observer, "terminate", "instance", id)
	}
	return nil
}

// GroupsPhase deletes the role groups and the cluster group.
type GroupsPhase struct{}

// Name implements Phase.
func (GroupsPhase) Name() string { return "groups" }

// Provision implements Phase.
func (GroupsPhase) Provision(ctx *Context) error {
	LogResourceDeleting(ctx.Observer, "groups", "group", ctx.Cluster.ClusterGroup())
	if err := ctx.Cluster.DeleteGroups(ctx, cluster.Roles); err != nil {
		return err
	}
	LogResourceDeleted(ctx.Observer, "groups", "group", ctx.Cluster.ClusterGroup())
	return nil
}
