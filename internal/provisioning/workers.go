package provisioning

import (
	"fmt"

	"github.com/imamik/hdcluster/internal/cloud"
	"github.com/imamik/hdcluster/internal/cluster"
	"github.com/imamik/hdcluster/internal/readiness"
)

// WorkersPhase launches Count workers next to the running coordinator. The
// workers inherit the coordinator's image, key, type and placement and are
// told its address through MASTER_HOST.
type WorkersPhase struct {
	Count int
}

// Name implements Phase.
func (WorkersPhase) Name() string { return "workers" }

// Provision implements Phase.
func (p WorkersPhase) Provision(ctx *Context) error {
	if p.Count < 1 {
		return fmt.Errorf("worker count must be positive, got %d", p.Count)
	}
	coord, err := ctx.coordinator()
	if err != nil {
		return err
	}

	env, err := ctx.envString(cluster.RoleWorker, map[string]string{"MASTER_HOST": coord.Address()})
	if err != nil {
		return err
	}

	LogResourceCreating(ctx.Observer, "workers", "instance", ctx.Cluster.RoleGroup(cluster.RoleWorker))
	res, err := ctx.Cluster.LaunchInstances(ctx, cluster.LaunchRequest{
		Role:          cluster.RoleWorker,
		Count:         p.Count,
		ImageID:       coord.ImageID,
		KeyName:       coord.KeyName,
		InstanceType:  coord.InstanceType,
		Placement:     coord.Placement,
		Substitutions: map[string]*string{"ENV": &env},
	})
	if err != nil {
		return err
	}

	ctx.Observer.Printf("Waiting for %d workers to start (%s)", p.Count, res.ID)
	insts, err := ctx.Cluster.WaitForInstances(ctx, res)
	if err != nil {
		return err
	}
	ctx.State.Workers = insts
	for _, inst := range insts {
		LogResourceCreated(ctx.Observer, "workers", "instance", inst.Address(), inst.ID)
	}
	return nil
}

// AttachStoragePhase attaches each role's recorded storage to its running
// instances after a settle delay. Roles without storage are skipped.
type AttachStoragePhase struct {
	Roles []string
}

// Name implements Phase.
func (AttachStoragePhase) Name() string { return "storage" }

// Provision implements Phase.
func (p AttachStoragePhase) Provision(ctx *Context) error {
	has, err := ctx.Storage.HasAnyStorage(ctx, p.Roles)
	if err != nil {
		return err
	}
	if !has {
		ctx.Observer.Printf("No storage recorded for %v", p.Roles)
		return nil
	}

	if settle := ctx.Timeouts.AttachSettle; settle > 0 {
		ctx.Observer.Printf("Waiting %v before attaching storage", settle)
		if err := ctx.Sleep(ctx, settle); err != nil {
			return err
		}
	}

	for _, role := range p.Roles {
		insts, err := ctx.Cluster.InstancesInRole(ctx, role, cloud.InstanceRunning)
		if err != nil {
			return err
		}
		res, err := ctx.Storage.Attach(ctx, role, insts)
		if err != nil {
			return fmt.Errorf("failed to attach %s storage: %w", role, err)
		}
		ctx.State.Attached[role] = res
		ctx.Observer.WithFields(map[string]string{"role": role}).Printf(
			"Attached %d volume groups (%d instances and %d groups unmatched)",
			len(res.Pairs), len(res.UnmatchedInstances), len(res.UnmatchedGroups))
	}
	return nil
}

// ServicePhase waits until the coordinator answers and reports at least
// Workers workers.
type ServicePhase struct {
	Workers int
}

// Name implements Phase.
func (ServicePhase) Name() string { return "service" }

// Provision implements Phase.
func (p ServicePhase) Provision(ctx *Context) error {
	coord, err := ctx.coordinator()
	if err != nil {
		return err
	}

	host := coord.Address()
	ctx.Observer.Printf("Waiting for the coordinator service on %s", host)
	n, err := readiness.WaitForService(ctx, ctx.Poller("service", ctx.Timeouts.ServiceWait), ctx.NewProbe(host), p.Workers,
		func(count int) { ctx.Observer.Progress("service", count, p.Workers) })
	if err != nil {
		return err
	}
	ctx.State.WorkerCount = n
	ctx.Observer.Printf("Coordinator reports %d workers", n)
	return nil
}
