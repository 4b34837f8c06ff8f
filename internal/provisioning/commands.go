package provisioning

import (
	"fmt"

	"github.com/imamik/hdcluster/internal/cluster"
)

// CoordinatorPhases returns the phases that bring up a usable coordinator.
func CoordinatorPhases() []Phase {
	return []Phase{CoordinatorPhase{}, ClientAccessPhase{}, ClientConfigPhase{}}
}

// LaunchCoordinator starts the coordinator, opens its client ports and
// writes the client configuration.
func LaunchCoordinator(ctx *Context) error {
	return RunPhases(ctx, CoordinatorPhases())
}

// LaunchWorkers starts n workers for the running coordinator.
func LaunchWorkers(ctx *Context, n int) error {
	return RunPhases(ctx, []Phase{WorkersPhase{Count: n}})
}

// LaunchCluster starts a coordinator and n workers, attaches recorded
// storage and waits until the coordinator reports every worker.
func LaunchCluster(ctx *Context, n int) error {
	phases := append(CoordinatorPhases(),
		WorkersPhase{Count: n},
		AttachStoragePhase{Roles: cluster.Roles},
		ServicePhase{Workers: n},
	)
	return RunPhases(ctx, phases)
}

// AttachStorage attaches the recorded storage of roles to their running
// instances.
func AttachStorage(ctx *Context, roles []string) error {
	return RunPhases(ctx, []Phase{AttachStoragePhase{Roles: roles}})
}

// WaitForService waits until the coordinator reports at least n workers and
// returns the last count.
func WaitForService(ctx *Context, n int) (int, error) {
	if err := RunPhases(ctx, []Phase{ServicePhase{Workers: n}}); err != nil {
		return 0, err
	}
	return ctx.State.WorkerCount, nil
}

// CoordinatorURL returns the address of the coordinator's web interface.
func CoordinatorURL(ctx *Context) (string, error) {
	coord, err := ctx.coordinator()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("http://%s/", coord.Address()), nil
}

// TerminateCluster terminates the running instances of the cluster and
// returns their IDs.
func TerminateCluster(ctx *Context) ([]string, error) {
	if err := RunPhases(ctx, []Phase{TerminatePhase{}}); err != nil {
		return nil, err
	}
	return ctx.State.Terminated, nil
}

// DeleteCluster terminates the cluster, waits for its instances to go away
// and deletes its groups.
func DeleteCluster(ctx *Context) error {
	return RunPhases(ctx, []Phase{TerminatePhase{Wait: true}, GroupsPhase{}})
}
