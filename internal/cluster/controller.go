package cluster

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/go-logr/logr"

	"github.com/imamik/hdcluster/internal/cloud"
	"github.com/imamik/hdcluster/internal/readiness"
	"github.com/imamik/hdcluster/internal/userdata"
	"github.com/imamik/hdcluster/internal/util/naming"
)

// Controller manages one named cluster.
type Controller struct {
	provider cloud.Provider
	name     string
	renderer *userdata.Renderer
	poller   readiness.Poller
	log      logr.Logger
}

// NewController returns a controller for the cluster called name. renderer
// may be nil when the controller is not used to launch instances.
func NewController(provider cloud.Provider, name string, renderer *userdata.Renderer, poller readiness.Poller, log logr.Logger) *Controller {
	return &Controller{
		provider: provider,
		name:     name,
		renderer: renderer,
		poller:   poller,
		log:      log.WithName("cluster").WithValues("cluster", name),
	}
}

// Name returns the cluster name.
func (c *Controller) Name() string { return c.name }

// ClusterGroup returns the name of the cluster-wide group.
func (c *Controller) ClusterGroup() string { return naming.ClusterGroup(c.name) }

// RoleGroup returns the name of role's group.
func (c *Controller) RoleGroup(role string) string { return naming.RoleGroup(c.name, role) }

// GroupNames returns the groups an instance of role is launched into.
func (c *Controller) GroupNames(role string) []string {
	return []string{c.ClusterGroup(), c.RoleGroup(role)}
}

func (c *Controller) existingGroups(ctx context.Context) (map[string]bool, error) {
	groups, err := c.provider.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	names := make(map[string]bool, len(groups))
	for _, g := range groups {
		names[g.Name] = true
	}
	return names, nil
}

// EnsureGroups creates the cluster group and role's group if missing. A newly
// created cluster group admits traffic from its own members and SSH from
// anywhere.
func (c *Controller) EnsureGroups(ctx context.Context, role string) error {
	existing, err := c.existingGroups(ctx)
	if err != nil {
		return err
	}

	clusterGroup := c.ClusterGroup()
	if !existing[clusterGroup] {
		c.log.Info("Creating cluster group", "group", clusterGroup)
		if _, err := c.provider.CreateGroup(ctx, clusterGroup, fmt.Sprintf("Cluster (%s)", c.name)); err != nil {
			return fmt.Errorf("failed to create group %s: %w", clusterGroup, err)
		}
		if err := c.provider.AuthorizeIngress(ctx, clusterGroup, cloud.GroupRule(clusterGroup)); err != nil {
			if !errors.Is(err, cloud.ErrUnsupported) {
				return fmt.Errorf("failed to authorize intra-cluster traffic: %w", err)
			}
			c.log.Info("Provider cannot express group-sourced rules, skipping intra-cluster rule", "group", clusterGroup)
		}
		if err := c.provider.AuthorizeIngress(ctx, clusterGroup, cloud.TCPRule(22, 22, "0.0.0.0/0")); err != nil {
			return fmt.Errorf("failed to authorize ssh: %w", err)
		}
	}

	roleGroup := c.RoleGroup(role)
	if !existing[roleGroup] {
		c.log.Info("Creating role group", "group", roleGroup)
		if _, err := c.provider.CreateGroup(ctx, roleGroup, fmt.Sprintf("%s (%s)", role, c.name)); err != nil {
			return fmt.Errorf("failed to create group %s: %w", roleGroup, err)
		}
	}
	return nil
}

// AuthorizeRole admits tcp traffic on fromPort-toPort from cidr to role's
// instances. Any identical rule is revoked first so the call is repeatable.
func (c *Controller) AuthorizeRole(ctx context.Context, role string, fromPort, toPort int, cidr string) error {
	group := c.RoleGroup(role)
	rule := cloud.TCPRule(fromPort, toPort, cidr)
	if err := c.provider.RevokeIngress(ctx, group, rule); err != nil {
		return fmt.Errorf("failed to revoke %d-%d from %s on %s: %w", fromPort, toPort, cidr, group, err)
	}
	if err := c.provider.AuthorizeIngress(ctx, group, rule); err != nil {
		return fmt.Errorf("failed to authorize %d-%d from %s on %s: %w", fromPort, toPort, cidr, group, err)
	}
	c.log.V(1).Info("Authorized ingress", "group", group, "from", fromPort, "to", toPort, "cidr", cidr)
	return nil
}

// DeleteGroups deletes roles' groups and then the cluster group, skipping
// those that do not exist. Instances must be terminated first.
func (c *Controller) DeleteGroups(ctx context.Context, roles []string) error {
	existing, err := c.existingGroups(ctx)
	if err != nil {
		return err
	}
	for _, role := range roles {
		group := c.RoleGroup(role)
		if !existing[group] {
			continue
		}
		c.log.Info("Deleting group", "group", group)
		if err := c.provider.DeleteGroup(ctx, group); err != nil {
			return fmt.Errorf("failed to delete group %s: %w", group, err)
		}
	}
	if clusterGroup := c.ClusterGroup(); existing[clusterGroup] {
		c.log.Info("Deleting group", "group", clusterGroup)
		if err := c.provider.DeleteGroup(ctx, clusterGroup); err != nil {
			return fmt.Errorf("failed to delete group %s: %w", clusterGroup, err)
		}
	}
	return nil
}

// LaunchRequest describes instances to launch in a role.
type LaunchRequest struct {
	Role          string
	Count         int
	ImageID       string
	KeyName       string
	InstanceType  string
	Placement     string
	Substitutions map[string]*string
}

// LaunchInstances ensures the groups of the role exist, renders the user data
// and requests the instances. It returns as soon as the provider accepted the
// request; the instances are typically still pending.
func (c *Controller) LaunchInstances(ctx context.Context, req LaunchRequest) (cloud.Reservation, error) {
	if req.Count < 1 {
		return cloud.Reservation{}, fmt.Errorf("instance count must be positive, got %d", req.Count)
	}
	if c.renderer == nil {
		return cloud.Reservation{}, fmt.Errorf("no user data template configured")
	}
	if err := c.EnsureGroups(ctx, req.Role); err != nil {
		return cloud.Reservation{}, err
	}
	userData, err := c.renderer.RenderCompressed(req.Substitutions)
	if err != nil {
		return cloud.Reservation{}, err
	}

	c.log.Info("Launching instances", "role", req.Role, "count", req.Count,
		"image", req.ImageID, "type", req.InstanceType, "placement", req.Placement)
	res, err := c.provider.RunInstances(ctx, cloud.RunRequest{
		ImageID:      req.ImageID,
		KeyName:      req.KeyName,
		InstanceType: req.InstanceType,
		Placement:    req.Placement,
		Count:        req.Count,
		Groups:       c.GroupNames(req.Role),
		UserData:     userData,
	})
	if err != nil {
		return cloud.Reservation{}, fmt.Errorf("failed to launch %s instances: %w", req.Role, err)
	}
	return res, nil
}

// WaitForInstances blocks until every instance of res is running, the poller
// gives up or ctx ends.
func (c *Controller) WaitForInstances(ctx context.Context, res cloud.Reservation) ([]cloud.Instance, error) {
	ids := res.InstanceIDs()
	if len(ids) == 0 {
		return nil, nil
	}
	insts, err := readiness.Until(ctx, c.poller, func(ctx context.Context) ([]cloud.Instance, error) {
		return c.provider.DescribeInstances(ctx, cloud.InstanceFilter{IDs: ids})
	}, func(insts []cloud.Instance) bool {
		return allRunning(insts, ids)
	})
	if err != nil {
		return nil, fmt.Errorf("waiting for reservation %s: %w", res.ID, err)
	}
	return insts, nil
}

func allRunning(insts []cloud.Instance, ids []string) bool {
	seen := 0
	for _, inst := range insts {
		if !slices.Contains(ids, inst.ID) {
			continue
		}
		if inst.State != cloud.InstanceRunning {
			return false
		}
		seen++
	}
	return seen == len(ids)
}

// InstancesInGroup returns the members of group, filtered by state unless
// state is empty.
func (c *Controller) InstancesInGroup(ctx context.Context, group string, state cloud.InstanceState) ([]cloud.Instance, error) {
	insts, err := c.provider.DescribeInstances(ctx, cloud.InstanceFilter{Group: group})
	if err != nil {
		return nil, fmt.Errorf("failed to describe instances in %s: %w", group, err)
	}
	out := []cloud.Instance{}
	for _, inst := range insts {
		if !inst.InGroup(group) {
			continue
		}
		if state != "" && inst.State != state {
			continue
		}
		out = append(out, inst)
	}
	return out, nil
}

// InstancesInRole returns role's instances, filtered by state unless state is
// empty.
func (c *Controller) InstancesInRole(ctx context.Context, role string, state cloud.InstanceState) ([]cloud.Instance, error) {
	return c.InstancesInGroup(ctx, c.RoleGroup(role), state)
}

// CheckRunning returns role's running instances if there are exactly n of
// them, and a *CountMismatchError otherwise.
func (c *Controller) CheckRunning(ctx context.Context, role string, n int) ([]cloud.Instance, error) {
	insts, err := c.InstancesInRole(ctx, role, cloud.InstanceRunning)
	if err != nil {
		return nil, err
	}
	if len(insts) != n {
		c.log.Info("Warning: unexpected number of running instances", "role", role, "expected", n, "actual", len(insts))
		return nil, &CountMismatchError{Role: role, Expected: n, Actual: len(insts)}
	}
	return insts, nil
}

// Terminate terminates every running instance of the cluster.
func (c *Controller) Terminate(ctx context.Context) ([]string, error) {
	insts, err := c.InstancesInGroup(ctx, c.ClusterGroup(), cloud.InstanceRunning)
	if err != nil {
		return nil, err
	}
	if len(insts) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(insts))
	for _, inst := range insts {
		ids = append(ids, inst.ID)
	}
	c.log.Info("Terminating instances", "count", len(ids))
	if err := c.provider.TerminateInstances(ctx, ids); err != nil {
		return nil, fmt.Errorf("failed to terminate instances: %w", err)
	}
	return ids, nil
}

// InstanceStatus is an instance tagged with its role.
type InstanceStatus struct {
	Role     string
	Instance cloud.Instance
}

// Status lists roles' instances in the given state, or all states when state
// is empty.
func (c *Controller) Status(ctx context.Context, roles []string, state cloud.InstanceState) ([]InstanceStatus, error) {
	var out []InstanceStatus
	for _, role := range roles {
		insts, err := c.InstancesInRole(ctx, role, state)
		if err != nil {
			return nil, err
		}
		for _, inst := range insts {
			out = append(out, InstanceStatus{Role: role, Instance: inst})
		}
	}
	return out, nil
}
