package provisioning

import (
	"errors"
	"fmt"
	"maps"
	"net"

	"github.com/imamik/hdcluster/internal/clientconfig"
	"github.com/imamik/hdcluster/internal/cluster"
	"github.com/imamik/hdcluster/internal/userdata"
)

// WebPort is the coordinator's web server port opened to clients.
const WebPort = 80

// CoordinatorPhase launches the coordinator and waits until it runs. It
// refuses to start a second coordinator.
type CoordinatorPhase struct{}

// Name implements Phase.
func (CoordinatorPhase) Name() string { return "coordinator" }

// Provision implements Phase.
func (CoordinatorPhase) Provision(ctx *Context) error {
	if _, err := ctx.Cluster.CheckRunning(ctx, cluster.RoleCoordinator, 0); err != nil {
		if errors.Is(err, cluster.ErrCountMismatch) {
			return fmt.Errorf("cluster %s: %w", ctx.Cluster.Name(), cluster.ErrAlreadyRunning)
		}
		return err
	}

	env, err := ctx.envString(cluster.RoleCoordinator, nil)
	if err != nil {
		return err
	}

	inst := ctx.Config.Instance
	LogResourceCreating(ctx.Observer, "coordinator", "instance", ctx.Cluster.RoleGroup(cluster.RoleCoordinator))
	res, err := ctx.Cluster.LaunchInstances(ctx, cluster.LaunchRequest{
		Role:          cluster.RoleCoordinator,
		Count:         1,
		ImageID:       inst.Image,
		KeyName:       inst.KeyName,
		InstanceType:  inst.Type,
		Placement:     inst.Placement,
		Substitutions: map[string]*string{"ENV": &env},
	})
	if err != nil {
		return err
	}

	ctx.Observer.Printf("Waiting for coordinator to start (%s)", res.ID)
	if _, err := ctx.Cluster.WaitForInstances(ctx, res); err != nil {
		return err
	}

	insts, err := ctx.Cluster.CheckRunning(ctx, cluster.RoleCoordinator, 1)
	if err != nil {
		return err
	}
	ctx.State.Coordinator = &insts[0]
	LogResourceCreated(ctx.Observer, "coordinator", "instance", insts[0].Address(), insts[0].ID)
	return nil
}

// ClientAccessPhase opens the coordinator's web ports to the client CIDRs
// and its filesystem and scheduler ports to its own public address. Without
// configured CIDRs the public address of this machine is used.
type ClientAccessPhase struct{}

// Name implements Phase.
func (ClientAccessPhase) Name() string { return "client-access" }

// Provision implements Phase.
func (ClientAccessPhase) Provision(ctx *Context) error {
	coord, err := ctx.coordinator()
	if err != nil {
		return err
	}

	cidrs := ctx.Config.ClientCIDRs
	if len(cidrs) == 0 {
		ip, err := ctx.PublicIP.GetPublicIP(ctx)
		if err != nil {
			return fmt.Errorf("no client CIDRs configured and the local address is unknown: %w", err)
		}
		cidrs = []string{hostCIDR(ip)}
	}
	ctx.Observer.WithFields(map[string]string{"cidrs": fmt.Sprint(cidrs)}).Printf("Authorizing client access")

	for _, cidr := range cidrs {
		if err := ctx.Cluster.AuthorizeRole(ctx, cluster.RoleCoordinator, WebPort, WebPort, cidr); err != nil {
			return err
		}
		port := ctx.Config.Service.Port
		if err := ctx.Cluster.AuthorizeRole(ctx, cluster.RoleCoordinator, port, port, cidr); err != nil {
			return err
		}
	}

	ip, err := ctx.resolve(coord.Address())
	if err != nil {
		return err
	}
	if err := ctx.Cluster.AuthorizeRole(ctx, cluster.RoleCoordinator,
		clientconfig.FilesystemPort, clientconfig.SchedulerPort, hostCIDR(ip)); err != nil {
		return err
	}
	ctx.State.ClientCIDRs = cidrs
	return nil
}

// ClientConfigPhase writes the client site configuration of the cluster.
type ClientConfigPhase struct{}

// Name implements Phase.
func (ClientConfigPhase) Name() string { return "client-config" }

// Provision implements Phase.
func (ClientConfigPhase) Provision(ctx *Context) error {
	coord, err := ctx.coordinator()
	if err != nil {
		return err
	}
	conf := clientconfig.New(coord.Address(), clientconfig.Credentials{
		AccessKeyID:     ctx.Config.Credentials.AWSAccessKeyID,
		SecretAccessKey: ctx.Config.Credentials.AWSSecretAccessKey,
	})
	path, err := clientconfig.Write(ctx.Config.StateDir, ctx.Cluster.Name(), conf)
	if err != nil {
		return err
	}
	ctx.State.ClientConfigPath = path
	ctx.Observer.Printf("Wrote client configuration to %s", path)
	return nil
}

// envString renders the %ENV% substitution for role. Storage mappings are
// included when the role has any storage.
func (c *Context) envString(role string, extra map[string]string) (string, error) {
	mappings := ""
	has, err := c.Storage.HasAnyStorage(c, []string{role})
	if err != nil {
		return "", err
	}
	if has {
		if mappings, err = c.Storage.MappingsString(c, role); err != nil {
			return "", err
		}
	}

	pairs := map[string]string{
		"USER_PACKAGES": c.Config.Bootstrap.UserPackages,
		"AUTO_SHUTDOWN": c.Config.Bootstrap.AutoShutdown,
		"EBS_MAPPINGS":  mappings,
	}
	maps.Copy(pairs, extra)

	forwarded := []userdata.EnvVar{
		{Name: "AWS_ACCESS_KEY_ID", Value: c.Config.Credentials.AWSAccessKeyID},
		{Name: "AWS_SECRET_ACCESS_KEY", Value: c.Config.Credentials.AWSSecretAccessKey},
	}
	return userdata.EnvString(forwarded, c.Config.Bootstrap.Env, pairs), nil
}

// resolve returns an address of host, preferring IPv4.
func (c *Context) resolve(host string) (string, error) {
	if host == "" {
		return "", fmt.Errorf("coordinator has no public address")
	}
	addrs, err := c.Resolver.LookupHost(c, host)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", host, err)
	}
	for _, a := range addrs {
		if ip := net.ParseIP(a); ip != nil && ip.To4() != nil {
			return a, nil
		}
	}
	if len(addrs) == 0 {
		return "", fmt.Errorf("failed to resolve %s: no addresses", host)
	}
	return addrs[0], nil
}

func hostCIDR(ip string) string {
	if parsed := net.ParseIP(ip); parsed != nil && parsed.To4() == nil {
		return ip + "/128"
	}
	return ip + "/32"
}
