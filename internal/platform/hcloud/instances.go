package hcloud

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/hdcluster/internal/cloud"
	"github.com/imamik/hdcluster/internal/userdata"
	"github.com/imamik/hdcluster/internal/util/labels"
	"github.com/imamik/hdcluster/internal/util/naming"
)

// keyNameLabel records the SSH key a server was launched with, which the
// API does not report back.
const keyNameLabel = "hdcluster.io/key-name"

// RunInstances creates req.Count servers. Every server carries one membership
// label per group plus a shared reservation label.
func (p *Provider) RunInstances(ctx context.Context, req cloud.RunRequest) (cloud.Reservation, error) {
	if req.Count < 1 {
		return cloud.Reservation{}, fmt.Errorf("invalid instance count %d", req.Count)
	}
	if len(req.Groups) == 0 {
		return cloud.Reservation{}, fmt.Errorf("servers need at least one group")
	}

	// Hetzner takes plain-text user data.
	var script []byte
	if len(req.UserData) > 0 {
		var err error
		if script, err = userdata.Decompress(req.UserData); err != nil {
			return cloud.Reservation{}, fmt.Errorf("failed to decode user data: %w", err)
		}
	}

	var sshKeys []*hcloud.SSHKey
	if req.KeyName != "" {
		key, err := p.getSSHKey(ctx, req.KeyName)
		if err != nil {
			return cloud.Reservation{}, err
		}
		sshKeys = append(sshKeys, key)
	}

	reservation := uuid.NewString()
	cluster, role := clusterRole(req.Groups)
	lb := labels.NewLabelBuilder(cluster).
		WithRole(role).
		WithGroups(req.Groups...).
		WithReservation(reservation)
	if req.KeyName != "" {
		lb.Merge(map[string]string{keyNameLabel: req.KeyName})
	}
	serverLabels := lb.Build()

	opts := hcloud.ServerCreateOpts{
		ServerType: &hcloud.ServerType{Name: req.InstanceType},
		Image:      &hcloud.Image{Name: req.ImageID},
		SSHKeys:    sshKeys,
		Labels:     serverLabels,
		UserData:   string(script),
	}
	if req.Placement != "" {
		opts.Location = &hcloud.Location{Name: req.Placement}
	}

	res := cloud.Reservation{ID: reservation, Groups: req.Groups}
	namePrefix := req.Groups[len(req.Groups)-1]
	for range req.Count {
		opts.Name = naming.Server(namePrefix, uuid.NewString()[:8])
		server, err := p.createServer(ctx, opts)
		if err != nil {
			return res, err
		}
		p.log.Info("Created server", "name", server.Name, "id", server.ID, "reservation", reservation)
		res.Instances = append(res.Instances, toInstance(server))
	}
	return res, nil
}

// clusterRole reads the cluster and role from a [cluster, cluster-role]
// group list. Other group lists yield empty strings.
func clusterRole(groups []string) (string, string) {
	if len(groups) < 2 {
		return "", ""
	}
	cluster := groups[0]
	for _, g := range groups[1:] {
		if role, ok := strings.CutPrefix(g, naming.RoleGroup(cluster, "")); ok && role != "" {
			return cluster, role
		}
	}
	return "", ""
}

func (p *Provider) createServer(ctx context.Context, opts hcloud.ServerCreateOpts) (*hcloud.Server, error) {
	var result hcloud.ServerCreateResult
	err := p.do(ctx, "CreateServer", func() error {
		var err error
		result, _, err = p.client.Server.Create(ctx, opts)
		return err
	})
	if err != nil {
		return nil, translate(err, "failed to create server %s", opts.Name)
	}

	actions := append([]*hcloud.Action{result.Action}, result.NextActions...)
	if err := waitForActions(ctx, p.client, slices.DeleteFunc(actions, isNilAction)...); err != nil {
		return nil, fmt.Errorf("failed to wait for server %s: %w", opts.Name, err)
	}
	return result.Server, nil
}

func isNilAction(a *hcloud.Action) bool {
	return a == nil
}

func (p *Provider) getSSHKey(ctx context.Context, name string) (*hcloud.SSHKey, error) {
	var key *hcloud.SSHKey
	err := p.do(ctx, "GetSSHKey", func() error {
		var err error
		key, _, err = p.client.SSHKey.Get(ctx, name)
		return err
	})
	if err != nil {
		return nil, translate(err, "failed to get ssh key %s", name)
	}
	if key == nil {
		return nil, fmt.Errorf("ssh key %s: %w", name, cloud.ErrNotFound)
	}
	return key, nil
}

// DescribeInstances lists hdcluster servers matching filter. Requested IDs
// that do not exist yield an error wrapping cloud.ErrNotFound.
func (p *Provider) DescribeInstances(ctx context.Context, filter cloud.InstanceFilter) ([]cloud.Instance, error) {
	// ID lookups list every server so missing IDs can be told apart from
	// servers outside the group.
	selector := managedSelector(filter.Group)
	if len(filter.IDs) > 0 {
		selector = managedSelector("")
	}

	var servers []*hcloud.Server
	err := p.do(ctx, "ListServers", func() error {
		var err error
		servers, err = p.client.Server.AllWithOpts(ctx, hcloud.ServerListOpts{
			ListOpts: hcloud.ListOpts{LabelSelector: selector},
		})
		return err
	})
	if err != nil {
		return nil, translate(err, "failed to list servers")
	}

	var insts []cloud.Instance
	seen := make(map[string]bool, len(servers))
	for _, s := range servers {
		inst := toInstance(s)
		seen[inst.ID] = true
		if filter.Matches(inst) {
			insts = append(insts, inst)
		}
	}
	for _, id := range filter.IDs {
		if !seen[id] {
			return nil, fmt.Errorf("server %s: %w", id, cloud.ErrNotFound)
		}
	}
	return insts, nil
}

// TerminateInstances deletes the given servers. Servers that are already
// gone are skipped.
func (p *Provider) TerminateInstances(ctx context.Context, ids []string) error {
	var actions []*hcloud.Action
	for _, id := range ids {
		n, err := parseID("server", id)
		if err != nil {
			return err
		}
		var result *hcloud.ServerDeleteResult
		err = p.do(ctx, "DeleteServer", func() error {
			var err error
			result, _, err = p.client.Server.DeleteWithResult(ctx, &hcloud.Server{ID: n})
			return err
		})
		if IsNotFound(err) {
			continue
		}
		if err != nil {
			return translate(err, "failed to delete server %s", id)
		}
		if result != nil && result.Action != nil {
			actions = append(actions, result.Action)
		}
	}
	if err := waitForActions(ctx, p.client, actions...); err != nil {
		return fmt.Errorf("failed to wait for server deletion: %w", err)
	}
	return nil
}
