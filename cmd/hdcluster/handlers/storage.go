package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/imamik/hdcluster/internal/cluster"
	"github.com/imamik/hdcluster/internal/provisioning"
	"github.com/imamik/hdcluster/internal/readiness"
	"github.com/imamik/hdcluster/internal/storage"
)

// CreateStorage creates one volume group per instance of role from the
// volume spec file and records them in the cluster's manifest. An empty zone
// falls back to the configured placement.
func CreateStorage(ctx context.Context, g *Globals, name, role string, count int, zone, specFile string) error {
	if count < 1 {
		return fmt.Errorf("instance count must be positive, got %d", count)
	}
	specs, err := storage.LoadSpecs(specFile)
	if err != nil {
		return err
	}
	volumes, err := specs.ForRole(role)
	if err != nil {
		return err
	}
	return withSession(ctx, g, func(s *session) error {
		if zone == "" {
			zone = s.cfg.Instance.Placement
		}
		if zone == "" {
			return fmt.Errorf("no availability zone given or configured")
		}
		orch, err := s.orchestrator(ctx, name)
		if err != nil {
			return err
		}
		if err := orch.CreateVolumes(ctx, role, count, zone, volumes); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Created %d volume groups for role %s in cluster %s\n", count, role, name)
		return nil
	})
}

// AttachStorage attaches recorded storage to the running instances of roles.
// With no roles every role is attached.
func AttachStorage(ctx context.Context, g *Globals, name string, roles []string) error {
	if len(roles) == 0 {
		roles = cluster.Roles
	}
	return withCommand(ctx, g, name, func(pctx *provisioning.Context) error {
		if err := provisioning.AttachStorage(pctx, roles); err != nil {
			return err
		}
		for _, role := range roles {
			res, ok := pctx.State.Attached[role]
			if !ok {
				continue
			}
			fmt.Fprintf(stdout, "%s: attached %d volume groups\n", role, len(res.Pairs))
			if len(res.UnmatchedInstances) > 0 {
				fmt.Fprintf(stdout, "%s: no storage for instances %s\n", role, strings.Join(res.UnmatchedInstances, ", "))
			}
			if len(res.UnmatchedGroups) > 0 {
				fmt.Fprintf(stdout, "%s: %d volume groups left unattached\n", role, len(res.UnmatchedGroups))
			}
		}
		return nil
	})
}

// ListStorage prints the recorded volumes of every role.
func ListStorage(ctx context.Context, g *Globals, name string) error {
	return withSession(ctx, g, func(s *session) error {
		orch, err := s.orchestrator(ctx, name)
		if err != nil {
			return err
		}
		statuses, err := orch.Status(ctx, cluster.Roles)
		if err != nil {
			return err
		}
		if len(statuses) == 0 {
			fmt.Fprintf(stdout, "No storage recorded for cluster %s\n", name)
			return nil
		}
		printVolumes(stdout, statuses, interactive())
		return nil
	})
}

// DeleteStorage deletes the recorded volumes of roles after confirmation. A
// role with volumes still in use is left untouched.
func DeleteStorage(ctx context.Context, g *Globals, name string, roles []string) error {
	if len(roles) == 0 {
		roles = cluster.Roles
	}
	return withSession(ctx, g, func(s *session) error {
		orch, err := s.orchestrator(ctx, name)
		if err != nil {
			return err
		}
		has, err := orch.HasAnyStorage(ctx, roles)
		if err != nil {
			return err
		}
		if !has {
			fmt.Fprintf(stdout, "No storage recorded for cluster %s\n", name)
			return nil
		}
		prompt := fmt.Sprintf("Delete storage of %s in cluster %s?", strings.Join(roles, ", "), name)
		if err := confirmDestructive(ctx, g, prompt); err != nil {
			return err
		}

		var blocked []string
		for _, role := range roles {
			res, err := orch.Delete(ctx, role)
			if err != nil {
				return err
			}
			switch {
			case len(res.InUse) > 0:
				blocked = append(blocked, role)
				fmt.Fprintf(stdout, "%s: volumes still in use: %s\n", role, strings.Join(res.InUse, ", "))
			case res.Deleted:
				fmt.Fprintf(stdout, "%s: storage deleted\n", role)
			default:
				fmt.Fprintf(stdout, "%s: no storage recorded\n", role)
			}
		}
		if len(blocked) > 0 {
			return fmt.Errorf("storage of %s is still in use", strings.Join(blocked, ", "))
		}
		return nil
	})
}

// CreateFormattedSnapshot creates a snapshot of a freshly formatted volume of
// sizeGB. An empty zone falls back to the configured placement.
func CreateFormattedSnapshot(ctx context.Context, g *Globals, name string, sizeGB int, zone string) error {
	if sizeGB < 1 {
		return fmt.Errorf("snapshot size must be positive, got %d", sizeGB)
	}
	return withSession(ctx, g, func(s *session) error {
		if zone == "" {
			zone = s.cfg.Instance.Placement
		}
		runner, err := newRunner(s.cfg.SSH, s.cfg.Timeouts)
		if err != nil {
			return fmt.Errorf("failed to create ssh client: %w", err)
		}
		orch, err := s.orchestrator(ctx, name)
		if err != nil {
			return err
		}
		snap, err := orch.CreateFormattedSnapshot(ctx, storage.SnapshotRequest{
			SizeGB:       sizeGB,
			Zone:         zone,
			ImageID:      s.cfg.Instance.Image,
			KeyName:      s.cfg.Instance.KeyName,
			InstanceType: s.cfg.Instance.Type,
			SettleDelay:  s.cfg.Timeouts.SnapshotSettle,
			Poller: readiness.Poller{
				Interval:  s.cfg.Timeouts.PollInterval,
				Timeout:   s.cfg.Timeouts.VolumeWait,
				OnAttempt: s.recorder.OnAttempt("snapshot"),
			},
			Runner: runner,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Created snapshot %s\n", snap.ID)
		return nil
	})
}
