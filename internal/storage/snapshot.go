package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/imamik/hdcluster/internal/cloud"
	"github.com/imamik/hdcluster/internal/readiness"
)

// ScratchDevice is the device a scratch volume is attached at for formatting.
const ScratchDevice = "/dev/sdj"

// Runner executes a shell command on a remote host.
type Runner interface {
	Run(ctx context.Context, host, command string) (string, error)
}

// SnapshotRequest describes a formatted snapshot to create.
type SnapshotRequest struct {
	SizeGB       int
	Zone         string
	ImageID      string
	KeyName      string
	InstanceType string
	Groups       []string
	// SettleDelay is how long to wait after the scratch instance is running
	// before attaching the volume.
	SettleDelay time.Duration
	Poller      readiness.Poller
	Runner      Runner
}

// FormatCommand waits for device to appear and formats it as ext3.
func FormatCommand(device string) string {
	return fmt.Sprintf(
		"while true; do echo 'Waiting for %[1]s...'; if [ -e %[1]s ]; then break; fi; sleep 1; done; mkfs.ext3 -F -m 0.5 %[1]s",
		device)
}

// CreateFormattedSnapshot formats a fresh volume on a scratch instance and
// snapshots it, so volumes created from the snapshot need no formatting. The
// scratch volume and instance are removed afterwards.
func (o *Orchestrator) CreateFormattedSnapshot(ctx context.Context, req SnapshotRequest) (cloud.Snapshot, error) {
	if !o.provider.SupportsSnapshots() {
		return cloud.Snapshot{}, fmt.Errorf("formatted snapshot: provider has no volume snapshots: %w", cloud.ErrUnsupported)
	}
	if req.Runner == nil {
		return cloud.Snapshot{}, fmt.Errorf("formatted snapshot requires a remote command runner")
	}

	o.log.Info("Starting scratch instance", "image", req.ImageID, "zone", req.Zone)
	res, err := o.provider.RunInstances(ctx, cloud.RunRequest{
		ImageID:      req.ImageID,
		KeyName:      req.KeyName,
		InstanceType: req.InstanceType,
		Placement:    req.Zone,
		Count:        1,
		Groups:       req.Groups,
	})
	if err != nil {
		return cloud.Snapshot{}, fmt.Errorf("failed to start scratch instance: %w", err)
	}
	instanceID := res.InstanceIDs()[0]

	inst, err := readiness.Until(ctx, req.Poller, func(ctx context.Context) (cloud.Instance, error) {
		insts, err := o.provider.DescribeInstances(ctx, cloud.InstanceFilter{IDs: []string{instanceID}})
		if err != nil {
			return cloud.Instance{}, err
		}
		if len(insts) == 0 {
			return cloud.Instance{}, nil
		}
		return insts[0], nil
	}, func(i cloud.Instance) bool { return i.State == cloud.InstanceRunning })
	if err != nil {
		return cloud.Snapshot{}, fmt.Errorf("waiting for scratch instance %s: %w", instanceID, err)
	}

	if req.SettleDelay > 0 {
		o.log.Info("Waiting before attaching storage", "delay", req.SettleDelay)
		if err := sleep(ctx, req.SettleDelay); err != nil {
			return cloud.Snapshot{}, err
		}
	}

	o.log.Info("Creating scratch volume", "sizeGB", req.SizeGB, "zone", req.Zone)
	vol, err := o.provider.CreateVolume(ctx, cloud.CreateVolumeRequest{SizeGB: req.SizeGB, AvailabilityZone: req.Zone})
	if err != nil {
		return cloud.Snapshot{}, fmt.Errorf("failed to create scratch volume: %w", err)
	}
	if err := o.provider.AttachVolume(ctx, vol.ID, instanceID, ScratchDevice); err != nil {
		return cloud.Snapshot{}, fmt.Errorf("failed to attach scratch volume: %w", err)
	}

	out, err := req.Runner.Run(ctx, inst.Address(), FormatCommand(ScratchDevice))
	if err != nil {
		return cloud.Snapshot{}, fmt.Errorf("failed to format scratch volume: %w", err)
	}
	o.log.V(1).Info("Formatted scratch volume", "output", out)

	o.log.Info("Detaching scratch volume", "volume", vol.ID)
	if err := o.provider.DetachVolume(ctx, vol.ID); err != nil {
		return cloud.Snapshot{}, fmt.Errorf("failed to detach scratch volume: %w", err)
	}
	snap, err := o.provider.CreateSnapshot(ctx, vol.ID, fmt.Sprintf("formatted ext3 %dGB", req.SizeGB))
	if err != nil {
		return cloud.Snapshot{}, fmt.Errorf("failed to snapshot scratch volume: %w", err)
	}
	o.log.Info("Created snapshot", "snapshot", snap.ID)

	if _, err := readiness.Until(ctx, req.Poller, func(ctx context.Context) (cloud.VolumeStatus, error) {
		vols, err := o.provider.DescribeVolumes(ctx, vol.ID)
		if err != nil {
			return "", err
		}
		if len(vols) == 0 {
			return "", fmt.Errorf("volume %s: %w", vol.ID, cloud.ErrNotFound)
		}
		return vols[0].Status, nil
	}, func(s cloud.VolumeStatus) bool { return s == cloud.VolumeAvailable }); err != nil {
		return snap, fmt.Errorf("waiting for scratch volume %s: %w", vol.ID, err)
	}

	if err := o.provider.DeleteVolume(ctx, vol.ID); err != nil {
		return snap, fmt.Errorf("failed to delete scratch volume: %w", err)
	}
	if err := o.provider.TerminateInstances(ctx, []string{instanceID}); err != nil {
		return snap, fmt.Errorf("failed to terminate scratch instance: %w", err)
	}
	o.log.Info("Removed scratch instance", "instance", instanceID)
	return snap, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
