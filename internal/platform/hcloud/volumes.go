package hcloud

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/hdcluster/internal/cloud"
	"github.com/imamik/hdcluster/internal/util/labels"
	"github.com/imamik/hdcluster/internal/util/naming"
)

// CreateVolume creates an unformatted volume in the location named by
// req.AvailabilityZone. Volumes cannot be restored from snapshots.
func (p *Provider) CreateVolume(ctx context.Context, req cloud.CreateVolumeRequest) (cloud.Volume, error) {
	if req.SnapshotID != "" {
		return cloud.Volume{}, fmt.Errorf("volume from snapshot %s: %w", req.SnapshotID, cloud.ErrUnsupported)
	}

	opts := hcloud.VolumeCreateOpts{
		Name:     naming.Volume(uuid.NewString()[:8]),
		Size:     req.SizeGB,
		Location: &hcloud.Location{Name: req.AvailabilityZone},
		Labels:   labels.NewLabelBuilder("").Build(),
	}

	var result hcloud.VolumeCreateResult
	err := p.do(ctx, "CreateVolume", func() error {
		var err error
		result, _, err = p.client.Volume.Create(ctx, opts)
		return err
	})
	if err != nil {
		return cloud.Volume{}, translate(err, "failed to create volume in %s", req.AvailabilityZone)
	}
	if err := waitForActionResult(ctx, p.client, &CreateResult[*hcloud.Volume]{
		Resource: result.Volume,
		Action:   result.Action,
		Actions:  result.NextActions,
	}); err != nil {
		return cloud.Volume{}, fmt.Errorf("failed to wait for volume %s: %w", opts.Name, err)
	}

	p.log.Info("Created volume", "name", opts.Name, "id", result.Volume.ID, "size", req.SizeGB)
	return toVolume(result.Volume), nil
}

// DescribeVolumes returns the given volumes, or every hdcluster volume when
// no ID is given.
func (p *Provider) DescribeVolumes(ctx context.Context, ids ...string) ([]cloud.Volume, error) {
	if len(ids) == 0 {
		var volumes []*hcloud.Volume
		err := p.do(ctx, "ListVolumes", func() error {
			var err error
			volumes, err = p.client.Volume.AllWithOpts(ctx, hcloud.VolumeListOpts{
				ListOpts: hcloud.ListOpts{LabelSelector: managedSelector("")},
			})
			return err
		})
		if err != nil {
			return nil, translate(err, "failed to list volumes")
		}
		vols := make([]cloud.Volume, 0, len(volumes))
		for _, v := range volumes {
			vols = append(vols, toVolume(v))
		}
		return vols, nil
	}

	vols := make([]cloud.Volume, 0, len(ids))
	for _, id := range ids {
		v, err := p.getVolume(ctx, id)
		if err != nil {
			return nil, err
		}
		vols = append(vols, toVolume(v))
	}
	return vols, nil
}

func (p *Provider) getVolume(ctx context.Context, id string) (*hcloud.Volume, error) {
	n, err := parseID("volume", id)
	if err != nil {
		return nil, err
	}
	var v *hcloud.Volume
	err = p.do(ctx, "GetVolume", func() error {
		var err error
		v, _, err = p.client.Volume.GetByID(ctx, n)
		return err
	})
	if err != nil {
		return nil, translate(err, "failed to get volume %s", id)
	}
	if v == nil {
		return nil, fmt.Errorf("volume %s: %w", id, cloud.ErrNotFound)
	}
	return v, nil
}

// AttachVolume attaches a volume to a server. The device is chosen by the
// platform and reported by DescribeVolumes, so device is ignored.
func (p *Provider) AttachVolume(ctx context.Context, volumeID, instanceID, device string) error {
	v, err := p.getVolume(ctx, volumeID)
	if err != nil {
		return err
	}
	sid, err := parseID("server", instanceID)
	if err != nil {
		return err
	}

	var action *hcloud.Action
	err = p.do(ctx, "AttachVolume", func() error {
		var err error
		action, _, err = p.client.Volume.AttachWithOpts(ctx, v, hcloud.VolumeAttachOpts{
			Server:    &hcloud.Server{ID: sid},
			Automount: hcloud.Ptr(false),
		})
		return err
	})
	if err != nil {
		return translate(err, "failed to attach volume %s to server %s", volumeID, instanceID)
	}
	if action == nil {
		return nil
	}
	p.log.V(1).Info("Attaching volume", "volume", volumeID, "server", instanceID, "requestedDevice", device)
	return waitForActions(ctx, p.client, action)
}

// DetachVolume detaches a volume from its server.
func (p *Provider) DetachVolume(ctx context.Context, volumeID string) error {
	v, err := p.getVolume(ctx, volumeID)
	if err != nil {
		return err
	}

	var action *hcloud.Action
	err = p.do(ctx, "DetachVolume", func() error {
		var err error
		action, _, err = p.client.Volume.Detach(ctx, v)
		return err
	})
	if err != nil {
		return translate(err, "failed to detach volume %s", volumeID)
	}
	if action == nil {
		return nil
	}
	return waitForActions(ctx, p.client, action)
}

// DeleteVolume deletes a volume. A missing volume yields an error wrapping
// cloud.ErrNotFound.
func (p *Provider) DeleteVolume(ctx context.Context, volumeID string) error {
	if _, err := parseID("volume", volumeID); err != nil {
		return err
	}
	return (&DeleteOperation[*hcloud.Volume]{
		Name:         volumeID,
		ResourceType: "volume",
		Get:          p.client.Volume.Get,
		Delete:       p.client.Volume.Delete,
		Missing:      cloud.ErrNotFound,
	}).Execute(ctx, p)
}

func (p *Provider) SupportsSnapshots() bool { return false }

// CreateSnapshot is not available for Hetzner volumes.
func (p *Provider) CreateSnapshot(_ context.Context, volumeID, _ string) (cloud.Snapshot, error) {
	return cloud.Snapshot{}, fmt.Errorf("snapshot of volume %s: %w", volumeID, cloud.ErrUnsupported)
}
