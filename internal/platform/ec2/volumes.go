package ec2

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/imamik/hdcluster/internal/cloud"
)

// CreateVolume creates an EBS volume, from a snapshot when one is given.
func (p *Provider) CreateVolume(ctx context.Context, req cloud.CreateVolumeRequest) (cloud.Volume, error) {
	in := &ec2.CreateVolumeInput{
		AvailabilityZone: aws.String(req.AvailabilityZone),
		Size:             aws.Int32(int32(req.SizeGB)),
	}
	if req.SnapshotID != "" {
		in.SnapshotId = aws.String(req.SnapshotID)
	}

	var out *ec2.CreateVolumeOutput
	err := p.do(ctx, "CreateVolume", func() error {
		var err error
		out, err = p.api.CreateVolume(ctx, in)
		return err
	})
	if err != nil {
		return cloud.Volume{}, translate(err, "failed to create volume in %s", req.AvailabilityZone)
	}
	return cloud.Volume{
		ID:               aws.ToString(out.VolumeId),
		Size:             int(aws.ToInt32(out.Size)),
		SnapshotID:       aws.ToString(out.SnapshotId),
		AvailabilityZone: aws.ToString(out.AvailabilityZone),
		Status:           cloud.VolumeStatus(out.State),
		CreateTime:       aws.ToTime(out.CreateTime),
	}, nil
}

// DescribeVolumes returns the given volumes, or every volume when no ID is
// given.
func (p *Provider) DescribeVolumes(ctx context.Context, ids ...string) ([]cloud.Volume, error) {
	in := &ec2.DescribeVolumesInput{VolumeIds: ids}
	var vols []cloud.Volume
	pages := ec2.NewDescribeVolumesPaginator(p.api, in)
	for pages.HasMorePages() {
		var out *ec2.DescribeVolumesOutput
		err := p.do(ctx, "DescribeVolumes", func() error {
			var err error
			out, err = pages.NextPage(ctx)
			return err
		})
		if err != nil {
			return nil, translate(err, "failed to describe volumes")
		}
		for _, v := range out.Volumes {
			vols = append(vols, toVolume(v))
		}
	}
	return vols, nil
}

// AttachVolume attaches a volume to an instance at device.
func (p *Provider) AttachVolume(ctx context.Context, volumeID, instanceID, device string) error {
	err := p.do(ctx, "AttachVolume", func() error {
		_, err := p.api.AttachVolume(ctx, &ec2.AttachVolumeInput{
			VolumeId:   aws.String(volumeID),
			InstanceId: aws.String(instanceID),
			Device:     aws.String(device),
		})
		return err
	})
	return translate(err, "failed to attach volume %s to %s", volumeID, instanceID)
}

// DetachVolume detaches a volume from whichever instance holds it.
func (p *Provider) DetachVolume(ctx context.Context, volumeID string) error {
	err := p.do(ctx, "DetachVolume", func() error {
		_, err := p.api.DetachVolume(ctx, &ec2.DetachVolumeInput{VolumeId: aws.String(volumeID)})
		return err
	})
	return translate(err, "failed to detach volume %s", volumeID)
}

// DeleteVolume deletes an available volume.
func (p *Provider) DeleteVolume(ctx context.Context, volumeID string) error {
	err := p.do(ctx, "DeleteVolume", func() error {
		_, err := p.api.DeleteVolume(ctx, &ec2.DeleteVolumeInput{VolumeId: aws.String(volumeID)})
		return err
	})
	return translate(err, "failed to delete volume %s", volumeID)
}

func (p *Provider) SupportsSnapshots() bool { return true }

// CreateSnapshot snapshots a volume.
func (p *Provider) CreateSnapshot(ctx context.Context, volumeID, description string) (cloud.Snapshot, error) {
	var out *ec2.CreateSnapshotOutput
	err := p.do(ctx, "CreateSnapshot", func() error {
		var err error
		out, err = p.api.CreateSnapshot(ctx, &ec2.CreateSnapshotInput{
			VolumeId:    aws.String(volumeID),
			Description: aws.String(description),
		})
		return err
	})
	if err != nil {
		return cloud.Snapshot{}, translate(err, "failed to snapshot volume %s", volumeID)
	}
	return cloud.Snapshot{ID: aws.ToString(out.SnapshotId), VolumeID: volumeID}, nil
}
