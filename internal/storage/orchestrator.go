package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-logr/logr"

	"github.com/imamik/hdcluster/internal/cloud"
	"github.com/imamik/hdcluster/internal/manifest"
)

// Orchestrator manages the volumes of one cluster.
type Orchestrator struct {
	provider  cloud.Provider
	manifests *manifest.Manager
	log       logr.Logger
}

// NewOrchestrator returns an orchestrator recording volumes in manifests.
func NewOrchestrator(provider cloud.Provider, manifests *manifest.Manager, log logr.Logger) *Orchestrator {
	return &Orchestrator{provider: provider, manifests: manifests, log: log.WithName("storage")}
}

// CreateVolumes creates specs for each of instanceCount instances and appends
// one manifest group per instance. Groups recorded before a failure are kept.
func (o *Orchestrator) CreateVolumes(ctx context.Context, role string, instanceCount int, zone string, specs []VolumeSpec) error {
	if len(specs) == 0 {
		return fmt.Errorf("%w %s", ErrNoSpec, role)
	}
	for i := range instanceCount {
		group := make(manifest.Group, 0, len(specs))
		for _, spec := range specs {
			o.log.Info("Creating volume", "role", role, "instance", i, "sizeGB", spec.SizeGB,
				"zone", zone, "snapshot", spec.SnapshotID)
			vol, err := o.provider.CreateVolume(ctx, cloud.CreateVolumeRequest{
				SizeGB:           spec.SizeGB,
				AvailabilityZone: zone,
				SnapshotID:       spec.SnapshotID,
			})
			if err != nil {
				return fmt.Errorf("failed to create volume for %s instance %d: %w", role, i, err)
			}
			group = append(group, manifest.MountableVolume{
				VolumeID:   vol.ID,
				MountPoint: spec.MountPoint,
				Device:     spec.Device,
			})
		}
		if err := o.manifests.AppendGroup(ctx, role, group); err != nil {
			return fmt.Errorf("failed to record volumes for %s instance %d: %w", role, i, err)
		}
	}
	return nil
}

// HasAnyStorage reports whether any of roles has recorded volumes.
func (o *Orchestrator) HasAnyStorage(ctx context.Context, roles []string) (bool, error) {
	for _, role := range roles {
		groups, err := o.manifests.Groups(ctx, role)
		if err != nil {
			return false, err
		}
		if len(groups) > 0 {
			return true, nil
		}
	}
	return false, nil
}

// MappingsString renders role's volumes as "mount,device;mount,device",
// one entry per mount point, sorted by mount point.
func (o *Orchestrator) MappingsString(ctx context.Context, role string) (string, error) {
	groups, err := o.manifests.Groups(ctx, role)
	if err != nil {
		return "", err
	}
	mappings := map[string]string{}
	for _, g := range groups {
		for _, v := range g {
			mappings[v.MountPoint] = v.Device
		}
	}
	mounts := make([]string, 0, len(mappings))
	for m := range mappings {
		mounts = append(mounts, m)
	}
	sort.Strings(mounts)

	parts := make([]string, 0, len(mounts))
	for _, m := range mounts {
		parts = append(parts, m+","+mappings[m])
	}
	return strings.Join(parts, ";"), nil
}

// volumesByID fetches every volume referenced by groups.
func (o *Orchestrator) volumesByID(ctx context.Context, groups []manifest.Group) (map[string]cloud.Volume, error) {
	ids := manifest.VolumeIDs(groups)
	if len(ids) == 0 {
		return map[string]cloud.Volume{}, nil
	}
	vols, err := o.provider.DescribeVolumes(ctx, ids...)
	if err != nil {
		return nil, fmt.Errorf("failed to describe volumes: %w", err)
	}
	byID := make(map[string]cloud.Volume, len(vols))
	for _, v := range vols {
		byID[v.ID] = v
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("volume %s: %w", id, cloud.ErrNotFound)
		}
	}
	return byID, nil
}

// Pair is an instance and the volume group attached to it.
type Pair struct {
	InstanceID string
	Group      manifest.Group
}

// AttachResult reports how Attach paired instances with volume groups.
type AttachResult struct {
	Pairs              []Pair
	UnmatchedInstances []string
	UnmatchedGroups    []manifest.Group
}

// Attach attaches role's available volume groups to instances that do not
// yet hold any of the role's volumes. Instances are taken in the given order
// and groups in manifest order. A group with any volume not available is
// skipped entirely, and the instance holding that volume is excluded, so a
// partially attached group is never completed. Counts that differ are logged
// and the surplus is reported in the result.
func (o *Orchestrator) Attach(ctx context.Context, role string, instances []cloud.Instance) (AttachResult, error) {
	var result AttachResult

	groups, err := o.manifests.Groups(ctx, role)
	if err != nil {
		return result, err
	}
	if len(groups) == 0 {
		return result, nil
	}
	vols, err := o.volumesByID(ctx, groups)
	if err != nil {
		return result, err
	}

	excluded := map[string]bool{}
	var available []manifest.Group
	for _, g := range groups {
		ready := true
		for _, mv := range g {
			v := vols[mv.VolumeID]
			if v.Status == cloud.VolumeAvailable {
				continue
			}
			ready = false
			if v.Attachment != nil {
				excluded[v.Attachment.InstanceID] = true
			}
		}
		if ready {
			available = append(available, g)
		}
	}

	var candidates []cloud.Instance
	for _, inst := range instances {
		if !excluded[inst.ID] {
			candidates = append(candidates, inst)
		}
	}

	if len(candidates) != len(available) {
		o.log.Info("Warning: number of available instances and volume groups do not match",
			"role", role, "instances", len(candidates), "groups", len(available))
	}

	n := min(len(candidates), len(available))
	for i := range n {
		inst, g := candidates[i], available[i]
		o.log.Info("Attaching storage", "role", role, "instance", inst.ID)
		for _, mv := range g {
			o.log.V(1).Info("Attaching volume", "volume", mv.VolumeID, "instance", inst.ID, "device", mv.Device)
			if err := o.provider.AttachVolume(ctx, mv.VolumeID, inst.ID, mv.Device); err != nil {
				return result, fmt.Errorf("failed to attach volume %s to %s: %w", mv.VolumeID, inst.ID, err)
			}
		}
		result.Pairs = append(result.Pairs, Pair{InstanceID: inst.ID, Group: g})
	}
	for _, inst := range candidates[n:] {
		result.UnmatchedInstances = append(result.UnmatchedInstances, inst.ID)
	}
	result.UnmatchedGroups = append(result.UnmatchedGroups, available[n:]...)
	return result, nil
}

// DeleteResult reports the outcome of Delete.
type DeleteResult struct {
	Deleted bool
	// InUse lists the volumes that blocked deletion.
	InUse []string
}

// Delete deletes every volume of role and drops its manifest entry. If any
// volume is not available nothing is deleted and the blocking volumes are
// reported. A role with no recorded storage is left untouched and reported as
// not deleted.
func (o *Orchestrator) Delete(ctx context.Context, role string) (DeleteResult, error) {
	var result DeleteResult

	groups, err := o.manifests.Groups(ctx, role)
	if err != nil {
		return result, err
	}
	if len(groups) == 0 {
		return result, nil
	}
	vols, err := o.volumesByID(ctx, groups)
	if err != nil {
		return result, err
	}

	ids := manifest.VolumeIDs(groups)
	for _, id := range ids {
		if v := vols[id]; v.Status != cloud.VolumeAvailable {
			o.log.Info("Warning: volume is not available", "volume", v.ID, "status", v.Status)
			result.InUse = append(result.InUse, v.ID)
		}
	}
	if len(result.InUse) > 0 {
		o.log.Info("Warning: some volumes are still in use, aborting delete", "role", role)
		return result, nil
	}

	for _, id := range ids {
		o.log.Info("Deleting volume", "role", role, "volume", id)
		if err := o.provider.DeleteVolume(ctx, id); err != nil {
			return result, fmt.Errorf("failed to delete volume %s: %w", id, err)
		}
	}
	if err := o.manifests.RemoveRole(ctx, role); err != nil {
		return result, err
	}
	result.Deleted = true
	return result, nil
}

// VolumeStatus is a provider volume tagged with the role it belongs to.
type VolumeStatus struct {
	Role   string
	Volume cloud.Volume
}

// Status returns the provider view of every volume of roles, in manifest order.
func (o *Orchestrator) Status(ctx context.Context, roles []string) ([]VolumeStatus, error) {
	var out []VolumeStatus
	for _, role := range roles {
		groups, err := o.manifests.Groups(ctx, role)
		if err != nil {
			return nil, err
		}
		vols, err := o.volumesByID(ctx, groups)
		if err != nil {
			return nil, err
		}
		for _, g := range groups {
			for _, mv := range g {
				out = append(out, VolumeStatus{Role: role, Volume: vols[mv.VolumeID]})
			}
		}
	}
	return out, nil
}
