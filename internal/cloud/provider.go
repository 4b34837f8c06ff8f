package cloud

import "context"

// GroupManager manages named security groups and their ingress rules.
type GroupManager interface {
	// ListGroups returns the groups with the given names, or all groups when
	// no name is given. Unknown names are skipped.
	ListGroups(ctx context.Context, names ...string) ([]SecurityGroup, error)
	CreateGroup(ctx context.Context, name, description string) (SecurityGroup, error)
	DeleteGroup(ctx context.Context, name string) error
	AuthorizeIngress(ctx context.Context, group string, rule Rule) error
	// RevokeIngress removes a rule. Revoking a rule that does not exist is
	// not an error.
	RevokeIngress(ctx context.Context, group string, rule Rule) error
}

// InstanceManager launches, lists and terminates compute instances.
type InstanceManager interface {
	RunInstances(ctx context.Context, req RunRequest) (Reservation, error)
	DescribeInstances(ctx context.Context, filter InstanceFilter) ([]Instance, error)
	TerminateInstances(ctx context.Context, ids []string) error
}

// VolumeManager manages block storage volumes and snapshots.
type VolumeManager interface {
	CreateVolume(ctx context.Context, req CreateVolumeRequest) (Volume, error)
	// DescribeVolumes returns the volumes with the given IDs, or all volumes
	// when no ID is given. Unknown IDs yield an error wrapping ErrNotFound.
	DescribeVolumes(ctx context.Context, ids ...string) ([]Volume, error)
	AttachVolume(ctx context.Context, volumeID, instanceID, device string) error
	DetachVolume(ctx context.Context, volumeID string) error
	DeleteVolume(ctx context.Context, volumeID string) error
	CreateSnapshot(ctx context.Context, volumeID, description string) (Snapshot, error)
	// SupportsSnapshots reports whether CreateSnapshot is available.
	SupportsSnapshots() bool
}

// Provider is the full capability set required to manage a cluster.
type Provider interface {
	GroupManager
	InstanceManager
	VolumeManager
}
