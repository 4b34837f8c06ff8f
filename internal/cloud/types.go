package cloud

import (
	"slices"
	"time"
)

// InstanceState is the lifecycle state of a compute instance.
type InstanceState string

const (
	InstancePending      InstanceState = "pending"
	InstanceRunning      InstanceState = "running"
	InstanceShuttingDown InstanceState = "shutting-down"
	InstanceTerminated   InstanceState = "terminated"
	InstanceStopping     InstanceState = "stopping"
	InstanceStopped      InstanceState = "stopped"
)

// VolumeStatus is the lifecycle state of a block storage volume.
type VolumeStatus string

const (
	VolumeCreating  VolumeStatus = "creating"
	VolumeAvailable VolumeStatus = "available"
	VolumeInUse     VolumeStatus = "in-use"
	VolumeDeleting  VolumeStatus = "deleting"
	VolumeDeleted   VolumeStatus = "deleted"
	VolumeError     VolumeStatus = "error"
)

// Instance is the provider's view of a compute instance.
type Instance struct {
	ID             string
	ImageID        string
	KeyName        string
	InstanceType   string
	Placement      string
	PublicDNSName  string
	PrivateDNSName string
	PublicIP       string
	PrivateIP      string
	State          InstanceState
	LaunchTime     time.Time
	Groups         []string
}

// InGroup reports whether the instance is a member of group.
func (i Instance) InGroup(group string) bool {
	return slices.Contains(i.Groups, group)
}

// Address returns the best externally reachable address of the instance.
func (i Instance) Address() string {
	if i.PublicDNSName != "" {
		return i.PublicDNSName
	}
	return i.PublicIP
}

// Reservation is the set of instances started by one launch request.
type Reservation struct {
	ID        string
	Groups    []string
	Instances []Instance
}

// InstanceIDs returns the IDs of the reserved instances in launch order.
func (r Reservation) InstanceIDs() []string {
	ids := make([]string, 0, len(r.Instances))
	for _, inst := range r.Instances {
		ids = append(ids, inst.ID)
	}
	return ids
}

// RunRequest describes instances to launch.
type RunRequest struct {
	ImageID      string
	KeyName      string
	InstanceType string
	Placement    string
	Count        int
	Groups       []string
	// UserData is the gzip-compressed bootstrap payload.
	UserData []byte
}

// InstanceFilter narrows DescribeInstances. Zero fields match everything.
type InstanceFilter struct {
	IDs   []string
	Group string
}

// Matches reports whether inst passes the filter.
func (f InstanceFilter) Matches(inst Instance) bool {
	if len(f.IDs) > 0 && !slices.Contains(f.IDs, inst.ID) {
		return false
	}
	if f.Group != "" && !inst.InGroup(f.Group) {
		return false
	}
	return true
}

// Rule is an ingress permission on a group. Either CIDR or SourceGroup is set.
type Rule struct {
	Protocol    string
	FromPort    int
	ToPort      int
	CIDR        string
	SourceGroup string
}

// TCPRule builds a tcp rule for a port range from a CIDR.
func TCPRule(fromPort, toPort int, cidr string) Rule {
	return Rule{Protocol: "tcp", FromPort: fromPort, ToPort: toPort, CIDR: cidr}
}

// GroupRule builds a rule admitting all traffic from members of group.
func GroupRule(group string) Rule {
	return Rule{SourceGroup: group}
}

// SecurityGroup is a named set of ingress rules that instances are members of.
type SecurityGroup struct {
	ID          string
	Name        string
	Description string
	Rules       []Rule
}

// HasRule reports whether the group already holds an identical rule.
func (g SecurityGroup) HasRule(r Rule) bool {
	return slices.Contains(g.Rules, r)
}

// VolumeAttachment describes where a volume is attached.
type VolumeAttachment struct {
	InstanceID string
	Device     string
	AttachTime time.Time
}

// Volume is the provider's view of a block storage volume.
type Volume struct {
	ID               string
	Size             int
	SnapshotID       string
	AvailabilityZone string
	Status           VolumeStatus
	CreateTime       time.Time
	Attachment       *VolumeAttachment
}

// CreateVolumeRequest describes a volume to create. SnapshotID is optional.
type CreateVolumeRequest struct {
	SizeGB           int
	AvailabilityZone string
	SnapshotID       string
}

// Snapshot is a point-in-time copy of a volume.
type Snapshot struct {
	ID       string
	VolumeID string
}
