package testing

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/imamik/hdcluster/internal/cloud"
)

// FakeProvider is an in-memory cloud.Provider. Instances start pending and
// turn running after PendingDescribes calls to DescribeInstances. Volumes are
// created available.
type FakeProvider struct {
	mu sync.Mutex

	// PendingDescribes is how many DescribeInstances calls a new instance
	// stays pending for.
	PendingDescribes int
	// NoGroupRules makes group-sourced rules fail with cloud.ErrUnsupported.
	NoGroupRules bool
	// NoSnapshots makes SupportsSnapshots report false.
	NoSnapshots bool
	// Errors injects a failure for the named method.
	Errors map[string]error

	// Calls records every method invocation in order.
	Calls []string
	// RunRequests records every accepted launch request.
	RunRequests []cloud.RunRequest

	groups    map[string]*cloud.SecurityGroup
	instances []*fakeInstance
	volumes   map[string]*cloud.Volume
	volumeIDs []string
	snapshots []cloud.Snapshot
	nextID    int
	clock     time.Time
}

type fakeInstance struct {
	cloud.Instance
	pendingLeft int
}

// NewFakeProvider returns an empty provider.
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		Errors:  map[string]error{},
		groups:  map[string]*cloud.SecurityGroup{},
		volumes: map[string]*cloud.Volume{},
		clock:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *FakeProvider) call(name string) error {
	f.Calls = append(f.Calls, name)
	return f.Errors[name]
}

func (f *FakeProvider) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%04d", prefix, f.nextID)
}

func (f *FakeProvider) now() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

// CallCount returns how many times the named method was invoked.
func (f *FakeProvider) CallCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *FakeProvider) ListGroups(_ context.Context, names ...string) ([]cloud.SecurityGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("ListGroups"); err != nil {
		return nil, err
	}
	var out []cloud.SecurityGroup
	keys := make([]string, 0, len(f.groups))
	for k := range f.groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if len(names) > 0 && !slices.Contains(names, k) {
			continue
		}
		g := *f.groups[k]
		g.Rules = slices.Clone(g.Rules)
		out = append(out, g)
	}
	return out, nil
}

func (f *FakeProvider) CreateGroup(_ context.Context, name, description string) (cloud.SecurityGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("CreateGroup"); err != nil {
		return cloud.SecurityGroup{}, err
	}
	if _, ok := f.groups[name]; ok {
		return cloud.SecurityGroup{}, fmt.Errorf("group %s already exists", name)
	}
	g := &cloud.SecurityGroup{ID: f.id("sg"), Name: name, Description: description}
	f.groups[name] = g
	return *g, nil
}

func (f *FakeProvider) DeleteGroup(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("DeleteGroup"); err != nil {
		return err
	}
	if _, ok := f.groups[name]; !ok {
		return fmt.Errorf("group %s: %w", name, cloud.ErrNotFound)
	}
	delete(f.groups, name)
	return nil
}

func (f *FakeProvider) AuthorizeIngress(_ context.Context, group string, rule cloud.Rule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("AuthorizeIngress"); err != nil {
		return err
	}
	if rule.SourceGroup != "" && f.NoGroupRules {
		return fmt.Errorf("group-sourced rule: %w", cloud.ErrUnsupported)
	}
	g, ok := f.groups[group]
	if !ok {
		return fmt.Errorf("group %s: %w", group, cloud.ErrNotFound)
	}
	if g.HasRule(rule) {
		return fmt.Errorf("rule %+v already exists in group %s", rule, group)
	}
	g.Rules = append(g.Rules, rule)
	return nil
}

func (f *FakeProvider) RevokeIngress(_ context.Context, group string, rule cloud.Rule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("RevokeIngress"); err != nil {
		return err
	}
	g, ok := f.groups[group]
	if !ok {
		return fmt.Errorf("group %s: %w", group, cloud.ErrNotFound)
	}
	g.Rules = slices.DeleteFunc(g.Rules, func(r cloud.Rule) bool { return r == rule })
	return nil
}

func (f *FakeProvider) RunInstances(_ context.Context, req cloud.RunRequest) (cloud.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("RunInstances"); err != nil {
		return cloud.Reservation{}, err
	}
	if req.Count < 1 {
		return cloud.Reservation{}, fmt.Errorf("invalid instance count %d", req.Count)
	}
	for _, g := range req.Groups {
		if _, ok := f.groups[g]; !ok {
			return cloud.Reservation{}, fmt.Errorf("group %s: %w", g, cloud.ErrNotFound)
		}
	}
	f.RunRequests = append(f.RunRequests, req)
	res := cloud.Reservation{ID: f.id("r"), Groups: slices.Clone(req.Groups)}
	for range req.Count {
		id := f.id("i")
		inst := cloud.Instance{
			ID:             id,
			ImageID:        req.ImageID,
			KeyName:        req.KeyName,
			InstanceType:   req.InstanceType,
			Placement:      req.Placement,
			PublicDNSName:  id + ".public.example",
			PrivateDNSName: id + ".internal.example",
			PublicIP:       fmt.Sprintf("203.0.113.%d", f.nextID%250+1),
			PrivateIP:      fmt.Sprintf("10.0.0.%d", f.nextID%250+1),
			State:          cloud.InstancePending,
			LaunchTime:     f.now(),
			Groups:         slices.Clone(req.Groups),
		}
		f.instances = append(f.instances, &fakeInstance{Instance: inst, pendingLeft: f.PendingDescribes})
		res.Instances = append(res.Instances, inst)
	}
	return res, nil
}

func (f *FakeProvider) DescribeInstances(_ context.Context, filter cloud.InstanceFilter) ([]cloud.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("DescribeInstances"); err != nil {
		return nil, err
	}
	var out []cloud.Instance
	for _, fi := range f.instances {
		if fi.State == cloud.InstancePending {
			if fi.pendingLeft <= 0 {
				fi.State = cloud.InstanceRunning
			} else {
				fi.pendingLeft--
			}
		}
		if filter.Matches(fi.Instance) {
			inst := fi.Instance
			inst.Groups = slices.Clone(inst.Groups)
			out = append(out, inst)
		}
	}
	return out, nil
}

func (f *FakeProvider) TerminateInstances(_ context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("TerminateInstances"); err != nil {
		return err
	}
	for _, fi := range f.instances {
		if slices.Contains(ids, fi.ID) {
			fi.State = cloud.InstanceTerminated
		}
	}
	return nil
}

func (f *FakeProvider) CreateVolume(_ context.Context, req cloud.CreateVolumeRequest) (cloud.Volume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("CreateVolume"); err != nil {
		return cloud.Volume{}, err
	}
	v := &cloud.Volume{
		ID:               f.id("vol"),
		Size:             req.SizeGB,
		SnapshotID:       req.SnapshotID,
		AvailabilityZone: req.AvailabilityZone,
		Status:           cloud.VolumeAvailable,
		CreateTime:       f.now(),
	}
	f.volumes[v.ID] = v
	f.volumeIDs = append(f.volumeIDs, v.ID)
	return *v, nil
}

func (f *FakeProvider) DescribeVolumes(_ context.Context, ids ...string) ([]cloud.Volume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("DescribeVolumes"); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		ids = f.volumeIDs
	}
	out := make([]cloud.Volume, 0, len(ids))
	for _, id := range ids {
		v, ok := f.volumes[id]
		if !ok {
			return nil, fmt.Errorf("volume %s: %w", id, cloud.ErrNotFound)
		}
		cp := *v
		if v.Attachment != nil {
			a := *v.Attachment
			cp.Attachment = &a
		}
		out = append(out, cp)
	}
	return out, nil
}

func (f *FakeProvider) AttachVolume(_ context.Context, volumeID, instanceID, device string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("AttachVolume"); err != nil {
		return err
	}
	v, ok := f.volumes[volumeID]
	if !ok {
		return fmt.Errorf("volume %s: %w", volumeID, cloud.ErrNotFound)
	}
	if v.Status != cloud.VolumeAvailable {
		return fmt.Errorf("volume %s is %s", volumeID, v.Status)
	}
	v.Status = cloud.VolumeInUse
	v.Attachment = &cloud.VolumeAttachment{InstanceID: instanceID, Device: device, AttachTime: f.now()}
	return nil
}

func (f *FakeProvider) DetachVolume(_ context.Context, volumeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("DetachVolume"); err != nil {
		return err
	}
	v, ok := f.volumes[volumeID]
	if !ok {
		return fmt.Errorf("volume %s: %w", volumeID, cloud.ErrNotFound)
	}
	v.Status = cloud.VolumeAvailable
	v.Attachment = nil
	return nil
}

func (f *FakeProvider) DeleteVolume(_ context.Context, volumeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("DeleteVolume"); err != nil {
		return err
	}
	v, ok := f.volumes[volumeID]
	if !ok {
		return fmt.Errorf("volume %s: %w", volumeID, cloud.ErrNotFound)
	}
	if v.Status != cloud.VolumeAvailable {
		return fmt.Errorf("volume %s is %s", volumeID, v.Status)
	}
	delete(f.volumes, volumeID)
	f.volumeIDs = slices.DeleteFunc(f.volumeIDs, func(id string) bool { return id == volumeID })
	return nil
}

func (f *FakeProvider) SupportsSnapshots() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.NoSnapshots
}

func (f *FakeProvider) CreateSnapshot(_ context.Context, volumeID, _ string) (cloud.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("CreateSnapshot"); err != nil {
		return cloud.Snapshot{}, err
	}
	if _, ok := f.volumes[volumeID]; !ok {
		return cloud.Snapshot{}, fmt.Errorf("volume %s: %w", volumeID, cloud.ErrNotFound)
	}
	s := cloud.Snapshot{ID: f.id("snap"), VolumeID: volumeID}
	f.snapshots = append(f.snapshots, s)
	return s, nil
}

// Group returns a copy of the named group.
func (f *FakeProvider) Group(name string) (cloud.SecurityGroup, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[name]
	if !ok {
		return cloud.SecurityGroup{}, false
	}
	cp := *g
	cp.Rules = slices.Clone(g.Rules)
	return cp, true
}

// AddInstance seeds an instance as-is and returns its ID.
func (f *FakeProvider) AddInstance(inst cloud.Instance) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if inst.ID == "" {
		inst.ID = f.id("i")
	}
	if inst.State == "" {
		inst.State = cloud.InstanceRunning
	}
	f.instances = append(f.instances, &fakeInstance{Instance: inst})
	return inst.ID
}

// SetVolumeStatus forces the status of a volume.
func (f *FakeProvider) SetVolumeStatus(id string, status cloud.VolumeStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.volumes[id]; ok {
		v.Status = status
	}
}

// VolumeCount returns the number of volumes that exist.
func (f *FakeProvider) VolumeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.volumes)
}

var _ cloud.Provider = (*FakeProvider)(nil)
