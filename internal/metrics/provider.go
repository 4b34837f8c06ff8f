package metrics

import (
	"context"
	"time"

	"github.com/imamik/hdcluster/internal/cloud"
)

// InstrumentProvider wraps p so every call is recorded on r.
func InstrumentProvider(p cloud.Provider, r *Recorder) cloud.Provider {
	return &instrumentedProvider{next: p, rec: r}
}

type instrumentedProvider struct {
	next cloud.Provider
	rec  *Recorder
}

func timed[T any](r *Recorder, operation string, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	r.ObserveCall(operation, err, time.Since(start))
	return v, err
}

func timedErr(r *Recorder, operation string, fn func() error) error {
	_, err := timed(r, operation, func() (struct{}, error) { return struct{}{}, fn() })
	return err
}

func (p *instrumentedProvider) ListGroups(ctx context.Context, names ...string) ([]cloud.SecurityGroup, error) {
	return timed(p.rec, "list_groups", func() ([]cloud.SecurityGroup, error) {
		return p.next.ListGroups(ctx, names...)
	})
}

func (p *instrumentedProvider) CreateGroup(ctx context.Context, name, description string) (cloud.SecurityGroup, error) {
	return timed(p.rec, "create_group", func() (cloud.SecurityGroup, error) {
		return p.next.CreateGroup(ctx, name, description)
	})
}

func (p *instrumentedProvider) DeleteGroup(ctx context.Context, name string) error {
	return timedErr(p.rec, "delete_group", func() error { return p.next.DeleteGroup(ctx, name) })
}

func (p *instrumentedProvider) AuthorizeIngress(ctx context.Context, group string, rule cloud.Rule) error {
	return timedErr(p.rec, "authorize_ingress", func() error { return p.next.AuthorizeIngress(ctx, group, rule) })
}

func (p *instrumentedProvider) RevokeIngress(ctx context.Context, group string, rule cloud.Rule) error {
	return timedErr(p.rec, "revoke_ingress", func() error { return p.next.RevokeIngress(ctx, group, rule) })
}

func (p *instrumentedProvider) RunInstances(ctx context.Context, req cloud.RunRequest) (cloud.Reservation, error) {
	return timed(p.rec, "run_instances", func() (cloud.Reservation, error) {
		return p.next.RunInstances(ctx, req)
	})
}

func (p *instrumentedProvider) DescribeInstances(ctx context.Context, filter cloud.InstanceFilter) ([]cloud.Instance, error) {
	return timed(p.rec, "describe_instances", func() ([]cloud.Instance, error) {
		return p.next.DescribeInstances(ctx, filter)
	})
}

func (p *instrumentedProvider) TerminateInstances(ctx context.Context, ids []string) error {
	return timedErr(p.rec, "terminate_instances", func() error { return p.next.TerminateInstances(ctx, ids) })
}

func (p *instrumentedProvider) CreateVolume(ctx context.Context, req cloud.CreateVolumeRequest) (cloud.Volume, error) {
	return timed(p.rec, "create_volume", func() (cloud.Volume, error) {
		return p.next.CreateVolume(ctx, req)
	})
}

func (p *instrumentedProvider) DescribeVolumes(ctx context.Context, ids ...string) ([]cloud.Volume, error) {
	return timed(p.rec, "describe_volumes", func() ([]cloud.Volume, error) {
		return p.next.DescribeVolumes(ctx, ids...)
	})
}

func (p *instrumentedProvider) AttachVolume(ctx context.Context, volumeID, instanceID, device string) error {
	return timedErr(p.rec, "attach_volume", func() error {
		return p.next.AttachVolume(ctx, volumeID, instanceID, device)
	})
}

func (p *instrumentedProvider) SupportsSnapshots() bool {
	return p.next.SupportsSnapshots()
}

func (p *instrumentedProvider) DetachVolume(ctx context.Context, volumeID string) error {
	return timedErr(p.rec, "detach_volume", func() error { return p.next.DetachVolume(ctx, volumeID) })
}

func (p *instrumentedProvider) DeleteVolume(ctx context.Context, volumeID string) error {
	return timedErr(p.rec, "delete_volume", func() error { return p.next.DeleteVolume(ctx, volumeID) })
}

func (p *instrumentedProvider) CreateSnapshot(ctx context.Context, volumeID, description string) (cloud.Snapshot, error) {
	return timed(p.rec, "create_snapshot", func() (cloud.Snapshot, error) {
		return p.next.CreateSnapshot(ctx, volumeID, description)
	})
}
