package ec2

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
)

// mockAPI implements API with per-method function fields. Unset methods
// return empty outputs.
type mockAPI struct {
	DescribeSecurityGroupsFunc        func(*ec2.DescribeSecurityGroupsInput) (*ec2.DescribeSecurityGroupsOutput, error)
	CreateSecurityGroupFunc           func(*ec2.CreateSecurityGroupInput) (*ec2.CreateSecurityGroupOutput, error)
	DeleteSecurityGroupFunc           func(*ec2.DeleteSecurityGroupInput) (*ec2.DeleteSecurityGroupOutput, error)
	AuthorizeSecurityGroupIngressFunc func(*ec2.AuthorizeSecurityGroupIngressInput) (*ec2.AuthorizeSecurityGroupIngressOutput, error)
	RevokeSecurityGroupIngressFunc    func(*ec2.RevokeSecurityGroupIngressInput) (*ec2.RevokeSecurityGroupIngressOutput, error)
	RunInstancesFunc                  func(*ec2.RunInstancesInput) (*ec2.RunInstancesOutput, error)
	DescribeInstancesFunc             func(*ec2.DescribeInstancesInput) (*ec2.DescribeInstancesOutput, error)
	TerminateInstancesFunc            func(*ec2.TerminateInstancesInput) (*ec2.TerminateInstancesOutput, error)
	CreateVolumeFunc                  func(*ec2.CreateVolumeInput) (*ec2.CreateVolumeOutput, error)
	DescribeVolumesFunc               func(*ec2.DescribeVolumesInput) (*ec2.DescribeVolumesOutput, error)
	AttachVolumeFunc                  func(*ec2.AttachVolumeInput) (*ec2.AttachVolumeOutput, error)
	DetachVolumeFunc                  func(*ec2.DetachVolumeInput) (*ec2.DetachVolumeOutput, error)
	DeleteVolumeFunc                  func(*ec2.DeleteVolumeInput) (*ec2.DeleteVolumeOutput, error)
	CreateSnapshotFunc                func(*ec2.CreateSnapshotInput) (*ec2.CreateSnapshotOutput, error)
}

var _ API = (*mockAPI)(nil)

func (m *mockAPI) DescribeSecurityGroups(_ context.Context, in *ec2.DescribeSecurityGroupsInput, _ ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error) {
	if m.DescribeSecurityGroupsFunc != nil {
		return m.DescribeSecurityGroupsFunc(in)
	}
	return &ec2.DescribeSecurityGroupsOutput{}, nil
}

func (m *mockAPI) CreateSecurityGroup(_ context.Context, in *ec2.CreateSecurityGroupInput, _ ...func(*ec2.Options)) (*ec2.CreateSecurityGroupOutput, error) {
	if m.CreateSecurityGroupFunc != nil {
		return m.CreateSecurityGroupFunc(in)
	}
	return &ec2.CreateSecurityGroupOutput{}, nil
}

func (m *mockAPI) DeleteSecurityGroup(_ context.Context, in *ec2.DeleteSecurityGroupInput, _ ...func(*ec2.Options)) (*ec2.DeleteSecurityGroupOutput, error) {
	if m.DeleteSecurityGroupFunc != nil {
		return m.DeleteSecurityGroupFunc(in)
	}
	return &ec2.DeleteSecurityGroupOutput{}, nil
}

func (m *mockAPI) AuthorizeSecurityGroupIngress(_ context.Context, in *ec2.AuthorizeSecurityGroupIngressInput, _ ...func(*ec2.Options)) (*ec2.AuthorizeSecurityGroupIngressOutput, error) {
	if m.AuthorizeSecurityGroupIngressFunc != nil {
		return m.AuthorizeSecurityGroupIngressFunc(in)
	}
	return &ec2.AuthorizeSecurityGroupIngressOutput{}, nil
}

func (m *mockAPI) RevokeSecurityGroupIngress(_ context.Context, in *ec2.RevokeSecurityGroupIngressInput, _ ...func(*ec2.Options)) (*ec2.RevokeSecurityGroupIngressOutput, error) {
	if m.RevokeSecurityGroupIngressFunc != nil {
		return m.RevokeSecurityGroupIngressFunc(in)
	}
	return &ec2.RevokeSecurityGroupIngressOutput{}, nil
}

func (m *mockAPI) RunInstances(_ context.Context, in *ec2.RunInstancesInput, _ ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error) {
	if m.RunInstancesFunc != nil {
		return m.RunInstancesFunc(in)
	}
	return &ec2.RunInstancesOutput{}, nil
}

func (m *mockAPI) DescribeInstances(_ context.Context, in *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	if m.DescribeInstancesFunc != nil {
		return m.DescribeInstancesFunc(in)
	}
	return &ec2.DescribeInstancesOutput{}, nil
}

func (m *mockAPI) TerminateInstances(_ context.Context, in *ec2.TerminateInstancesInput, _ ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error) {
	if m.TerminateInstancesFunc != nil {
		return m.TerminateInstancesFunc(in)
	}
	return &ec2.TerminateInstancesOutput{}, nil
}

func (m *mockAPI) CreateVolume(_ context.Context, in *ec2.CreateVolumeInput, _ ...func(*ec2.Options)) (*ec2.CreateVolumeOutput, error) {
	if m.CreateVolumeFunc != nil {
		return m.CreateVolumeFunc(in)
	}
	return &ec2.CreateVolumeOutput{}, nil
}

func (m *mockAPI) DescribeVolumes(_ context.Context, in *ec2.DescribeVolumesInput, _ ...func(*ec2.Options)) (*ec2.DescribeVolumesOutput, error) {
	if m.DescribeVolumesFunc != nil {
		return m.DescribeVolumesFunc(in)
	}
	return &ec2.DescribeVolumesOutput{}, nil
}

func (m *mockAPI) AttachVolume(_ context.Context, in *ec2.AttachVolumeInput, _ ...func(*ec2.Options)) (*ec2.AttachVolumeOutput, error) {
	if m.AttachVolumeFunc != nil {
		return m.AttachVolumeFunc(in)
	}
	return &ec2.AttachVolumeOutput{}, nil
}

func (m *mockAPI) DetachVolume(_ context.Context, in *ec2.DetachVolumeInput, _ ...func(*ec2.Options)) (*ec2.DetachVolumeOutput, error) {
	if m.DetachVolumeFunc != nil {
		return m.DetachVolumeFunc(in)
	}
	return &ec2.DetachVolumeOutput{}, nil
}

func (m *mockAPI) DeleteVolume(_ context.Context, in *ec2.DeleteVolumeInput, _ ...func(*ec2.Options)) (*ec2.DeleteVolumeOutput, error) {
	if m.DeleteVolumeFunc != nil {
		return m.DeleteVolumeFunc(in)
	}
	return &ec2.DeleteVolumeOutput{}, nil
}

func (m *mockAPI) CreateSnapshot(_ context.Context, in *ec2.CreateSnapshotInput, _ ...func(*ec2.Options)) (*ec2.CreateSnapshotOutput, error) {
	if m.CreateSnapshotFunc != nil {
		return m.CreateSnapshotFunc(in)
	}
	return &ec2.CreateSnapshotOutput{}, nil
}
