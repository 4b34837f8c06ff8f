package ec2

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/google/uuid"

	"github.com/imamik/hdcluster/internal/cloud"
)

// groupFilter matches instances by security group name.
const groupFilter = "instance.group-name"

// RunInstances launches exactly req.Count instances. The request carries a
// client token so a retried call does not launch twice.
func (p *Provider) RunInstances(ctx context.Context, req cloud.RunRequest) (cloud.Reservation, error) {
	if req.Count < 1 {
		return cloud.Reservation{}, fmt.Errorf("invalid instance count %d", req.Count)
	}
	in := &ec2.RunInstancesInput{
		ImageId:        aws.String(req.ImageID),
		MinCount:       aws.Int32(int32(req.Count)),
		MaxCount:       aws.Int32(int32(req.Count)),
		SecurityGroups: req.Groups,
		ClientToken:    aws.String(uuid.NewString()),
	}
	if req.KeyName != "" {
		in.KeyName = aws.String(req.KeyName)
	}
	if req.InstanceType != "" {
		in.InstanceType = types.InstanceType(req.InstanceType)
	}
	if req.Placement != "" {
		in.Placement = &types.Placement{AvailabilityZone: aws.String(req.Placement)}
	}
	if len(req.UserData) > 0 {
		in.UserData = aws.String(base64.StdEncoding.EncodeToString(req.UserData))
	}

	var out *ec2.RunInstancesOutput
	err := p.do(ctx, "RunInstances", func() error {
		var err error
		out, err = p.api.RunInstances(ctx, in)
		return err
	})
	if err != nil {
		return cloud.Reservation{}, translate(err, "failed to run instances")
	}

	res := cloud.Reservation{ID: aws.ToString(out.ReservationId)}
	for _, g := range out.Groups {
		res.Groups = append(res.Groups, aws.ToString(g.GroupName))
	}
	if len(res.Groups) == 0 {
		res.Groups = req.Groups
	}
	for _, inst := range out.Instances {
		res.Instances = append(res.Instances, toInstance(inst, out.Groups))
	}
	return res, nil
}

// DescribeInstances lists instances matching filter across all pages.
func (p *Provider) DescribeInstances(ctx context.Context, filter cloud.InstanceFilter) ([]cloud.Instance, error) {
	in := &ec2.DescribeInstancesInput{InstanceIds: filter.IDs}
	if filter.Group != "" {
		in.Filters = []types.Filter{{Name: aws.String(groupFilter), Values: []string{filter.Group}}}
	}

	var insts []cloud.Instance
	pages := ec2.NewDescribeInstancesPaginator(p.api, in)
	for pages.HasMorePages() {
		var out *ec2.DescribeInstancesOutput
		err := p.do(ctx, "DescribeInstances", func() error {
			var err error
			out, err = pages.NextPage(ctx)
			return err
		})
		if err != nil {
			return nil, translate(err, "failed to describe instances")
		}
		for _, r := range out.Reservations {
			for _, inst := range r.Instances {
				insts = append(insts, toInstance(inst, r.Groups))
			}
		}
	}
	return insts, nil
}

// TerminateInstances terminates the given instances.
func (p *Provider) TerminateInstances(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	err := p.do(ctx, "TerminateInstances", func() error {
		_, err := p.api.TerminateInstances(ctx, &ec2.TerminateInstancesInput{InstanceIds: ids})
		return err
	})
	return translate(err, "failed to terminate instances")
}
