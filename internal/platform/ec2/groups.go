package ec2

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/imamik/hdcluster/internal/cloud"
)

// ListGroups returns the security groups with the given names, or all groups
// when no name is given. Unknown names are skipped.
func (p *Provider) ListGroups(ctx context.Context, names ...string) ([]cloud.SecurityGroup, error) {
	in := &ec2.DescribeSecurityGroupsInput{}
	if len(names) > 0 {
		in.Filters = []types.Filter{{Name: aws.String("group-name"), Values: names}}
	}

	var groups []cloud.SecurityGroup
	pages := ec2.NewDescribeSecurityGroupsPaginator(p.api, in)
	for pages.HasMorePages() {
		var out *ec2.DescribeSecurityGroupsOutput
		err := p.do(ctx, "DescribeSecurityGroups", func() error {
			var err error
			out, err = pages.NextPage(ctx)
			return err
		})
		if err != nil {
			return nil, translate(err, "failed to describe security groups")
		}
		for _, g := range out.SecurityGroups {
			groups = append(groups, toSecurityGroup(g))
		}
	}
	return groups, nil
}

// CreateGroup creates a security group.
func (p *Provider) CreateGroup(ctx context.Context, name, description string) (cloud.SecurityGroup, error) {
	var out *ec2.CreateSecurityGroupOutput
	err := p.do(ctx, "CreateSecurityGroup", func() error {
		var err error
		out, err = p.api.CreateSecurityGroup(ctx, &ec2.CreateSecurityGroupInput{
			GroupName:   aws.String(name),
			Description: aws.String(description),
		})
		return err
	})
	if err != nil {
		return cloud.SecurityGroup{}, translate(err, "failed to create security group %s", name)
	}
	p.log.V(1).Info("Created security group", "name", name, "id", aws.ToString(out.GroupId))
	return cloud.SecurityGroup{ID: aws.ToString(out.GroupId), Name: name, Description: description}, nil
}

// DeleteGroup deletes a security group. EC2 refuses while instances that
// were members are still shutting down, which is retried.
func (p *Provider) DeleteGroup(ctx context.Context, name string) error {
	err := p.do(ctx, "DeleteSecurityGroup", func() error {
		_, err := p.api.DeleteSecurityGroup(ctx, &ec2.DeleteSecurityGroupInput{GroupName: aws.String(name)})
		return err
	})
	return translate(err, "failed to delete security group %s", name)
}

// AuthorizeIngress adds rule to group.
func (p *Provider) AuthorizeIngress(ctx context.Context, group string, rule cloud.Rule) error {
	err := p.do(ctx, "AuthorizeSecurityGroupIngress", func() error {
		_, err := p.api.AuthorizeSecurityGroupIngress(ctx, &ec2.AuthorizeSecurityGroupIngressInput{
			GroupName:     aws.String(group),
			IpPermissions: []types.IpPermission{toPermission(rule)},
		})
		return err
	})
	return translate(err, "failed to authorize ingress on %s", group)
}

// RevokeIngress removes rule from group. A rule that is not present is not an
// error.
func (p *Provider) RevokeIngress(ctx context.Context, group string, rule cloud.Rule) error {
	err := p.do(ctx, "RevokeSecurityGroupIngress", func() error {
		_, err := p.api.RevokeSecurityGroupIngress(ctx, &ec2.RevokeSecurityGroupIngressInput{
			GroupName:     aws.String(group),
			IpPermissions: []types.IpPermission{toPermission(rule)},
		})
		if errorCode(err) == codePermissionNotFound {
			return nil
		}
		return err
	})
	return translate(err, "failed to revoke ingress on %s", group)
}
