package ec2

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/imamik/hdcluster/internal/cloud"
)

func toPermission(rule cloud.Rule) types.IpPermission {
	perm := types.IpPermission{IpProtocol: aws.String(rule.Protocol)}
	if rule.SourceGroup != "" {
		perm.UserIdGroupPairs = []types.UserIdGroupPair{{GroupName: aws.String(rule.SourceGroup)}}
		// Group-sourced rules cover every protocol and port.
		if rule.Protocol == "" {
			perm.IpProtocol = aws.String("-1")
		}
		return perm
	}
	perm.FromPort = aws.Int32(int32(rule.FromPort))
	perm.ToPort = aws.Int32(int32(rule.ToPort))
	perm.IpRanges = []types.IpRange{{CidrIp: aws.String(rule.CIDR)}}
	return perm
}

func toRules(perms []types.IpPermission) []cloud.Rule {
	var rules []cloud.Rule
	for _, perm := range perms {
		proto := aws.ToString(perm.IpProtocol)
		for _, r := range perm.IpRanges {
			rules = append(rules, cloud.Rule{
				Protocol: proto,
				FromPort: int(aws.ToInt32(perm.FromPort)),
				ToPort:   int(aws.ToInt32(perm.ToPort)),
				CIDR:     aws.ToString(r.CidrIp),
			})
		}
		for _, pair := range perm.UserIdGroupPairs {
			name := aws.ToString(pair.GroupName)
			if name == "" {
				name = aws.ToString(pair.GroupId)
			}
			rules = append(rules, cloud.GroupRule(name))
		}
	}
	return rules
}

func toSecurityGroup(g types.SecurityGroup) cloud.SecurityGroup {
	return cloud.SecurityGroup{
		ID:          aws.ToString(g.GroupId),
		Name:        aws.ToString(g.GroupName),
		Description: aws.ToString(g.Description),
		Rules:       toRules(g.IpPermissions),
	}
}

func toInstance(inst types.Instance, groups []types.GroupIdentifier) cloud.Instance {
	out := cloud.Instance{
		ID:             aws.ToString(inst.InstanceId),
		ImageID:        aws.ToString(inst.ImageId),
		KeyName:        aws.ToString(inst.KeyName),
		InstanceType:   string(inst.InstanceType),
		PublicDNSName:  aws.ToString(inst.PublicDnsName),
		PrivateDNSName: aws.ToString(inst.PrivateDnsName),
		PublicIP:       aws.ToString(inst.PublicIpAddress),
		PrivateIP:      aws.ToString(inst.PrivateIpAddress),
		LaunchTime:     aws.ToTime(inst.LaunchTime),
	}
	if inst.Placement != nil {
		out.Placement = aws.ToString(inst.Placement.AvailabilityZone)
	}
	if inst.State != nil {
		out.State = cloud.InstanceState(inst.State.Name)
	}
	if len(inst.SecurityGroups) > 0 {
		groups = inst.SecurityGroups
	}
	for _, g := range groups {
		out.Groups = append(out.Groups, aws.ToString(g.GroupName))
	}
	return out
}

func toVolume(v types.Volume) cloud.Volume {
	out := cloud.Volume{
		ID:               aws.ToString(v.VolumeId),
		Size:             int(aws.ToInt32(v.Size)),
		SnapshotID:       aws.ToString(v.SnapshotId),
		AvailabilityZone: aws.ToString(v.AvailabilityZone),
		Status:           cloud.VolumeStatus(v.State),
		CreateTime:       aws.ToTime(v.CreateTime),
	}
	if len(v.Attachments) > 0 {
		a := v.Attachments[0]
		out.Attachment = &cloud.VolumeAttachment{
			InstanceID: aws.ToString(a.InstanceId),
			Device:     aws.ToString(a.Device),
			AttachTime: aws.ToTime(a.AttachTime),
		}
	}
	return out
}
