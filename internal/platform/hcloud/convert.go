package hcloud

import (
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/hdcluster/internal/cloud"
	"github.com/imamik/hdcluster/internal/util/labels"
)

func toFirewallRule(r cloud.Rule) (hcloud.FirewallRule, error) {
	if r.SourceGroup != "" {
		return hcloud.FirewallRule{}, fmt.Errorf("group-sourced rule from %s: %w", r.SourceGroup, cloud.ErrUnsupported)
	}
	_, ipNet, err := net.ParseCIDR(r.CIDR)
	if err != nil {
		return hcloud.FirewallRule{}, fmt.Errorf("invalid rule source %q: %w", r.CIDR, err)
	}

	rule := hcloud.FirewallRule{
		Direction: hcloud.FirewallRuleDirectionIn,
		Protocol:  hcloud.FirewallRuleProtocol(r.Protocol),
		SourceIPs: []net.IPNet{*ipNet},
	}
	switch rule.Protocol {
	case hcloud.FirewallRuleProtocolTCP, hcloud.FirewallRuleProtocolUDP:
		port := strconv.Itoa(r.FromPort)
		if r.ToPort != r.FromPort {
			port += "-" + strconv.Itoa(r.ToPort)
		}
		rule.Port = hcloud.Ptr(port)
	case hcloud.FirewallRuleProtocolICMP:
	default:
		return hcloud.FirewallRule{}, fmt.Errorf("protocol %q: %w", r.Protocol, cloud.ErrUnsupported)
	}
	return rule, nil
}

// fromFirewallRule expands a firewall rule into one cloud rule per source.
func fromFirewallRule(r hcloud.FirewallRule) []cloud.Rule {
	if r.Direction != hcloud.FirewallRuleDirectionIn {
		return nil
	}
	from, to := parsePortRange(r.Port)
	rules := make([]cloud.Rule, 0, len(r.SourceIPs))
	for _, src := range r.SourceIPs {
		rules = append(rules, cloud.Rule{
			Protocol: string(r.Protocol),
			FromPort: from,
			ToPort:   to,
			CIDR:     src.String(),
		})
	}
	return rules
}

func parsePortRange(port *string) (int, int) {
	if port == nil {
		return 0, 0
	}
	lo, hi, found := strings.Cut(*port, "-")
	from, _ := strconv.Atoi(lo)
	if !found {
		return from, from
	}
	to, _ := strconv.Atoi(hi)
	return from, to
}

// removeSource drops the source of target from every matching inbound rule.
// Rules left without sources are removed.
func removeSource(rules []hcloud.FirewallRule, target hcloud.FirewallRule) ([]hcloud.FirewallRule, bool) {
	src := target.SourceIPs[0].String()
	changed := false
	out := make([]hcloud.FirewallRule, 0, len(rules))
	for _, r := range rules {
		if r.Direction != target.Direction || r.Protocol != target.Protocol || !samePort(r.Port, target.Port) {
			out = append(out, r)
			continue
		}
		kept := slices.DeleteFunc(slices.Clone(r.SourceIPs), func(n net.IPNet) bool {
			return n.String() == src
		})
		if len(kept) == len(r.SourceIPs) {
			out = append(out, r)
			continue
		}
		changed = true
		if len(kept) > 0 {
			r.SourceIPs = kept
			out = append(out, r)
		}
	}
	return out, changed
}

func samePort(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func toSecurityGroup(fw *hcloud.Firewall) cloud.SecurityGroup {
	g := cloud.SecurityGroup{
		ID:   strconv.FormatInt(fw.ID, 10),
		Name: fw.Name,
	}
	for _, r := range fw.Rules {
		g.Rules = append(g.Rules, fromFirewallRule(r)...)
	}
	return g
}

func toInstanceState(s hcloud.ServerStatus) cloud.InstanceState {
	switch s {
	case hcloud.ServerStatusRunning:
		return cloud.InstanceRunning
	case hcloud.ServerStatusStopping:
		return cloud.InstanceStopping
	case hcloud.ServerStatusOff:
		return cloud.InstanceStopped
	case hcloud.ServerStatusDeleting:
		return cloud.InstanceShuttingDown
	default:
		return cloud.InstancePending
	}
}

func toInstance(s *hcloud.Server) cloud.Instance {
	inst := cloud.Instance{
		ID:         strconv.FormatInt(s.ID, 10),
		KeyName:    s.Labels[keyNameLabel],
		State:      toInstanceState(s.Status),
		LaunchTime: s.Created,
		Groups:     labels.Groups(s.Labels),
	}
	if s.ServerType != nil {
		inst.InstanceType = s.ServerType.Name
	}
	if s.Image != nil {
		inst.ImageID = s.Image.Name
		if inst.ImageID == "" {
			inst.ImageID = strconv.FormatInt(s.Image.ID, 10)
		}
	}
	if s.Datacenter != nil && s.Datacenter.Location != nil {
		inst.Placement = s.Datacenter.Location.Name
	}
	if ip := s.PublicNet.IPv4.IP; ip != nil && !ip.IsUnspecified() {
		inst.PublicIP = ip.String()
		inst.PublicDNSName = s.PublicNet.IPv4.DNSPtr
	}
	for _, pn := range s.PrivateNet {
		if pn.IP != nil {
			inst.PrivateIP = pn.IP.String()
			break
		}
	}
	return inst
}

func toVolume(v *hcloud.Volume) cloud.Volume {
	vol := cloud.Volume{
		ID:         strconv.FormatInt(v.ID, 10),
		Size:       v.Size,
		CreateTime: v.Created,
		Status:     cloud.VolumeCreating,
	}
	if v.Location != nil {
		vol.AvailabilityZone = v.Location.Name
	}
	if v.Status == hcloud.VolumeStatusAvailable {
		vol.Status = cloud.VolumeAvailable
	}
	if v.Server != nil {
		vol.Status = cloud.VolumeInUse
		vol.Attachment = &cloud.VolumeAttachment{
			InstanceID: strconv.FormatInt(v.Server.ID, 10),
			Device:     v.LinuxDevice,
		}
	}
	return vol
}

func parseID(kind, id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s id %q: %w", kind, id, cloud.ErrNotFound)
	}
	return n, nil
}
