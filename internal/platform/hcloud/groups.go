package hcloud

import (
	"context"
	"fmt"
	"slices"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/hdcluster/internal/cloud"
	"github.com/imamik/hdcluster/internal/util/labels"
)

// Groups map onto firewalls. A firewall named after the group is applied to
// every server carrying the group's membership label.

// ListGroups returns the hdcluster firewalls with the given names, or all of
// them when no name is given.
func (p *Provider) ListGroups(ctx context.Context, names ...string) ([]cloud.SecurityGroup, error) {
	var firewalls []*hcloud.Firewall
	err := p.do(ctx, "ListFirewalls", func() error {
		var err error
		firewalls, err = p.client.Firewall.AllWithOpts(ctx, hcloud.FirewallListOpts{
			ListOpts: hcloud.ListOpts{LabelSelector: managedSelector("")},
		})
		return err
	})
	if err != nil {
		return nil, translate(err, "failed to list firewalls")
	}

	var groups []cloud.SecurityGroup
	for _, fw := range firewalls {
		if len(names) > 0 && !slices.Contains(names, fw.Name) {
			continue
		}
		groups = append(groups, toSecurityGroup(fw))
	}
	return groups, nil
}

// CreateGroup creates the firewall for a group. An existing hdcluster
// firewall of the same name is returned unchanged.
func (p *Provider) CreateGroup(ctx context.Context, name, description string) (cloud.SecurityGroup, error) {
	fw, err := (&EnsureOperation[*hcloud.Firewall, hcloud.FirewallCreateOpts]{
		Name:         name,
		ResourceType: "firewall",
		Get:          p.client.Firewall.Get,
		Create:       p.createFirewall,
		Validate: func(fw *hcloud.Firewall) error {
			if fw.Labels[labels.KeyManagedBy] != labels.ManagedByHdcluster {
				return fmt.Errorf("firewall %s exists but is not managed by hdcluster", name)
			}
			return nil
		},
		CreateOptsMapper: func() hcloud.FirewallCreateOpts {
			return hcloud.FirewallCreateOpts{
				Name:   name,
				Labels: labels.NewLabelBuilder("").Build(),
				ApplyTo: []hcloud.FirewallResource{{
					Type:          hcloud.FirewallResourceTypeLabelSelector,
					LabelSelector: &hcloud.FirewallResourceLabelSelector{Selector: labels.GroupSelector(name)},
				}},
			}
		},
	}).Execute(ctx, p)
	if err != nil {
		return cloud.SecurityGroup{}, err
	}

	group := toSecurityGroup(fw)
	group.Description = description
	p.log.V(1).Info("Firewall ready", "name", name, "id", fw.ID)
	return group, nil
}

func (p *Provider) createFirewall(ctx context.Context, opts hcloud.FirewallCreateOpts) (*CreateResult[*hcloud.Firewall], *hcloud.Response, error) {
	res, resp, err := p.client.Firewall.Create(ctx, opts)
	if err != nil {
		return nil, resp, err
	}
	return &CreateResult[*hcloud.Firewall]{
		Resource: res.Firewall,
		Actions:  res.Actions,
	}, resp, nil
}

// DeleteGroup deletes the firewall of a group. Deleting a missing group
// yields an error wrapping cloud.ErrNotFound.
func (p *Provider) DeleteGroup(ctx context.Context, name string) error {
	return (&DeleteOperation[*hcloud.Firewall]{
		Name:         name,
		ResourceType: "firewall",
		Get:          p.client.Firewall.Get,
		Delete:       p.client.Firewall.Delete,
		Missing:      cloud.ErrNotFound,
	}).Execute(ctx, p)
}

// AuthorizeIngress adds rule to the group's firewall. Adding a rule that is
// already present is a no-op. Group-sourced rules are not expressible.
func (p *Provider) AuthorizeIngress(ctx context.Context, group string, rule cloud.Rule) error {
	want, err := toFirewallRule(rule)
	if err != nil {
		return err
	}
	fw, err := p.getFirewall(ctx, group)
	if err != nil {
		return err
	}
	if toSecurityGroup(fw).HasRule(fromFirewallRule(want)[0]) {
		return nil
	}
	rules := append(slices.Clone(fw.Rules), want)
	return p.setRules(ctx, fw, rules)
}

// RevokeIngress removes rule from the group's firewall.
func (p *Provider) RevokeIngress(ctx context.Context, group string, rule cloud.Rule) error {
	target, err := toFirewallRule(rule)
	if err != nil {
		return err
	}
	fw, err := p.getFirewall(ctx, group)
	if err != nil {
		return err
	}
	rules, changed := removeSource(fw.Rules, target)
	if !changed {
		return nil
	}
	return p.setRules(ctx, fw, rules)
}

func (p *Provider) getFirewall(ctx context.Context, name string) (*hcloud.Firewall, error) {
	var fw *hcloud.Firewall
	err := p.do(ctx, "GetFirewall", func() error {
		var err error
		fw, _, err = p.client.Firewall.Get(ctx, name)
		return err
	})
	if err != nil {
		return nil, translate(err, "failed to get firewall %s", name)
	}
	if fw == nil {
		return nil, fmt.Errorf("firewall %s: %w", name, cloud.ErrNotFound)
	}
	return fw, nil
}

func (p *Provider) setRules(ctx context.Context, fw *hcloud.Firewall, rules []hcloud.FirewallRule) error {
	var actions []*hcloud.Action
	err := p.do(ctx, "SetFirewallRules", func() error {
		var err error
		actions, _, err = p.client.Firewall.SetRules(ctx, fw, hcloud.FirewallSetRulesOpts{Rules: rules})
		return err
	})
	if err != nil {
		return translate(err, "failed to set rules of firewall %s", fw.Name)
	}
	if err := waitForActions(ctx, p.client, actions...); err != nil {
		return fmt.Errorf("failed to wait for rules of firewall %s: %w", fw.Name, err)
	}
	return nil
}
