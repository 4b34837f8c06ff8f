package labels

import (
	"sort"
	"strings"
)

// Standard label keys for Hetzner Cloud resources.
const (
	// KeyCluster identifies which cluster a resource belongs to
	KeyCluster = "hdcluster.io/cluster"

	// KeyRole identifies the role of a server (coordinator, worker)
	KeyRole = "hdcluster.io/role"

	// KeyReservation ties servers created by one launch request together
	KeyReservation = "hdcluster.io/reservation"

	// KeyManagedBy identifies the management system
	KeyManagedBy = "hdcluster.io/managed-by"

	// GroupPrefix prefixes one membership label per group.
	GroupPrefix = "group.hdcluster.io/"

	groupValue = "true"
)

const ManagedByHdcluster = "hdcluster"

// LabelBuilder provides a fluent interface for building Hetzner Cloud resource labels.
type LabelBuilder struct {
	labels map[string]string
}

// NewLabelBuilder creates a new label builder with the cluster name pre-set.
func NewLabelBuilder(clusterName string) *LabelBuilder {
	lb := &LabelBuilder{labels: map[string]string{KeyManagedBy: ManagedByHdcluster}}
	if clusterName != "" {
		lb.labels[KeyCluster] = clusterName
	}
	return lb
}

// WithRole sets the role label. An empty role is skipped.
func (lb *LabelBuilder) WithRole(role string) *LabelBuilder {
	if role != "" {
		lb.labels[KeyRole] = role
	}
	return lb
}

// WithGroups marks the resource as a member of every named group.
func (lb *LabelBuilder) WithGroups(groups ...string) *LabelBuilder {
	for _, g := range groups {
		lb.labels[GroupKey(g)] = groupValue
	}
	return lb
}

func (lb *LabelBuilder) WithReservation(id string) *LabelBuilder {
	if id != "" {
		lb.labels[KeyReservation] = id
	}
	return lb
}

// Merge adds all labels from the provided map.
func (lb *LabelBuilder) Merge(extra map[string]string) *LabelBuilder {
	for k, v := range extra {
		lb.labels[k] = v
	}
	return lb
}

// Build returns a copy of the labels map.
func (lb *LabelBuilder) Build() map[string]string {
	result := make(map[string]string, len(lb.labels))
	for k, v := range lb.labels {
		result[k] = v
	}
	return result
}

// GroupKey is the membership label key of a group.
func GroupKey(group string) string {
	return GroupPrefix + group
}

// GroupSelector selects every resource that is a member of group.
func GroupSelector(group string) string {
	return GroupKey(group) + "=" + groupValue
}

// Groups returns the sorted group names a label set is a member of.
func Groups(l map[string]string) []string {
	var groups []string
	for k, v := range l {
		if v != groupValue {
			continue
		}
		if g, ok := strings.CutPrefix(k, GroupPrefix); ok && g != "" {
			groups = append(groups, g)
		}
	}
	sort.Strings(groups)
	return groups
}
