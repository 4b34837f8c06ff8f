package cluster

import (
	"context"
	"fmt"
	"sort"

	"github.com/imamik/hdcluster/internal/cloud"
	"github.com/imamik/hdcluster/internal/util/naming"
)

// ListClusters returns the names of clusters with a running instance in role.
func ListClusters(ctx context.Context, provider cloud.InstanceManager, role string) ([]string, error) {
	insts, err := provider.DescribeInstances(ctx, cloud.InstanceFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to describe instances: %w", err)
	}
	seen := map[string]bool{}
	for _, inst := range insts {
		if inst.State != cloud.InstanceRunning {
			continue
		}
		for _, g := range inst.Groups {
			if name, ok := naming.ClusterFromRoleGroup(g, role); ok {
				seen[name] = true
			}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}
