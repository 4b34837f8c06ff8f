package testing

import (
	"context"

	"github.com/imamik/hdcluster/internal/cloud"
	"github.com/imamik/hdcluster/internal/util/naming"
)

// ClusterFixture describes a cluster seeded into a FakeProvider.
type ClusterFixture struct {
	Name        string
	Coordinator string
	Workers     []string
}

// SeedCluster creates the cluster and role groups of name and adds a running
// coordinator and the given number of running workers.
func SeedCluster(f *FakeProvider, name string, workers int) ClusterFixture {
	ctx := context.Background()
	for _, group := range []string{
		naming.ClusterGroup(name),
		naming.RoleGroup(name, "coordinator"),
		naming.RoleGroup(name, "worker"),
	} {
		_, _ = f.CreateGroup(ctx, group, "fixture")
	}

	fixture := ClusterFixture{Name: name}
	fixture.Coordinator = f.AddInstance(cloud.Instance{
		ImageID:        "ami-1",
		InstanceType:   "m1.large",
		Placement:      "us-east-1a",
		PublicDNSName:  name + "-coordinator.public.example",
		PrivateDNSName: name + "-coordinator.internal.example",
		Groups:         []string{naming.ClusterGroup(name), naming.RoleGroup(name, "coordinator")},
	})
	for range workers {
		fixture.Workers = append(fixture.Workers, f.AddInstance(cloud.Instance{
			ImageID:      "ami-1",
			InstanceType: "m1.large",
			Placement:    "us-east-1a",
			Groups:       []string{naming.ClusterGroup(name), naming.RoleGroup(name, "worker")},
		}))
	}
	return fixture
}
