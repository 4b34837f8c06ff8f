package cluster

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/hdcluster/internal/cloud"
	"github.com/imamik/hdcluster/internal/readiness"
	testutil "github.com/imamik/hdcluster/internal/testing"
	"github.com/imamik/hdcluster/internal/userdata"
)

func newTestController(t *testing.T) (*Controller, *testutil.FakeProvider) {
	t.Helper()
	provider := testutil.NewFakeProvider()
	c := NewController(provider, "test", userdata.NewRenderer("#!/bin/sh\nexport %ENV%\n"),
		readiness.Poller{Interval: time.Millisecond, Timeout: time.Second}, logr.Discard())
	return c, provider
}

func TestEnsureGroupsCreatesClusterAndRoleGroups(t *testing.T) {
	t.Parallel()
	c, provider := newTestController(t)
	ctx := context.Background()

	require.NoError(t, c.EnsureGroups(ctx, RoleCoordinator))

	cg, ok := provider.Group("test")
	require.True(t, ok)
	assert.Equal(t, []cloud.Rule{cloud.GroupRule("test"), cloud.TCPRule(22, 22, "0.0.0.0/0")}, cg.Rules)

	rg, ok := provider.Group("test-coordinator")
	require.True(t, ok)
	assert.Empty(t, rg.Rules)
}

func TestEnsureGroupsIsIdempotent(t *testing.T) {
	t.Parallel()
	c, provider := newTestController(t)
	ctx := context.Background()

	require.NoError(t, c.EnsureGroups(ctx, RoleCoordinator))
	require.NoError(t, c.EnsureGroups(ctx, RoleCoordinator))
	require.NoError(t, c.EnsureGroups(ctx, RoleWorker))

	assert.Equal(t, 3, provider.CallCount("CreateGroup"))
	cg, _ := provider.Group("test")
	assert.Len(t, cg.Rules, 2)
}

func TestEnsureGroupsWithoutGroupRules(t *testing.T) {
	t.Parallel()
	c, provider := newTestController(t)
	provider.NoGroupRules = true

	require.NoError(t, c.EnsureGroups(context.Background(), RoleWorker))

	cg, ok := provider.Group("test")
	require.True(t, ok)
	assert.Equal(t, []cloud.Rule{cloud.TCPRule(22, 22, "0.0.0.0/0")}, cg.Rules)
}

func TestAuthorizeRoleTwiceLeavesSingleRule(t *testing.T) {
	t.Parallel()
	c, provider := newTestController(t)
	ctx := context.Background()
	require.NoError(t, c.EnsureGroups(ctx, RoleCoordinator))

	require.NoError(t, c.AuthorizeRole(ctx, RoleCoordinator, 50030, 50030, "198.51.100.7/32"))
	require.NoError(t, c.AuthorizeRole(ctx, RoleCoordinator, 50030, 50030, "198.51.100.7/32"))

	g, _ := provider.Group("test-coordinator")
	assert.Equal(t, []cloud.Rule{cloud.TCPRule(50030, 50030, "198.51.100.7/32")}, g.Rules)
	assert.Equal(t, 2, provider.CallCount("RevokeIngress"))
}

func TestAuthorizeRoleRevokesBeforeAuthorizing(t *testing.T) {
	t.Parallel()
	c, provider := newTestController(t)
	ctx := context.Background()
	require.NoError(t, c.EnsureGroups(ctx, RoleCoordinator))
	provider.Calls = nil

	require.NoError(t, c.AuthorizeRole(ctx, RoleCoordinator, 80, 80, "0.0.0.0/0"))
	assert.Equal(t, []string{"RevokeIngress", "AuthorizeIngress"}, provider.Calls)
}

func TestDeleteGroups(t *testing.T) {
	t.Parallel()
	c, provider := newTestController(t)
	ctx := context.Background()
	require.NoError(t, c.EnsureGroups(ctx, RoleCoordinator))
	require.NoError(t, c.EnsureGroups(ctx, RoleWorker))

	require.NoError(t, c.DeleteGroups(ctx, Roles))
	for _, name := range []string{"test", "test-coordinator", "test-worker"} {
		_, ok := provider.Group(name)
		assert.False(t, ok, name)
	}

	// Nothing left: deleting again is a no-op.
	require.NoError(t, c.DeleteGroups(ctx, Roles))
	assert.Equal(t, 3, provider.CallCount("DeleteGroup"))
}

func TestLaunchInstances(t *testing.T) {
	t.Parallel()
	c, provider := newTestController(t)
	ctx := context.Background()

	res, err := c.LaunchInstances(ctx, LaunchRequest{
		Role:          RoleWorker,
		Count:         3,
		ImageID:       "ami-1",
		KeyName:       "key",
		InstanceType:  "m1.small",
		Substitutions: map[string]*string{"ENV": userdata.Ptr("A=1")},
	})
	require.NoError(t, err)
	require.Len(t, res.Instances, 3)
	assert.Equal(t, []string{"test", "test-worker"}, res.Groups)
	for _, inst := range res.Instances {
		assert.Equal(t, cloud.InstancePending, inst.State)
	}
	_, ok := provider.Group("test-worker")
	assert.True(t, ok)
}

func TestLaunchInstancesRejectsZeroCount(t *testing.T) {
	t.Parallel()
	c, provider := newTestController(t)

	_, err := c.LaunchInstances(context.Background(), LaunchRequest{Role: RoleWorker})
	require.Error(t, err)
	assert.Zero(t, provider.CallCount("RunInstances"))
}

func TestWaitForInstances(t *testing.T) {
	t.Parallel()
	c, provider := newTestController(t)
	provider.PendingDescribes = 3
	ctx := context.Background()

	res, err := c.LaunchInstances(ctx, LaunchRequest{Role: RoleWorker, Count: 2, ImageID: "ami-1"})
	require.NoError(t, err)

	insts, err := c.WaitForInstances(ctx, res)
	require.NoError(t, err)
	require.Len(t, insts, 2)
	for _, inst := range insts {
		assert.Equal(t, cloud.InstanceRunning, inst.State)
	}
	assert.GreaterOrEqual(t, provider.CallCount("DescribeInstances"), 4)
}

func TestWaitForInstancesTimesOut(t *testing.T) {
	t.Parallel()
	provider := testutil.NewFakeProvider()
	provider.PendingDescribes = 1000
	c := NewController(provider, "test", userdata.NewRenderer(""),
		readiness.Poller{Interval: time.Millisecond, MaxAttempts: 5}, logr.Discard())
	ctx := context.Background()

	res, err := c.LaunchInstances(ctx, LaunchRequest{Role: RoleWorker, Count: 1, ImageID: "ami-1"})
	require.NoError(t, err)

	_, err = c.WaitForInstances(ctx, res)
	assert.ErrorIs(t, err, readiness.ErrTimeout)
}

func TestWaitForInstancesCancelled(t *testing.T) {
	t.Parallel()
	c, provider := newTestController(t)
	provider.PendingDescribes = 1000
	ctx, cancel := context.WithCancel(context.Background())

	res, err := c.LaunchInstances(ctx, LaunchRequest{Role: RoleWorker, Count: 1, ImageID: "ami-1"})
	require.NoError(t, err)
	cancel()

	_, err = c.WaitForInstances(ctx, res)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInstancesInRole(t *testing.T) {
	t.Parallel()
	c, provider := newTestController(t)
	ctx := context.Background()
	provider.AddInstance(cloud.Instance{ID: "i-1", Groups: []string{"test", "test-worker"}})
	provider.AddInstance(cloud.Instance{ID: "i-2", Groups: []string{"test", "test-worker"}, State: cloud.InstanceStopped})
	provider.AddInstance(cloud.Instance{ID: "i-3", Groups: []string{"test", "test-coordinator"}})
	provider.AddInstance(cloud.Instance{ID: "i-4", Groups: []string{"other", "other-worker"}})

	running, err := c.InstancesInRole(ctx, RoleWorker, cloud.InstanceRunning)
	require.NoError(t, err)
	assert.Equal(t, []string{"i-1"}, ids(running))

	all, err := c.InstancesInRole(ctx, RoleWorker, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"i-1", "i-2"}, ids(all))

	none, err := c.InstancesInRole(ctx, "missing", "")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestCheckRunning(t *testing.T) {
	t.Parallel()
	c, provider := newTestController(t)
	ctx := context.Background()
	provider.AddInstance(cloud.Instance{ID: "i-1", Groups: []string{"test", "test-worker"}})
	provider.AddInstance(cloud.Instance{ID: "i-2", Groups: []string{"test", "test-worker"}})

	insts, err := c.CheckRunning(ctx, RoleWorker, 2)
	require.NoError(t, err)
	assert.Len(t, insts, 2)

	insts, err = c.CheckRunning(ctx, RoleWorker, 3)
	assert.Nil(t, insts)
	require.ErrorIs(t, err, ErrCountMismatch)

	var mismatch *CountMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, CountMismatchError{Role: RoleWorker, Expected: 3, Actual: 2}, *mismatch)
	assert.Equal(t, "expected 3 running instances in role worker, but found 2", err.Error())
}

func TestTerminate(t *testing.T) {
	t.Parallel()
	c, provider := newTestController(t)
	ctx := context.Background()
	provider.AddInstance(cloud.Instance{ID: "i-1", Groups: []string{"test", "test-coordinator"}})
	provider.AddInstance(cloud.Instance{ID: "i-2", Groups: []string{"test", "test-worker"}})
	provider.AddInstance(cloud.Instance{ID: "i-3", Groups: []string{"other", "other-worker"}})

	terminated, err := c.Terminate(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"i-1", "i-2"}, terminated)

	left, err := c.InstancesInGroup(ctx, "other", cloud.InstanceRunning)
	require.NoError(t, err)
	assert.Len(t, left, 1)

	again, err := c.Terminate(ctx)
	require.NoError(t, err)
	assert.Empty(t, again)
	assert.Equal(t, 1, provider.CallCount("TerminateInstances"))
}

func TestStatus(t *testing.T) {
	t.Parallel()
	c, provider := newTestController(t)
	provider.AddInstance(cloud.Instance{ID: "i-1", Groups: []string{"test", "test-worker"}})
	provider.AddInstance(cloud.Instance{ID: "i-2", Groups: []string{"test", "test-coordinator"}})

	rows, err := c.Status(context.Background(), Roles, cloud.InstanceRunning)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, InstanceStatus{Role: RoleCoordinator, Instance: rows[0].Instance}, rows[0])
	assert.Equal(t, "i-2", rows[0].Instance.ID)
	assert.Equal(t, RoleWorker, rows[1].Role)
}

func ids(insts []cloud.Instance) []string {
	out := make([]string, 0, len(insts))
	for _, i := range insts {
		out = append(out, i.ID)
	}
	return out
}
