package provisioning

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/imamik/hdcluster/internal/cloud"
	"github.com/imamik/hdcluster/internal/cluster"
	"github.com/imamik/hdcluster/internal/config"
	"github.com/imamik/hdcluster/internal/metrics"
	"github.com/imamik/hdcluster/internal/readiness"
	"github.com/imamik/hdcluster/internal/storage"
)

// State holds the shared results of provisioning phases.
// It is progressively populated as each phase completes and is passed
// to subsequent phases that need earlier results.
type State struct {
	Coordinator      *cloud.Instance
	Workers          []cloud.Instance
	ClientCIDRs      []string
	ClientConfigPath string
	Attached         map[string]storage.AttachResult
	// WorkerCount is the last count reported by the coordinator.
	WorkerCount int
	Terminated  []string
}

// NewState creates an empty provisioning state.
func NewState() *State {
	return &State{Attached: make(map[string]storage.AttachResult)}
}

// Context wraps all dependencies and state needed for a provisioning phase.
type Context struct {
	context.Context
	Config   *config.Config
	State    *State
	Cluster  *cluster.Controller
	Storage  *storage.Orchestrator
	Observer Observer
	Timeouts *config.Timeouts
	// Metrics, when set, counts readiness poll attempts.
	Metrics *metrics.Recorder

	PublicIP PublicIPSource
	Resolver Resolver
	// NewProbe returns the worker counter of a coordinator host.
	NewProbe func(host string) readiness.Counter
	// Sleep waits for d or until ctx ends.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewContext creates a new provisioning context.
func NewContext(
	ctx context.Context,
	cfg *config.Config,
	controller *cluster.Controller,
	orchestrator *storage.Orchestrator,
	observer Observer,
) *Context {
	return &Context{
		Context:  ctx,
		Config:   cfg,
		State:    NewState(),
		Cluster:  controller,
		Storage:  orchestrator,
		Observer: observer,
		Timeouts: &cfg.Timeouts,
		PublicIP: &HTTPPublicIP{URL: CheckIPURL, Client: http.DefaultClient},
		Resolver: net.DefaultResolver,
		NewProbe: func(host string) readiness.Counter {
			p := readiness.NewProbe(host, cfg.Service.Port, cfg.Service.Path)
			if cfg.Timeouts.ProbeRequest > 0 {
				p.RequestTimeout = cfg.Timeouts.ProbeRequest
			}
			return p
		},
		Sleep: sleep,
	}
}

// Poller returns a poller using the configured interval, bounded by timeout
// and counted under wait when metrics are enabled.
func (c *Context) Poller(wait string, timeout time.Duration) readiness.Poller {
	p := readiness.Poller{Interval: c.Timeouts.PollInterval, Timeout: timeout}
	if c.Metrics != nil {
		p.OnAttempt = c.Metrics.OnAttempt(wait)
	}
	return p
}

// coordinator returns the running coordinator, recording it in the state.
// Anything but exactly one running coordinator is an error.
func (c *Context) coordinator() (cloud.Instance, error) {
	if c.State.Coordinator != nil {
		return *c.State.Coordinator, nil
	}
	insts, err := c.Cluster.CheckRunning(c, cluster.RoleCoordinator, 1)
	if err != nil {
		return cloud.Instance{}, err
	}
	c.State.Coordinator = &insts[0]
	return insts[0], nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
