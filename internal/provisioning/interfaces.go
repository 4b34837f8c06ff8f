package provisioning

import "context"

// Phase defines the interface for a provisioning phase.
type Phase interface {
	// Name returns the human-readable name of this phase.
	Name() string

	// Provision executes the provisioning logic for this phase.
	Provision(ctx *Context) error
}

// PublicIPSource reports the public IPv4 address of the machine running the
// command. Implemented by HTTPPublicIP and the Hetzner provider.
type PublicIPSource interface {
	GetPublicIP(ctx context.Context) (string, error)
}

// Resolver resolves host names. Implemented by *net.Resolver.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}
