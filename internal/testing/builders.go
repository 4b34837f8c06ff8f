package testing

import (
	"slices"
	"time"

	"github.com/imamik/hdcluster/internal/config"
)

// ConfigBuilder provides a fluent interface for constructing test configs.
// Each method returns a new builder (immutable) for chaining.
type ConfigBuilder struct {
	cfg config.Config
}

// NewConfigBuilder creates a new ConfigBuilder starting from the defaults
// with a complete instance section and fake credentials.
func NewConfigBuilder() *ConfigBuilder {
	cfg := *config.Default()
	cfg.Instance = config.InstanceConfig{
		Image:     "ami-1",
		KeyName:   "ops",
		Type:      "m1.large",
		Placement: "us-east-1a",
	}
	cfg.Credentials = config.Credentials{
		AWSAccessKeyID:     "AKIA",
		AWSSecretAccessKey: "secret",
	}
	return &ConfigBuilder{cfg: cfg}
}

// WithStateDir sets the directory holding manifests and client config.
func (b *ConfigBuilder) WithStateDir(dir string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.StateDir = dir
	return newBuilder
}

// WithUserDataTemplate sets the bootstrap template path.
func (b *ConfigBuilder) WithUserDataTemplate(path string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.UserDataTemplate = path
	return newBuilder
}

// WithInstance sets the coordinator launch defaults.
func (b *ConfigBuilder) WithInstance(image, keyName, instanceType, placement string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Instance = config.InstanceConfig{
		Image:     image,
		KeyName:   keyName,
		Type:      instanceType,
		Placement: placement,
	}
	return newBuilder
}

// WithClientCIDRs sets the ranges allowed to reach the web ports.
func (b *ConfigBuilder) WithClientCIDRs(cidrs ...string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.ClientCIDRs = slices.Clone(cidrs)
	return newBuilder
}

// WithFastTimeouts shrinks every wait so polling tests finish quickly and
// disables the settle delays.
func (b *ConfigBuilder) WithFastTimeouts() *ConfigBuilder {
	newBuilder := b.clone()
	t := &newBuilder.cfg.Timeouts
	t.PollInterval = time.Millisecond
	t.InstanceWait = time.Second
	t.ServiceWait = time.Second
	t.VolumeWait = time.Second
	t.AttachSettle = 0
	t.SnapshotSettle = 0
	t.RetryInitialDelay = time.Millisecond
	return newBuilder
}

// Build returns the constructed config.
func (b *ConfigBuilder) Build() *config.Config {
	cfg := b.clone().cfg
	return &cfg
}

// clone creates a deep copy of the builder for immutability.
func (b *ConfigBuilder) clone() *ConfigBuilder {
	newCfg := b.cfg
	newCfg.ClientCIDRs = slices.Clone(b.cfg.ClientCIDRs)
	newCfg.Bootstrap.Env = slices.Clone(b.cfg.Bootstrap.Env)
	return &ConfigBuilder{cfg: newCfg}
}
