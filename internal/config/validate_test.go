package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Provider = "gce" },
			wantErr: `invalid provider "gce"`,
		},
		{
			name:    "hcloud without token",
			mutate:  func(c *Config) { c.Provider = ProviderHCloud },
			wantErr: "credentials.hcloud_token is required",
		},
		{
			name: "hcloud with token",
			mutate: func(c *Config) {
				c.Provider = ProviderHCloud
				c.Credentials.HCloudToken = "t"
			},
		},
		{
			name:    "bad client cidr",
			mutate:  func(c *Config) { c.ClientCIDRs = []string{"10.0.0.1"} },
			wantErr: `invalid client CIDR "10.0.0.1"`,
		},
		{
			name:    "s3 manifest without bucket",
			mutate:  func(c *Config) { c.Manifest.Backend = ManifestBackendS3 },
			wantErr: "manifest.bucket is required",
		},
		{
			name:    "unknown manifest backend",
			mutate:  func(c *Config) { c.Manifest.Backend = "etcd" },
			wantErr: `invalid manifest backend "etcd"`,
		},
		{
			name:    "auto shutdown not a number",
			mutate:  func(c *Config) { c.Bootstrap.AutoShutdown = "soon" },
			wantErr: "bootstrap.auto_shutdown",
		},
		{
			name:    "env entry without value",
			mutate:  func(c *Config) { c.Bootstrap.Env = []string{"JAVA_OPTS"} },
			wantErr: `bootstrap.env entry "JAVA_OPTS"`,
		},
		{
			name:    "service path",
			mutate:  func(c *Config) { c.Service.Path = "status" },
			wantErr: "service.path",
		},
		{
			name:    "poll interval",
			mutate:  func(c *Config) { c.Timeouts.PollInterval = 0 },
			wantErr: "timeouts.poll_interval must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Provider = "gce"
	cfg.Service.Port = 0

	err := cfg.Validate()
	assert.ErrorContains(t, err, "invalid provider")
	assert.ErrorContains(t, err, "service.port 0 is out of range")
}
