package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error

	switch c.Provider {
	case ProviderEC2:
		if c.EC2.Region == "" {
			errs = append(errs, errors.New("ec2.region is required"))
		}
	case ProviderHCloud:
		if c.Credentials.HCloudToken == "" {
			errs = append(errs, fmt.Errorf("credentials.hcloud_token is required for provider %q (or set %s)", ProviderHCloud, EnvHCloudToken))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid provider %q: must be %q or %q", c.Provider, ProviderEC2, ProviderHCloud))
	}

	if c.StateDir == "" {
		errs = append(errs, errors.New("state_dir is required"))
	}

	for _, cidr := range c.ClientCIDRs {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errs = append(errs, fmt.Errorf("invalid client CIDR %q: %w", cidr, err))
		}
	}

	switch c.Manifest.Backend {
	case ManifestBackendFile:
	case ManifestBackendS3:
		if c.Manifest.Bucket == "" {
			errs = append(errs, errors.New("manifest.bucket is required for the s3 backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid manifest backend %q: must be %q or %q", c.Manifest.Backend, ManifestBackendFile, ManifestBackendS3))
	}

	if c.Bootstrap.AutoShutdown != "" {
		if n, err := strconv.Atoi(c.Bootstrap.AutoShutdown); err != nil || n <= 0 {
			errs = append(errs, fmt.Errorf("bootstrap.auto_shutdown must be a positive number of minutes, got %q", c.Bootstrap.AutoShutdown))
		}
	}
	for _, kv := range c.Bootstrap.Env {
		if k, _, ok := strings.Cut(kv, "="); !ok || k == "" {
			errs = append(errs, fmt.Errorf("bootstrap.env entry %q must have the form KEY=VALUE", kv))
		}
	}

	if c.Service.Port < 1 || c.Service.Port > 65535 {
		errs = append(errs, fmt.Errorf("service.port %d is out of range", c.Service.Port))
	}
	if !strings.HasPrefix(c.Service.Path, "/") {
		errs = append(errs, fmt.Errorf("service.path %q must start with /", c.Service.Path))
	}

	if c.Timeouts.PollInterval <= 0 {
		errs = append(errs, errors.New("timeouts.poll_interval must be positive"))
	}
	if c.Timeouts.RetryMaxAttempts < 0 {
		errs = append(errs, errors.New("timeouts.retry_max_attempts must not be negative"))
	}

	return errors.Join(errs...)
}
