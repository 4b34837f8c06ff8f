package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable timeout values.
// These values can be customized in the config file and via environment
// variables, which take precedence.
type Timeouts struct {
	PollInterval      time.Duration `yaml:"poll_interval"`       // Interval between readiness polls
	InstanceWait      time.Duration `yaml:"instance_wait"`       // Timeout for instances to reach running
	ServiceWait       time.Duration `yaml:"service_wait"`        // Timeout for the cluster service to come up
	VolumeWait        time.Duration `yaml:"volume_wait"`         // Timeout for volume state transitions
	AttachSettle      time.Duration `yaml:"attach_settle"`       // Delay before attaching storage to new instances
	SnapshotSettle    time.Duration `yaml:"snapshot_settle"`     // Delay before attaching the scratch volume of a snapshot
	ProbeRequest      time.Duration `yaml:"probe_request"`       // Timeout of a single status probe request
	Delete            time.Duration `yaml:"delete"`              // Timeout for delete operations
	RetryMaxAttempts  int           `yaml:"retry_max_attempts"`  // Maximum number of retry attempts
	RetryInitialDelay time.Duration `yaml:"retry_initial_delay"` // Initial delay between retries
}

// DefaultTimeouts returns the built-in timeout values.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		PollInterval:      1 * time.Second,
		InstanceWait:      10 * time.Minute,
		ServiceWait:       30 * time.Minute,
		VolumeWait:        10 * time.Minute,
		AttachSettle:      10 * time.Second,
		SnapshotSettle:    60 * time.Second,
		ProbeRequest:      5 * time.Second,
		Delete:            5 * time.Minute,
		RetryMaxAttempts:  5,
		RetryInitialDelay: 1 * time.Second,
	}
}

// LoadTimeouts returns the defaults overridden from environment variables.
// If an environment variable is not set or invalid, the default is kept.
//
// Environment Variables:
//   - HDCLUSTER_POLL_INTERVAL (default: 1s)
//   - HDCLUSTER_TIMEOUT_INSTANCE_WAIT (default: 10m)
//   - HDCLUSTER_TIMEOUT_SERVICE_WAIT (default: 30m)
//   - HDCLUSTER_TIMEOUT_VOLUME_WAIT (default: 10m)
//   - HDCLUSTER_ATTACH_SETTLE (default: 10s)
//   - HDCLUSTER_SNAPSHOT_SETTLE (default: 60s)
//   - HDCLUSTER_TIMEOUT_PROBE (default: 5s)
//   - HDCLUSTER_TIMEOUT_DELETE (default: 5m)
//   - HDCLUSTER_RETRY_MAX_ATTEMPTS (default: 5)
//   - HDCLUSTER_RETRY_INITIAL_DELAY (default: 1s)
func LoadTimeouts() *Timeouts {
	t := DefaultTimeouts()
	t.applyEnv()
	return &t
}

func (t *Timeouts) applyEnv() {
	t.PollInterval = parseDuration("HDCLUSTER_POLL_INTERVAL", t.PollInterval)
	t.InstanceWait = parseDuration("HDCLUSTER_TIMEOUT_INSTANCE_WAIT", t.InstanceWait)
	t.ServiceWait = parseDuration("HDCLUSTER_TIMEOUT_SERVICE_WAIT", t.ServiceWait)
	t.VolumeWait = parseDuration("HDCLUSTER_TIMEOUT_VOLUME_WAIT", t.VolumeWait)
	t.AttachSettle = parseDuration("HDCLUSTER_ATTACH_SETTLE", t.AttachSettle)
	t.SnapshotSettle = parseDuration("HDCLUSTER_SNAPSHOT_SETTLE", t.SnapshotSettle)
	t.ProbeRequest = parseDuration("HDCLUSTER_TIMEOUT_PROBE", t.ProbeRequest)
	t.Delete = parseDuration("HDCLUSTER_TIMEOUT_DELETE", t.Delete)
	t.RetryMaxAttempts = parseInt("HDCLUSTER_RETRY_MAX_ATTEMPTS", t.RetryMaxAttempts)
	t.RetryInitialDelay = parseDuration("HDCLUSTER_RETRY_INITIAL_DELAY", t.RetryInitialDelay)
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
