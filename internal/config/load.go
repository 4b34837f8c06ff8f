package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override credentials from the config file.
const (
	EnvAWSAccessKeyID     = "AWS_ACCESS_KEY_ID"
	EnvAWSSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	EnvHCloudToken        = "HCLOUD_TOKEN"
)

// LoadEnvFile loads KEY=VALUE pairs from a dotenv file into the process
// environment without overriding variables that are already set. A missing
// file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// Load reads the configuration from path, applies defaults and environment
// overrides, and validates the result. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{Timeouts: DefaultTimeouts()}
	if path != "" {
		// #nosec G304
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAWSAccessKeyID); v != "" {
		c.Credentials.AWSAccessKeyID = v
	}
	if v := os.Getenv(EnvAWSSecretAccessKey); v != "" {
		c.Credentials.AWSSecretAccessKey = v
	}
	if v := os.Getenv(EnvHCloudToken); v != "" {
		c.Credentials.HCloudToken = v
	}
	c.Timeouts.applyEnv()
}
