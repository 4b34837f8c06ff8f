package config

import (
	"os"
	"path/filepath"
)

// Supported providers.
const (
	ProviderEC2    = "ec2"
	ProviderHCloud = "hcloud"
)

// Supported manifest backends.
const (
	ManifestBackendFile = "file"
	ManifestBackendS3   = "s3"
)

// Config is the operator configuration.
type Config struct {
	// Provider selects the cloud: "ec2" or "hcloud".
	Provider string `yaml:"provider"`
	// StateDir holds storage manifests and per-cluster client configuration.
	StateDir string `yaml:"state_dir"`
	// UserDataTemplate is the path of the instance bootstrap script template.
	UserDataTemplate string `yaml:"user_data_template"`
	// ClientCIDRs may reach the coordinator's web ports. When empty the
	// public address of this machine is used.
	ClientCIDRs []string `yaml:"client_cidrs"`

	Instance    InstanceConfig  `yaml:"instance"`
	Credentials Credentials     `yaml:"credentials"`
	EC2         EC2Config       `yaml:"ec2"`
	HCloud      HCloudConfig    `yaml:"hcloud"`
	Manifest    ManifestConfig  `yaml:"manifest"`
	Bootstrap   BootstrapConfig `yaml:"bootstrap"`
	SSH         SSHConfig       `yaml:"ssh"`
	Service     ServiceConfig   `yaml:"service"`
	Timeouts    Timeouts        `yaml:"timeouts"`
}

// InstanceConfig holds the defaults for launching a coordinator. Workers
// inherit these from the running coordinator.
type InstanceConfig struct {
	Image     string `yaml:"image"`
	KeyName   string `yaml:"key_name"`
	Type      string `yaml:"type"`
	Placement string `yaml:"placement"`
}

// Credentials are passed to instances and embedded in client configuration.
type Credentials struct {
	AWSAccessKeyID     string `yaml:"aws_access_key_id"`
	AWSSecretAccessKey string `yaml:"aws_secret_access_key"`
	HCloudToken        string `yaml:"hcloud_token"`
}

// EC2Config configures the EC2 provider.
type EC2Config struct {
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

// HCloudConfig configures the Hetzner Cloud provider.
type HCloudConfig struct {
	Endpoint string `yaml:"endpoint"`
}

// ManifestConfig selects where storage manifests are kept.
type ManifestConfig struct {
	Backend      string `yaml:"backend"`
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	Endpoint     string `yaml:"endpoint"`
	Region       string `yaml:"region"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

// BootstrapConfig is rendered into the environment of every instance.
type BootstrapConfig struct {
	UserPackages string `yaml:"user_packages"`
	// AutoShutdown is the number of minutes after which instances shut
	// themselves down. Empty disables it.
	AutoShutdown string   `yaml:"auto_shutdown"`
	Env          []string `yaml:"env"`
}

// SSHConfig is used to format volumes on scratch instances.
type SSHConfig struct {
	User           string `yaml:"user"`
	Port           int    `yaml:"port"`
	PrivateKeyPath string `yaml:"private_key_path"`
}

// ServiceConfig locates the coordinator status page.
type ServiceConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{Timeouts: DefaultTimeouts()}
	cfg.applyDefaults()
	return cfg
}

// DefaultStateDir returns ~/.hdcluster, or .hdcluster when the home
// directory is unknown.
func DefaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hdcluster"
	}
	return filepath.Join(home, ".hdcluster")
}

func (c *Config) applyDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderEC2
	}
	if c.StateDir == "" {
		c.StateDir = DefaultStateDir()
	}
	if c.Instance.Type == "" {
		switch c.Provider {
		case ProviderHCloud:
			c.Instance.Type = "cx22"
		default:
			c.Instance.Type = "m1.small"
		}
	}
	if c.EC2.Region == "" {
		c.EC2.Region = "us-east-1"
	}
	if c.Manifest.Backend == "" {
		c.Manifest.Backend = ManifestBackendFile
	}
	if c.SSH.User == "" {
		c.SSH.User = "root"
	}
	if c.SSH.Port == 0 {
		c.SSH.Port = 22
	}
	if c.Service.Port == 0 {
		c.Service.Port = 50030
	}
	if c.Service.Path == "" {
		c.Service.Path = "/jobtracker.jsp"
	}
}

// ManifestKey returns the object key of name under the configured prefix.
func (m ManifestConfig) ManifestKey(name string) string {
	return m.Prefix + name
}
