package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvAWSAccessKeyID, "")
	t.Setenv(EnvAWSSecretAccessKey, "")
	t.Setenv(EnvHCloudToken, "")
	clearTimeoutEnvVars(t)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearCredentialEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ProviderEC2, cfg.Provider)
	assert.Equal(t, "m1.small", cfg.Instance.Type)
	assert.Equal(t, "us-east-1", cfg.EC2.Region)
	assert.Equal(t, ManifestBackendFile, cfg.Manifest.Backend)
	assert.Equal(t, 50030, cfg.Service.Port)
	assert.Equal(t, "/jobtracker.jsp", cfg.Service.Path)
	assert.Equal(t, "root", cfg.SSH.User)
	assert.Equal(t, 22, cfg.SSH.Port)
	assert.NotEmpty(t, cfg.StateDir)
	assert.Equal(t, DefaultTimeouts(), cfg.Timeouts)
}

func TestLoad_File(t *testing.T) {
	clearCredentialEnv(t)
	path := writeFile(t, "hdcluster.yaml", `
provider: hcloud
state_dir: /var/lib/hdcluster
user_data_template: /etc/hdcluster/init.sh
client_cidrs: [198.51.100.0/24]
instance:
  image: ubuntu-24.04
  key_name: ops
  placement: fsn1
credentials:
  hcloud_token: file-token
  aws_access_key_id: AKIAFILE
bootstrap:
  user_packages: lzo-devel
  auto_shutdown: "50"
  env:
    - JAVA_OPTS=-Xmx1g
manifest:
  backend: s3
  bucket: state
  prefix: clusters/
timeouts:
  poll_interval: 3s
  instance_wait: 20m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderHCloud, cfg.Provider)
	assert.Equal(t, "cx22", cfg.Instance.Type)
	assert.Equal(t, "ubuntu-24.04", cfg.Instance.Image)
	assert.Equal(t, "fsn1", cfg.Instance.Placement)
	assert.Equal(t, "/var/lib/hdcluster", cfg.StateDir)
	assert.Equal(t, []string{"198.51.100.0/24"}, cfg.ClientCIDRs)
	assert.Equal(t, "file-token", cfg.Credentials.HCloudToken)
	assert.Equal(t, []string{"JAVA_OPTS=-Xmx1g"}, cfg.Bootstrap.Env)
	assert.Equal(t, "clusters/storage-prod.json", cfg.Manifest.ManifestKey("storage-prod.json"))
	assert.Equal(t, 3*time.Second, cfg.Timeouts.PollInterval)
	assert.Equal(t, 20*time.Minute, cfg.Timeouts.InstanceWait)
	// Unset timeouts keep their defaults
	assert.Equal(t, 30*time.Minute, cfg.Timeouts.ServiceWait)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearCredentialEnv(t)
	path := writeFile(t, "hdcluster.yaml", `
credentials:
  aws_access_key_id: AKIAFILE
  aws_secret_access_key: file-secret
timeouts:
  poll_interval: 3s
`)
	t.Setenv(EnvAWSAccessKeyID, "AKIAENV")
	t.Setenv("HDCLUSTER_POLL_INTERVAL", "7s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "AKIAENV", cfg.Credentials.AWSAccessKeyID)
	assert.Equal(t, "file-secret", cfg.Credentials.AWSSecretAccessKey)
	assert.Equal(t, 7*time.Second, cfg.Timeouts.PollInterval)
}

func TestLoad_Errors(t *testing.T) {
	clearCredentialEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = Load(writeFile(t, "bad.yaml", "provider: [ec2"))
	assert.ErrorContains(t, err, "failed to unmarshal yaml")

	_, err = Load(writeFile(t, "invalid.yaml", "provider: gce\n"))
	assert.ErrorContains(t, err, "configuration validation failed")
}

func TestLoadEnvFile(t *testing.T) {
	const probe = "HDCLUSTER_DOTENV_PROBE"
	require.NoError(t, os.Unsetenv(probe))
	t.Cleanup(func() { _ = os.Unsetenv(probe) })
	t.Setenv(EnvAWSAccessKeyID, "AKIASET")
	path := writeFile(t, ".env", probe+"=from-dotenv\nAWS_ACCESS_KEY_ID=AKIADOTENV\n")

	require.NoError(t, LoadEnvFile(path))

	assert.Equal(t, "from-dotenv", os.Getenv(probe))
	// Existing variables win over the file.
	assert.Equal(t, "AKIASET", os.Getenv(EnvAWSAccessKeyID))
}

func TestLoadEnvFile_Missing(t *testing.T) {
	assert.NoError(t, LoadEnvFile(""))
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "nope.env")))
}
