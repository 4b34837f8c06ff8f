package handlers

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"

	"github.com/imamik/hdcluster/internal/cloud"
	"github.com/imamik/hdcluster/internal/cluster"
	"github.com/imamik/hdcluster/internal/config"
	"github.com/imamik/hdcluster/internal/logging"
	"github.com/imamik/hdcluster/internal/manifest"
	"github.com/imamik/hdcluster/internal/metrics"
	"github.com/imamik/hdcluster/internal/platform/ec2"
	"github.com/imamik/hdcluster/internal/platform/hcloud"
	"github.com/imamik/hdcluster/internal/platform/s3"
	"github.com/imamik/hdcluster/internal/platform/ssh"
	"github.com/imamik/hdcluster/internal/provisioning"
	"github.com/imamik/hdcluster/internal/readiness"
	"github.com/imamik/hdcluster/internal/storage"
	"github.com/imamik/hdcluster/internal/userdata"
	"github.com/imamik/hdcluster/internal/util/naming"
)

// Globals are the flags shared by every command.
type Globals struct {
	ConfigPath  string
	EnvFile     string
	Verbose     bool
	LogFormat   string
	MetricsFile string
	// Force skips confirmation of destructive commands.
	Force bool
}

// Factory function variables - can be replaced in tests.
var (
	loadConfig  = config.Load
	newLogger   = logging.New
	newProvider = defaultProvider

	newObjectClient = func(ctx context.Context, opts s3.Options) (manifest.ObjectClient, error) {
		client, err := s3.NewClient(ctx, opts)
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	newRunner = func(cfg config.SSHConfig, t config.Timeouts) (storage.Runner, error) {
		client, err := ssh.NewClientFromKeyFile(cfg.PrivateKeyPath, ssh.Config{
			Port:       cfg.Port,
			User:       cfg.User,
			MaxRetries: t.RetryMaxAttempts,
			RetryDelay: t.RetryInitialDelay,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	// customizeContext adjusts every provisioning context before use.
	customizeContext = func(*provisioning.Context) {}

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func defaultProvider(ctx context.Context, cfg *config.Config, log logr.Logger) (cloud.Provider, error) {
	switch cfg.Provider {
	case config.ProviderHCloud:
		return hcloud.NewProvider(cfg.Credentials.HCloudToken,
			hcloud.WithTimeouts(&cfg.Timeouts),
			hcloud.WithEndpoint(cfg.HCloud.Endpoint),
			hcloud.WithLogger(log),
		), nil
	default:
		return ec2.NewProvider(ctx, ec2.Options{
			Region:    cfg.EC2.Region,
			Endpoint:  cfg.EC2.Endpoint,
			AccessKey: cfg.Credentials.AWSAccessKeyID,
			SecretKey: cfg.Credentials.AWSSecretAccessKey,
		}, log)
	}
}

// session holds what a single command invocation needs.
type session struct {
	cfg         *config.Config
	log         logr.Logger
	recorder    *metrics.Recorder
	raw         cloud.Provider
	provider    cloud.Provider
	flush       func()
	metricsFile string
}

func openSession(ctx context.Context, g *Globals) (*session, error) {
	if err := config.LoadEnvFile(g.EnvFile); err != nil {
		return nil, err
	}
	cfg, err := loadConfig(g.ConfigPath)
	if err != nil {
		return nil, err
	}
	log, flush, err := newLogger(logging.Options{Verbose: g.Verbose, Format: g.LogFormat, Output: stderr})
	if err != nil {
		return nil, err
	}
	raw, err := newProvider(ctx, cfg, log)
	if err != nil {
		flush()
		return nil, fmt.Errorf("failed to create %s provider: %w", cfg.Provider, err)
	}
	recorder := metrics.NewRecorder()
	return &session{
		cfg:         cfg,
		log:         log,
		recorder:    recorder,
		raw:         raw,
		provider:    metrics.InstrumentProvider(raw, recorder),
		flush:       flush,
		metricsFile: g.MetricsFile,
	}, nil
}

// Close writes the metrics file, if requested, and flushes the logger.
func (s *session) Close() {
	if s.metricsFile != "" {
		if err := s.recorder.WriteToTextfile(s.metricsFile); err != nil {
			s.log.Error(err, "Failed to write metrics", "path", s.metricsFile)
		}
	}
	s.flush()
}

func (s *session) instancePoller() readiness.Poller {
	return readiness.Poller{
		Interval:  s.cfg.Timeouts.PollInterval,
		Timeout:   s.cfg.Timeouts.InstanceWait,
		OnAttempt: s.recorder.OnAttempt("instances"),
	}
}

// controller returns the controller of the named cluster. The user data
// template is only required by launches.
func (s *session) controller(name string) (*cluster.Controller, error) {
	var renderer *userdata.Renderer
	if s.cfg.UserDataTemplate != "" {
		r, err := userdata.LoadRenderer(s.cfg.UserDataTemplate)
		if err != nil {
			return nil, err
		}
		renderer = r
	}
	return cluster.NewController(s.provider, name, renderer, s.instancePoller(), s.log), nil
}

func (s *session) manifestStore(ctx context.Context, name string) (manifest.Store, error) {
	file := naming.ManifestFile(name)
	if s.cfg.Manifest.Backend != config.ManifestBackendS3 {
		return manifest.NewFileStore(filepath.Join(s.cfg.StateDir, file)), nil
	}
	client, err := newObjectClient(ctx, s3.Options{
		Endpoint:     s.cfg.Manifest.Endpoint,
		Region:       s.cfg.Manifest.Region,
		AccessKey:    s.cfg.Credentials.AWSAccessKeyID,
		SecretKey:    s.cfg.Credentials.AWSSecretAccessKey,
		UsePathStyle: s.cfg.Manifest.UsePathStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create manifest client: %w", err)
	}
	return manifest.NewS3Store(client, s.cfg.Manifest.Bucket, s.cfg.Manifest.ManifestKey(file)), nil
}

func (s *session) orchestrator(ctx context.Context, name string) (*storage.Orchestrator, error) {
	store, err := s.manifestStore(ctx, name)
	if err != nil {
		return nil, err
	}
	return storage.NewOrchestrator(s.provider, manifest.NewManager(store), s.log.WithValues("cluster", name)), nil
}

// provisioningContext wires the controller and orchestrator of the named
// cluster into a provisioning context.
func (s *session) provisioningContext(ctx context.Context, name string) (*provisioning.Context, error) {
	controller, err := s.controller(name)
	if err != nil {
		return nil, err
	}
	orch, err := s.orchestrator(ctx, name)
	if err != nil {
		return nil, err
	}
	observer := provisioning.NewLogObserver(s.log.WithName("provisioning")).
		WithFields(map[string]string{"cluster": name})
	pctx := provisioning.NewContext(ctx, s.cfg, controller, orch, observer)
	pctx.Metrics = s.recorder
	if src, ok := s.raw.(provisioning.PublicIPSource); ok {
		pctx.PublicIP = src
	}
	customizeContext(pctx)
	return pctx, nil
}

// withSession opens a session, runs fn and closes the session.
func withSession(ctx context.Context, g *Globals, fn func(*session) error) error {
	s, err := openSession(ctx, g)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}
