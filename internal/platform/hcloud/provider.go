package hcloud

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/go-logr/logr"
	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/hdcluster/internal/cloud"
	"github.com/imamik/hdcluster/internal/config"
	"github.com/imamik/hdcluster/internal/util/labels"
	"github.com/imamik/hdcluster/internal/util/retry"
)

// Provider implements cloud.Provider on top of the Hetzner Cloud API.
type Provider struct {
	client     *hcloud.Client
	timeouts   *config.Timeouts
	httpClient *http.Client
	log        logr.Logger
	endpoint   string
}

// Option configures a Provider.
type Option func(*Provider)

// WithTimeouts sets custom timeouts for the provider.
func WithTimeouts(t *config.Timeouts) Option {
	return func(p *Provider) {
		p.timeouts = t
	}
}

// WithHTTPClient sets the HTTP client used for requests outside the
// Hetzner API, such as the public IP lookup.
func WithHTTPClient(hc *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = hc
	}
}

// WithHCloudClient replaces the hcloud client.
func WithHCloudClient(hc *hcloud.Client) Option {
	return func(p *Provider) {
		p.client = hc
	}
}

// WithEndpoint points the provider at a different API endpoint. It is
// ignored when WithHCloudClient is given.
func WithEndpoint(endpoint string) Option {
	return func(p *Provider) {
		p.endpoint = endpoint
	}
}

func WithLogger(log logr.Logger) Option {
	return func(p *Provider) {
		p.log = log.WithName("hcloud")
	}
}

// NewProvider creates a Provider authenticated with token.
func NewProvider(token string, opts ...Option) *Provider {
	p := &Provider{
		timeouts:   config.LoadTimeouts(),
		httpClient: http.DefaultClient,
		log:        logr.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		clientOpts := []hcloud.ClientOption{
			hcloud.WithToken(token),
			hcloud.WithApplication("hdcluster", ""),
		}
		if p.endpoint != "" {
			clientOpts = append(clientOpts, hcloud.WithEndpoint(p.endpoint))
		}
		p.client = hcloud.NewClient(clientOpts...)
	}
	return p
}

// HCloudClient returns the underlying hcloud.Client.
func (p *Provider) HCloudClient() *hcloud.Client {
	return p.client
}

// GetPublicIP returns the public IPv4 address of the host.
func (p *Provider) GetPublicIP(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://ipv4.icanhazip.com", nil)
	if err != nil {
		return "", err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

// do runs fn, retrying locked resources and rate limiting.
func (p *Provider) do(ctx context.Context, operation string, fn func() error) error {
	return retry.WithExponentialBackoff(ctx, func() error {
		err := fn()
		if err == nil || isRetryable(err) {
			return err
		}
		return retry.Fatal(err)
	},
		retry.WithMaxRetries(p.timeouts.RetryMaxAttempts),
		retry.WithInitialDelay(p.timeouts.RetryInitialDelay),
		retry.WithOnRetry(func(attempt int, err error) {
			p.log.V(1).Info("Retrying Hetzner call", "operation", operation, "attempt", attempt, "error", err.Error())
		}),
	)
}

// managedSelector selects resources created by hdcluster, optionally
// narrowed to the members of group.
func managedSelector(group string) string {
	selector := labels.KeyManagedBy + "=" + labels.ManagedByHdcluster
	if group != "" {
		selector += "," + labels.GroupSelector(group)
	}
	return selector
}

var _ cloud.Provider = (*Provider)(nil)
