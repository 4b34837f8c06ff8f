package readiness

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/imamik/hdcluster/internal/util/retry"
)

// workerCountPattern matches the worker count link on the coordinator status
// page. The ?type=active suffix only appears in newer releases.
var workerCountPattern = regexp.MustCompile(`<a href="machines.jsp(?:\?type=active)?">(\d+)</a>`)

// Defaults for the coordinator status endpoint.
const (
	DefaultProbePort = 50030
	DefaultProbePath = "/jobtracker.jsp"
)

// Counter reports how many workers the coordinator sees.
type Counter interface {
	Count(ctx context.Context, retries int) (int, error)
}

// Probe reads the worker count from an HTTP status page.
type Probe struct {
	URL            string
	Client         *http.Client
	RequestTimeout time.Duration
	RetryDelay     time.Duration
}

// NewProbe returns a probe for http://host:port/path.
func NewProbe(host string, port int, path string) *Probe {
	if port == 0 {
		port = DefaultProbePort
	}
	if path == "" {
		path = DefaultProbePath
	}
	return &Probe{
		URL:            "http://" + net.JoinHostPort(host, strconv.Itoa(port)) + path,
		Client:         http.DefaultClient,
		RequestTimeout: 5 * time.Second,
		RetryDelay:     time.Second,
	}
}

// Count fetches the status page, retrying failed requests up to retries
// times, and returns the advertised worker count. A page without the count
// reports zero.
func (p *Probe) Count(ctx context.Context, retries int) (int, error) {
	var body []byte
	err := retry.WithExponentialBackoff(ctx, func() error {
		b, err := p.get(ctx)
		if err != nil {
			return err
		}
		body = b
		return nil
	}, retry.WithMaxRetries(retries), retry.WithInitialDelay(p.retryDelay()), retry.WithMultiplier(1))
	if err != nil {
		return 0, fmt.Errorf("failed to probe %s: %w", p.URL, err)
	}
	return ParseWorkerCount(string(body)), nil
}

func (p *Probe) get(ctx context.Context) ([]byte, error) {
	if p.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.RequestTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return nil, retry.Fatal(err)
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func (p *Probe) retryDelay() time.Duration {
	if p.RetryDelay > 0 {
		return p.RetryDelay
	}
	return time.Second
}

// ParseWorkerCount extracts the worker count from a status page.
func ParseWorkerCount(page string) int {
	m := workerCountPattern.FindStringSubmatch(page)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
