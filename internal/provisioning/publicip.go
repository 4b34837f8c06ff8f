package provisioning

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
)

// CheckIPURL answers with the caller's public IPv4 address.
const CheckIPURL = "https://checkip.amazonaws.com/"

// HTTPPublicIP reads the public address from a plain-text echo service.
type HTTPPublicIP struct {
	URL    string
	Client *http.Client
}

// GetPublicIP returns the trimmed response body, which must be an IP address.
func (h *HTTPPublicIP) GetPublicIP(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return "", err
	}
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get public IP: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to get public IP: %s returned %s", h.URL, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return "", err
	}
	ip := strings.TrimSpace(string(body))
	if net.ParseIP(ip) == nil {
		return "", fmt.Errorf("failed to get public IP: unexpected response %q", ip)
	}
	return ip, nil
}
