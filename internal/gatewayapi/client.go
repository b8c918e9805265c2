// Package gatewayapi queries the payment gateways' read APIs: transaction status for
// cross-verification and /verify, and harmless probes for /health.
package gatewayapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/Moduloscript/pharmacy-project-sub004/internal/normalize"
)

var (
	// ErrNotFound means the gateway answered but does not know the reference.
	ErrNotFound = errors.New("transaction not found")
	// ErrNotConfigured means the client has no credentials.
	ErrNotConfigured = errors.New("gateway not configured")
)

const (
	defaultTimeout = 10 * time.Second
	maxResponse    = 1 << 20
)

// Verification is a gateway's own view of a transaction, normalized.
type Verification struct {
	Gateway       normalize.Gateway `json:"gateway"`
	Reference     string            `json:"reference"`
	Status        normalize.Status  `json:"status"`
	GatewayStatus string            `json:"gatewayStatus"`
	Amount        decimal.Decimal   `json:"amount"`
	Currency      string            `json:"currency"`
}

// Querier is implemented by each gateway client.
type Querier interface {
	Gateway() normalize.Gateway
	Configured() bool
	Verify(ctx context.Context, reference string) (Verification, error)
	Probe(ctx context.Context) error
}

// Options tunes a client. Zero values pick defaults.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	// RPS and Burst bound outbound calls per gateway.
	RPS   float64
	Burst int
}

// StatusError is a non-2xx answer from a gateway.
type StatusError struct {
	Gateway normalize.Gateway
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Gateway.Slug(), e.Code, e.Body)
}

// caller holds what every gateway client shares.
type caller struct {
	gateway normalize.Gateway
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

func newCaller(g normalize.Gateway, defaultBase string, opts Options) caller {
	base := opts.BaseURL
	if base == "" {
		base = defaultBase
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	rps, burst := opts.RPS, opts.Burst
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 5
	}
	return caller{
		gateway: g,
		baseURL: strings.TrimRight(base, "/"),
		http:    hc,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// do sends a request and decodes a 2xx JSON answer into out. It returns the status
// code alongside any error so callers can map 404 to ErrNotFound.
func (c caller) do(ctx context.Context, method, path string, body []byte, headers map[string]string, out any) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("%s: rate limit: %w", c.gateway.Slug(), err)
	}

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return 0, fmt.Errorf("%s: build request: %w", c.gateway.Slug(), err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s: %s %s: %w", c.gateway.Slug(), method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%s: read response: %w", c.gateway.Slug(), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, &StatusError{Gateway: c.gateway, Code: resp.StatusCode, Body: truncate(string(raw), 200)}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("%s: decode response: %w", c.gateway.Slug(), err)
		}
	}
	return resp.StatusCode, nil
}

func (c caller) Gateway() normalize.Gateway { return c.gateway }

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// notFoundOn maps the given HTTP codes to ErrNotFound.
func notFoundOn(code int, err error, codes ...int) error {
	for _, c := range codes {
		if code == c {
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
	}
	return err
}
