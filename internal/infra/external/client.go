package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/observability/tracing"
)

var ErrProviderStatus = errors.New("provider returned an error status")

const (
	defaultHTTPTimeout = 5 * time.Second
	maxErrorBody       = 512
)

type ClientConfig struct {
	BaseURL    string
	APIKey     string
	RatePerSec int
	Timeout    time.Duration
	HTTPClient *http.Client
}

// client is the shared JSON GET plumbing of the provider adapters. Every
// request waits on the limiter so bursts of reminder creation stay under the
// provider quota.
type client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

func newClient(cfg ClientConfig) (*client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("base URL is required")
	}

	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}

		httpClient = &http.Client{Timeout: timeout}
	}

	perSec := cfg.RatePerSec
	if perSec <= 0 {
		perSec = 5
	}

	return &client{
		baseURL: base,
		apiKey:  cfg.APIKey,
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(perSec), perSec),
	}, nil
}

func (c *client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	tracing.InjectToHTTPHeader(ctx, req.Header)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return fmt.Errorf("%w: %d %s", ErrProviderStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}

	return nil
}
