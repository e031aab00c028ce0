package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/silviu20/Web-App-sub001/internal/metrics"
)

// Client performs raw requests against the engine.
type Client interface {
	URL(endpoint string) *url.URL
	Do(context.Context, *http.Request) (*http.Response, []byte, error)
}

// Options configure an engine client.
type Options struct {
	BaseURL string
	// APIKey is sent as a bearer token when set.
	APIKey string
	// Timeout bounds every request; 0 disables the client-level timeout.
	Timeout time.Duration
	// HealthTimeout bounds the health check separately from Timeout.
	HealthTimeout time.Duration
	// RateLimit is the sustained requests per second; 0 means unlimited.
	RateLimit float64
	// MaxRetries applies to idempotent requests answered by a gateway error.
	MaxRetries int
	// RetryBackoff is the first retry delay, doubled on every attempt.
	RetryBackoff time.Duration
	Metrics      *metrics.Metrics
	// Transport may be nil for http.DefaultTransport.
	Transport http.RoundTripper
}

// NewClient returns a client for the engine at opts.BaseURL.
func NewClient(opts Options) (Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid engine URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid engine URL %q: scheme must be http or https", opts.BaseURL)
	}

	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if opts.APIKey != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.APIKey, TokenType: "Bearer"}),
			Base:   transport,
		}
	}

	hc := &httpClient{
		base:       base,
		maxRetries: opts.MaxRetries,
		backoff:    opts.RetryBackoff,
		metrics:    opts.Metrics,
	}
	hc.client.Timeout = opts.Timeout
	hc.client.Transport = transport
	if hc.backoff <= 0 {
		hc.backoff = 100 * time.Millisecond
	}
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		hc.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return hc, nil
}

type httpClient struct {
	base       *url.URL
	client     http.Client
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	metrics    *metrics.Metrics
}

func (c *httpClient) URL(ep string) *url.URL {
	u := *c.base
	u.Path = c.base.Path + ep
	return &u
}

func (c *httpClient) Do(ctx context.Context, req *http.Request) (*http.Response, []byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req = req.WithContext(ctx)

	retries := 0
	if isIdempotent(req.Method) {
		retries = c.maxRetries
	}

	delay := c.backoff
	for attempt := 0; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, nil, err
			}
		}

		resp, body, err := c.do(ctx, req)
		if attempt >= retries || !shouldRetry(resp, err) || ctx.Err() != nil {
			return resp, body, err
		}

		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

func (c *httpClient) do(ctx context.Context, req *http.Request) (*http.Response, []byte, error) {
	start := time.Now()
	code := 0
	defer func() {
		c.metrics.ObserveEngineRequest(operationFrom(ctx), code, time.Since(start))
	}()

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	code = resp.StatusCode

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, body, nil
}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete, http.MethodOptions:
		return true
	}
	return false
}

func shouldRetry(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}
	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

type operationKey struct{}

func withOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, operationKey{}, op)
}

func operationFrom(ctx context.Context) string {
	if op, ok := ctx.Value(operationKey{}).(string); ok {
		return op
	}
	return "unknown"
}
