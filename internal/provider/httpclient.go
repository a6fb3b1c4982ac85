package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// ClientOptions for the provider HTTP client.
type ClientOptions struct {
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Log          *zap.Logger
}

// DefaultClientOptions keeps provider retries well inside one bucket.
func DefaultClientOptions(log *zap.Logger) ClientOptions {
	return ClientOptions{
		Timeout:      15 * time.Second,
		RetryMax:     2,
		RetryWaitMin: 200 * time.Millisecond,
		RetryWaitMax: 2 * time.Second,
		Log:          log,
	}
}

// HTTPClient is a small wrapper around retryablehttp shared by the providers.
type HTTPClient struct {
	inner *retryablehttp.Client
}

func NewHTTPClient(opts ClientOptions) *HTTPClient {
	r := retryablehttp.NewClient()
	r.RetryMax = opts.RetryMax
	if opts.RetryWaitMin > 0 {
		r.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		r.RetryWaitMax = opts.RetryWaitMax
	}
	r.HTTPClient.Timeout = opts.Timeout
	// Hand back the last response once retries run out so callers can see 429s.
	r.ErrorHandler = retryablehttp.PassthroughErrorHandler
	r.Logger = nil
	if opts.Log != nil {
		r.Logger = leveledZap{s: opts.Log.Sugar()}
	}
	return &HTTPClient{inner: r}
}

// Do sends a request with the API User-Agent and the given headers.
func (c *HTTPClient) Do(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	var raw interface{}
	if body != nil {
		raw = body
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, raw)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", APIUserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.inner.Do(req)
}

// StandardClient exposes the retrying transport as a plain *http.Client.
func (c *HTTPClient) StandardClient() *http.Client {
	return c.inner.StandardClient()
}

// leveledZap adapts zap to retryablehttp.LeveledLogger.
type leveledZap struct {
	s *zap.SugaredLogger
}

func (l leveledZap) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledZap) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledZap) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveledZap) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
