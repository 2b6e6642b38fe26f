package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fairway-media/golftracker/internal/resilience"
)

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent string
	Timeout   time.Duration

	// MinDelay is the floor between successive requests to the same host.
	MinDelay time.Duration

	Retry resilience.RetryConfig
}

// HTTPFetcher implements Fetcher using net/http with retry and per-host
// pacing. Every external source in the pipeline goes through one of these
// so the politeness floor and retry policy live in exactly one place.
type HTTPFetcher struct {
	client *http.Client
	opts   HTTPOptions

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHTTPFetcher creates a new HTTPFetcher with the given options.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MinDelay == 0 {
		opts.MinDelay = 2 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "golftracker/1.0"
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = resilience.DefaultRetryConfig()
	}
	transport := &http.Transport{
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		opts:     opts,
		limiters: make(map[string]*rate.Limiter),
	}
}

// limiterFor returns the pacing limiter for the URL's host, creating it on
// first use. Burst of 1 makes the limiter a pure minimum-interval gate.
func (f *HTTPFetcher) limiterFor(rawURL string) *rate.Limiter {
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	lim, ok := f.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Every(f.opts.MinDelay), 1)
		f.limiters[host] = lim
	}
	return lim
}

// do runs one paced, retried request and returns the response body.
func (f *HTTPFetcher) do(ctx context.Context, method, rawURL string, header http.Header, payload []byte) ([]byte, error) {
	return resilience.DoVal(ctx, f.opts.Retry, func(ctx context.Context) ([]byte, error) {
		if err := f.limiterFor(rawURL).Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "rate limiter wait")
		}

		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
		if err != nil {
			return nil, resilience.NewPermanentError(eris.Wrap(err, "create request"), 0)
		}
		req.Header.Set("User-Agent", f.opts.UserAgent)
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, eris.Wrapf(err, "%s %s", method, rawURL)
		}
		defer resp.Body.Close() //nolint:errcheck

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "read response body")
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return data, nil
		}

		statusErr := eris.Errorf("http %d from %s", resp.StatusCode, rawURL)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			zap.L().Warn("retryable response from source",
				zap.String("url", rawURL),
				zap.Int("status", resp.StatusCode),
			)
			return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return nil, resilience.NewPermanentError(statusErr, resp.StatusCode)
	})
}

// Get fetches the URL and returns the response body.
func (f *HTTPFetcher) Get(ctx context.Context, rawURL string, header http.Header) ([]byte, error) {
	return f.do(ctx, http.MethodGet, rawURL, header, nil)
}

// GetJSON fetches the URL and decodes the JSON response into out.
func (f *HTTPFetcher) GetJSON(ctx context.Context, rawURL string, header http.Header, out any) error {
	data, err := f.Get(ctx, rawURL, header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrapf(err, "decode response from %s", rawURL)
	}
	return nil
}

// PostJSON sends body as JSON to the URL and decodes the JSON response into out.
func (f *HTTPFetcher) PostJSON(ctx context.Context, rawURL string, header http.Header, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return eris.Wrap(err, "encode request body")
	}

	if header == nil {
		header = http.Header{}
	} else {
		header = header.Clone()
	}
	header.Set("Content-Type", "application/json")

	data, err := f.do(ctx, http.MethodPost, rawURL, header, payload)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrapf(err, "decode response from %s", rawURL)
	}
	return nil
}
