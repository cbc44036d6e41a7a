package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"tagscout/internal/logging"
	"tagscout/internal/services"
)

const maxBodyBytes = 4 << 20

// Response is the buffered outcome of a provider HTTP call.
type Response struct {
	StatusCode int
	FinalURL   string
	Body       []byte
	Latency    time.Duration
}

// FetcherOptions configures a Fetcher.
type FetcherOptions struct {
	HTTPClient *http.Client
	// RateLimit is the sustained requests per second. Zero disables limiting.
	RateLimit float64
	Burst     int
	UserAgent string
	Timeout   time.Duration
	// Logger receives retry diagnostics. Nil discards them.
	Logger *slog.Logger
}

// Fetcher performs rate limited HTTP calls on behalf of one provider.
type Fetcher struct {
	provider   string
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	logger     *slog.Logger
}

// NewFetcher builds a Fetcher for the named provider.
func NewFetcher(provider string, opts FetcherOptions) *Fetcher {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Fetcher{
		provider:   provider,
		httpClient: client,
		limiter:    limiter,
		userAgent:  strings.TrimSpace(opts.UserAgent),
		logger:     logger,
	}
}

// Get issues a GET request.
func (f *Fetcher) Get(ctx context.Context, endpoint string, header http.Header) (*Response, error) {
	return f.Do(ctx, http.MethodGet, endpoint, nil, header)
}

// PostJSON marshals payload and POSTs it as JSON.
func (f *Fetcher) PostJSON(ctx context.Context, endpoint string, payload any, header http.Header) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, f.provider, "encode request", "", err)
	}
	if header == nil {
		header = http.Header{}
	}
	header.Set("Content-Type", "application/json")
	return f.Do(ctx, http.MethodPost, endpoint, body, header)
}

// Do executes the request, retrying once when the transport fails before a
// response arrives. HTTP status codes are never retried.
func (f *Fetcher) Do(ctx context.Context, method, endpoint string, body []byte, header http.Header) (*Response, error) {
	start := time.Now()
	resp, err := f.attempt(ctx, method, endpoint, body, header)
	if err != nil && ctx.Err() == nil && !errors.Is(err, errRequestBuild) {
		RecordRetry(f.provider)
		logging.WithContext(ctx, f.logger).Debug("retrying provider request",
			logging.String("method", method),
			logging.String("endpoint", endpoint),
			logging.Error(err),
		)
		resp, err = f.attempt(ctx, method, endpoint, body, header)
	}
	latency := time.Since(start)
	if err != nil {
		wrapped := f.transportError(ctx, err, latency)
		RecordCall(f.provider, services.Outcome(wrapped), latency)
		return nil, wrapped
	}
	resp.Latency = latency
	outcome := "ok"
	if resp.StatusCode == http.StatusNotFound {
		outcome = "not_found"
	} else if resp.StatusCode >= 400 {
		outcome = "unavailable"
	}
	RecordCall(f.provider, outcome, latency)
	return resp, nil
}

var errRequestBuild = errors.New("build request")

func (f *Fetcher) attempt(ctx context.Context, method, endpoint string, body []byte, header http.Header) (*Response, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errRequestBuild, err)
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if f.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	finalURL := endpoint
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return &Response{StatusCode: resp.StatusCode, FinalURL: finalURL, Body: payload}, nil
}

func (f *Fetcher) transportError(ctx context.Context, err error, latency time.Duration) error {
	message := fmt.Sprintf("request failed (latency=%v)", latency)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, f.provider, "http", message, err)
	}
	return services.Wrap(services.ErrProviderUnavailable, f.provider, "http", message, err)
}

// StatusError reports an unexpected HTTP status as a provider failure.
func (f *Fetcher) StatusError(operation string, resp *Response) error {
	return services.Wrap(
		services.ErrProviderUnavailable,
		f.provider,
		operation,
		fmt.Sprintf("returned %d (latency=%v)", resp.StatusCode, resp.Latency),
		nil,
	)
}

// DecodeJSON unmarshals the response body into out.
func (f *Fetcher) DecodeJSON(operation string, resp *Response, out any) error {
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return services.Wrap(services.ErrProviderUnavailable, f.provider, operation, "decode response", err)
	}
	return nil
}
