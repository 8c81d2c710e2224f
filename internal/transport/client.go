// Package transport issues timeout-bounded GET requests against the
// monitoring backend and maps every failure onto a typed Error.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/MimoJanra/StatusPulse/internal/metrics"
)

const (
	DefaultBaseURL = "http://localhost:3001"
	DefaultTimeout = 10 * time.Second

	maxErrorBody = 4 << 10
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// HTTPClient is optional; its own Timeout is ignored in favour of Timeout.
	HTTPClient *http.Client
}

type Client struct {
	baseURL   string
	timeout   time.Duration
	userAgent string
	http      *http.Client
	logger    *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "statuspulse"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		timeout:   cfg.Timeout,
		userAgent: cfg.UserAgent,
		http:      cfg.HTTPClient,
		logger:    logger.Named("transport"),
	}, nil
}

// get fetches path with query, decodes the JSON body into out and records
// the outcome under endpoint.
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	start := time.Now()
	err := c.do(ctx, path, query, out, start)
	elapsed := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = string(KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	metrics.ObserveBackend(endpoint, outcome, elapsed.Seconds())

	c.logger.Debug("backend request",
		zap.String("endpoint", endpoint),
		zap.String("path", path),
		zap.String("outcome", outcome),
		zap.Duration("elapsed", elapsed),
	)
	return err
}

func (c *Client) do(ctx context.Context, path string, query url.Values, out any, start time.Time) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.resolve(path, query), nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyRequestError(ctx, reqCtx, path, time.Since(start), err)
	}
	defer closeResponseBody(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return statusError(path, resp.StatusCode, time.Since(start))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if reqCtx.Err() != nil {
			return classifyRequestError(ctx, reqCtx, path, time.Since(start), err)
		}
		return &Error{Kind: KindDecode, Path: path, Status: resp.StatusCode, Elapsed: time.Since(start), Err: err}
	}
	return nil
}

func (c *Client) resolve(path string, query url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// classifyRequestError separates caller cancellation, the per-request deadline
// and plain network failures using only context state and error types.
func classifyRequestError(parent, reqCtx context.Context, path string, elapsed time.Duration, err error) *Error {
	switch {
	case errors.Is(parent.Err(), context.Canceled):
		return &Error{Kind: KindCanceled, Path: path, Elapsed: elapsed, Err: err}
	case errors.Is(reqCtx.Err(), context.DeadlineExceeded), isNetworkTimeout(err):
		return &Error{Kind: KindTimeout, Path: path, Elapsed: elapsed, Err: err}
	default:
		return &Error{Kind: KindNetworkUnreachable, Path: path, Elapsed: elapsed, Err: err}
	}
}

func isNetworkTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

func closeResponseBody(body io.ReadCloser) {
	if body != nil {
		_ = body.Close()
	}
}
