// Package solr talks the backend search engine's query/response protocol:
// it carries assembled parameter sets to the select handler and lifts the
// loosely-typed response into ordered, typed structures.
package solr

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/MasterOfNone69/hhypermap-bop/internal/domain"
	"github.com/MasterOfNone69/hhypermap-bop/internal/metrics"
)

// Config holds backend connection settings.
type Config struct {
	BaseURL    string
	Collection string
}

// Client is a shared, read-only handle to the backend. It owns no state
// beyond the HTTP client and is safe for concurrent use.
type Client struct {
	httpc      *http.Client
	baseURL    string
	collection string
	logger     *zap.Logger
}

// NewClient creates a backend client.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("backend collection is required")
	}
	return &Client{
		// No client-side timeout: the backend/transport owns cancellation.
		httpc:      &http.Client{},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		collection: cfg.Collection,
		logger:     logger,
	}, nil
}

// Select dispatches one query to the select handler. Engine-reported
// failures come back as BackendQueryError with the engine's status and
// message preserved.
func (c *Client) Select(ctx context.Context, params url.Values) (*Response, error) {
	endpoint := fmt.Sprintf("%s/%s/select", c.baseURL, c.collection)

	start := time.Now()
	// POST form keeps long filter/facet parameter sets off the URL.
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, &Error{Op: OpSelect, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := c.httpc.Do(req)
	metrics.ObserveBackendRequest(OpSelect, time.Since(start), err)
	if err != nil {
		return nil, &Error{Op: OpSelect, Err: fmt.Errorf("%w: %w", ErrUnavailable, err)}
	}
	defer func() { _ = httpResp.Body.Close() }()

	tree, err := DecodeTree(httpResp.Body)
	if err != nil {
		if httpResp.StatusCode != http.StatusOK {
			return nil, domain.NewBackendQueryError(httpResp.StatusCode, "", httpResp.Status)
		}
		return nil, &Error{Op: OpSelect, Err: err}
	}

	if code, msg, found := convertError(tree); found {
		status := code
		if status == 0 {
			status = httpResp.StatusCode
		}
		return nil, domain.NewBackendQueryError(status, fmt.Sprintf("%d", code), msg)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, domain.NewBackendQueryError(httpResp.StatusCode, "", httpResp.Status)
	}

	resp, err := convertResponse(tree)
	if err != nil {
		return nil, &Error{Op: OpSelect, Err: err}
	}
	return resp, nil
}

// Ping checks backend availability via the collection ping handler.
func (c *Client) Ping(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/%s/admin/ping", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &Error{Op: OpPing, Err: err}
	}

	httpResp, err := c.httpc.Do(req)
	if err != nil {
		return &Error{Op: OpPing, Err: fmt.Errorf("%w: %w", ErrUnavailable, err)}
	}
	defer func() { _ = httpResp.Body.Close() }()
	_, _ = io.Copy(io.Discard, httpResp.Body)

	if httpResp.StatusCode != http.StatusOK {
		return &Error{Op: OpPing, Err: fmt.Errorf("status %s", httpResp.Status)}
	}
	return nil
}

// WaitForReady polls the backend until it answers a ping or the timeout expires.
func (c *Client) WaitForReady(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		if lastErr = c.Ping(ctx); lastErr == nil {
			return nil
		}
		c.logger.Debug("backend not ready", zap.Error(lastErr))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	return fmt.Errorf("backend not ready after %s: %w", timeout, lastErr)
}
