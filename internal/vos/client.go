// Package vos implements the upstream softswitch API client.
//
// The upstream protocol is JSON over HTTP POST with the Content-Type header
// set to text/html;charset=UTF-8. Every reply carries a retCode field where
// zero means success; transport failures are folded into the same shape with
// negative synthetic codes so callers handle exactly one result type.
package vos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	appErrors "vossync/internal/shared/errors"
	"vossync/internal/shared/logger"
)

// Synthetic retCode values for transport-level failures.
const (
	retCodeHTTPError = -1
	retCodeTimeout   = -2
	retCodeNetwork   = -3
	retCodeBadJSON   = -4
	retCodeUnknown   = -99
	retCodeMissing   = -999
)

// DefaultTimeout is the per-request timeout for regular endpoints.
const DefaultTimeout = 30 * time.Second

// ReportTimeout is the per-request timeout for the report endpoints,
// which aggregate a day of traffic per call and answer slowly.
const ReportTimeout = 60 * time.Second

// Client talks to one upstream instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Interface
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout. Report endpoints use 60s.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a client for the given instance base URL.
// No retries: failed calls surface immediately and the caller decides.
func NewClient(baseURL string, log logger.Interface, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Response is one upstream reply. Transport failures are represented the same
// way, with a synthetic negative retCode and the error text under exception.
type Response map[string]any

// RetCode returns the reply code, or -999 when the field is absent.
func (r Response) RetCode() int {
	v, ok := r["retCode"]
	if !ok {
		return retCodeMissing
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return retCodeMissing
		}
		return int(i)
	}
	return retCodeMissing
}

// IsSuccess reports whether the call succeeded (retCode is exactly zero).
func (r Response) IsSuccess() bool {
	return r.RetCode() == 0
}

// Exception returns the upstream exception text, if any.
func (r Response) Exception() string {
	if v, ok := r["exception"].(string); ok {
		return v
	}
	return "Unknown error"
}

// ErrorMessage returns "retCode=N, <exception>" for failed replies and an
// empty string for successful ones.
func (r Response) ErrorMessage() string {
	if r.IsSuccess() {
		return ""
	}
	return fmt.Sprintf("retCode=%d, %s", r.RetCode(), r.Exception())
}

// Err classifies a failed reply into the pipeline error taxonomy.
// Returns nil for successful replies.
func (r Response) Err() error {
	if r.IsSuccess() {
		return nil
	}
	msg := r.ErrorMessage()
	switch r.RetCode() {
	case retCodeHTTPError, retCodeTimeout, retCodeNetwork, retCodeUnknown:
		return appErrors.NewTransportError("upstream request failed", msg)
	case retCodeBadJSON:
		return appErrors.NewDataShapeError("upstream reply was not valid JSON", msg)
	default:
		return appErrors.NewProtocolError("upstream rejected request", msg)
	}
}

func (c *Client) pathURL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// Post sends one request. The returned Response is never nil; transport
// failures carry a synthetic negative retCode, mirroring upstream failures.
func (c *Client) Post(ctx context.Context, path string, payload map[string]any) Response {
	if payload == nil {
		payload = map[string]any{}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return failure(retCodeUnknown, fmt.Sprintf("Unexpected error: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.pathURL(path), bytes.NewReader(body))
	if err != nil {
		return failure(retCodeUnknown, fmt.Sprintf("Unexpected error: %v", err))
	}
	req.Header.Set("Content-Type", "text/html;charset=UTF-8")

	c.logger.Debugw("upstream request", "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			c.logger.Errorw("upstream timeout", "path", path, "error", err.Error())
			return failure(retCodeTimeout, fmt.Sprintf("Request timeout: %v", err))
		}
		c.logger.Errorw("upstream network error", "path", path, "error", err.Error())
		return failure(retCodeNetwork, fmt.Sprintf("Network error: %v", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(retCodeNetwork, fmt.Sprintf("Network error: %v", err))
	}

	if resp.StatusCode >= 400 {
		msg := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(raw))
		c.logger.Errorw("upstream http error", "path", path, "status", resp.StatusCode)
		return failure(retCodeHTTPError, msg)
	}

	var result Response
	if err := json.Unmarshal(raw, &result); err != nil {
		c.logger.Errorw("upstream returned invalid json", "path", path, "error", err.Error())
		return failure(retCodeBadJSON, fmt.Sprintf("Invalid JSON response: %v", err))
	}

	if !result.IsSuccess() {
		c.logger.Warnw("upstream returned error",
			"path", path,
			"ret_code", result.RetCode(),
			"exception", result.Exception())
	}
	return result
}

func failure(code int, msg string) Response {
	return Response{
		"retCode":   float64(code),
		"exception": msg,
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
