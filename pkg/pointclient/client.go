/**
 * @description
 * This package provides a client for the card point balance API. It builds the
 * fixed request payload around a card number, sends it with the static bearer
 * credential and browser-like header set, and hands back the raw status and
 * body for classification.
 *
 * @dependencies
 * - bytes, context, encoding/json, errors, fmt, io, log, net, net/http, time: Standard Go libraries.
 */
package pointclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single upstream exchange, body read included.
const DefaultTimeout = 15 * time.Second

// DefaultBaseURL is the production point balance endpoint.
const DefaultBaseURL = "https://sfapi.pazaramatatil.com/card/point/v2"

// defaultHeaders mirrors the headers the upstream's own web client sends.
// Accept-Encoding is left to the transport so responses are decompressed for us.
var defaultHeaders = map[string]string{
	"Accept":          "application/json, text/plain, */*",
	"Accept-Language": "tr-TR,tr;q=0.8",
	"Channelcode":     "12",
	"Content-Type":    "application/json",
	"OrderType":       "15",
	"Origin":          "https://www.pazaramatatil.com",
	"Referer":         "https://www.pazaramatatil.com/",
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/142.0.0.0 Safari/537.36",
	"X-Channelcode":   "12",
}

// Config is the read-only upstream configuration, built once at startup.
type Config struct {
	URL       string
	AuthToken string
	Timeout   time.Duration
}

// Client is a client for the card point API.
type Client struct {
	url        string
	headers    http.Header
	HTTPClient *http.Client
}

// NewClient creates a new point API client.
func NewClient(cfg Config) *Client {
	url := cfg.URL
	if url == "" {
		url = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	headers := make(http.Header, len(defaultHeaders)+1)
	for k, v := range defaultHeaders {
		headers.Set(k, v)
	}
	headers.Set("Authorization", cfg.AuthToken)

	return &Client{
		url:     url,
		headers: headers,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// RawResponse is a completed upstream exchange, whatever its status.
type RawResponse struct {
	StatusCode int
	Body       []byte
}

// TransportError reports an exchange that never completed.
type TransportError struct {
	Timeout bool
	Err     error
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("point api timeout: %v", e.Err)
	}
	return fmt.Sprintf("point api network error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// QueryPoints posts the payload to the upstream exactly once.
// Any HTTP status counts as a completed exchange; only failures to complete
// the exchange come back as a *TransportError.
func (c *Client) QueryPoints(ctx context.Context, payload PointRequest) (*RawResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal point request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create point request: %w", err)
	}
	req.Header = c.headers.Clone()

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		transportErr := newTransportError(err)
		log.Printf("level=warn component=point_client op=query_points timeout=%t err=%v", transportErr.Timeout, err)
		return nil, transportErr
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		transportErr := newTransportError(err)
		log.Printf("level=warn component=point_client op=query_points status=%d timeout=%t msg=\"body read failed\" err=%v", resp.StatusCode, transportErr.Timeout, err)
		return nil, transportErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("level=warn component=point_client op=query_points status=%d msg=\"non-2xx response\"", resp.StatusCode)
	}

	return &RawResponse{StatusCode: resp.StatusCode, Body: bodyBytes}, nil
}

func newTransportError(err error) *TransportError {
	return &TransportError{Timeout: isTimeout(err), Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
