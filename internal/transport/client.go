// Package transport executes authenticated HTTP requests against a remote
// deployment of the business application and maps HTTP status codes onto the
// success/absence/failure semantics the reconciliation core expects.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stackmill/confsync/pkg/errors"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = 30 * time.Second

// Client provides authenticated access to one remote deployment.
type Client struct {
	baseURL string
	http    *http.Client
	auth    Authenticator
}

// New creates a new transport client for the deployment at baseURL with the
// specified authenticator.
func New(baseURL string, auth Authenticator) *Client {
	if auth == nil {
		auth = &NoAuth{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultHTTPTimeout},
		auth:    auth,
	}
}

// BaseURL returns the deployment URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request performs an authenticated request against the remote API.
//
// Status mapping: 2xx returns the parsed response body (nil for an empty
// body), 404 returns (nil, nil) meaning "not found", and any other status
// surfaces an APIError carrying status and response text. Network failures
// surface a TransportError.
func (c *Client) Request(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.WrapParse("json", "", err)
		}
		payload = bytes.NewReader(data)
	}

	url := joinURL(c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, method, url, payload)
	if err != nil {
		return nil, errors.NewTransportError(url, err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.auth.Apply(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.NewTransportError(url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewTransportError(url, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		if len(respBody) == 0 {
			return nil, nil
		}
		if !json.Valid(respBody) {
			return nil, errors.NewParseError("json", "", "response body is not valid JSON", nil)
		}
		return json.RawMessage(respBody), nil
	default:
		return nil, errors.NewAPIError(path, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
}

// joinURL concatenates a base URL and a request path.
func joinURL(baseURL, path string) string {
	base := strings.TrimRight(baseURL, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}
