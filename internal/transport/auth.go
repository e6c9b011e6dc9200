package transport

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/stackmill/confsync/pkg/errors"
)

// Authenticator applies authentication to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request)
}

// NoAuth implements no authentication.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ *http.Request) {
	// No authentication applied
}

// APIKeyAuth implements static API key authentication via the X-Api-Key
// header.
type APIKeyAuth struct {
	Key string
}

// Apply implements the Authenticator interface for APIKeyAuth.
func (a *APIKeyAuth) Apply(req *http.Request) {
	req.Header.Set("X-Api-Key", a.Key)
}

// BearerAuth implements Bearer token authentication. The token is usually
// obtained from the login endpoint via Login.
type BearerAuth struct {
	Token string
}

// Apply implements the Authenticator interface for BearerAuth.
func (a *BearerAuth) Apply(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+a.Token)
}

// loginPath is the remote deployment's session endpoint.
const loginPath = "/api/v1/auth/login"

// Login exchanges a username/password pair for a session token at the remote
// login endpoint.
//
// Some deployments authenticate the login call but do not return an explicit
// token; for those, the raw base64 basic-auth credential is returned as the
// token. This assumes the deployment accepts the same credential string as a
// bearer token, which holds for the deployments we target but is not
// guaranteed in general.
func Login(ctx context.Context, httpClient *http.Client, baseURL, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", &errors.AuthenticationError{
			Method:  "session",
			Message: "username and password are required",
			Err:     errors.ErrCredentialsRequired,
		}
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}

	payload, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", errors.WrapParse("json", "", err)
	}

	url := joinURL(baseURL, loginPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", errors.NewTransportError(url, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", errors.NewTransportError(url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.NewTransportError(url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &errors.AuthenticationError{
			Method:  "session",
			Message: fmt.Sprintf("login rejected with status %d: %s", resp.StatusCode, string(body)),
		}
	}

	var parsed struct {
		Token string `json:"token"`
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &parsed); err != nil {
			return "", errors.NewParseError("json", "", "malformed login response", err)
		}
	}
	if parsed.Token != "" {
		return parsed.Token, nil
	}

	// Documented fallback: the endpoint accepted the credentials but returned
	// no token, so the basic-auth credential itself becomes the token.
	return BasicCredential(username, password), nil
}

// BasicCredential returns the base64 basic-auth encoding of the credentials.
func BasicCredential(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}
