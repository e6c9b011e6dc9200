package transport_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackmill/confsync/internal/transport"
	"github.com/stackmill/confsync/pkg/errors"
)

func TestRequestSuccessParsesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"r1","name":"Sales Q1"}`))
	}))
	defer srv.Close()

	client := transport.New(srv.URL, nil)
	raw, err := client.Request(context.Background(), http.MethodGet, "/api/v1/reports/r1", nil)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "Sales Q1", got["name"])
}

func TestRequestNotFoundIsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no such workflow", http.StatusNotFound)
	}))
	defer srv.Close()

	client := transport.New(srv.URL, nil)
	raw, err := client.Request(context.Background(), http.MethodGet, "/api/v1/workflows/w42", nil)
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestRequestErrorCarriesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "report name already taken", http.StatusConflict)
	}))
	defer srv.Close()

	client := transport.New(srv.URL, nil)
	_, err := client.Request(context.Background(), http.MethodPost, "/api/v1/reports", map[string]any{"name": "X"})
	require.Error(t, err)

	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "already taken")
	assert.Equal(t, "/api/v1/reports", apiErr.Endpoint)
}

func TestRequestTransportError(t *testing.T) {
	// Closed server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	client := transport.New(srv.URL, nil)
	_, err := client.Request(context.Background(), http.MethodGet, "/api/v1/reports", nil)
	require.Error(t, err)

	var tErr *errors.TransportError
	assert.ErrorAs(t, err, &tErr)
	assert.True(t, errors.IsRemoteUnavailable(err))
}

func TestRequestSendsBodyAndAuth(t *testing.T) {
	var gotBody map[string]any
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Api-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := transport.New(srv.URL, &transport.APIKeyAuth{Key: "secret"})
	raw, err := client.Request(context.Background(), http.MethodPost, "/api/v1/workflows", map[string]any{"id": "w42"})
	require.NoError(t, err)
	assert.Nil(t, raw) // empty 201 body

	assert.Equal(t, "secret", gotHeader)
	assert.Equal(t, "w42", gotBody["id"])
}

func TestRequestEmptySuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := transport.New(srv.URL, nil)
	raw, err := client.Request(context.Background(), http.MethodPut, "/api/v1/reports/r1", map[string]any{"name": "X"})
	require.NoError(t, err)
	assert.Nil(t, raw)
}
