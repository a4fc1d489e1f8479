package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryAWSRequestShape(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "ok"})
	}))
	defer srv.Close()

	c := NewHTTPClient(Provider{Name: "aws", Kind: KindAWS, Endpoint: srv.URL, Provider: "bedrock"}, 5*time.Second)
	_, err := c.Query(context.Background(), "top vendors")

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"query": "top vendors", "provider": "bedrock"}, got)
}

func TestQueryOCIRequestShape(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "ok"})
	}))
	defer srv.Close()

	c := NewHTTPClient(Provider{Name: "oci", Kind: KindOCI, Endpoint: srv.URL}, 5*time.Second)
	_, err := c.Query(context.Background(), "top vendors")

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"query": "top vendors"}, got)
}

func TestQueryReturnsDecodedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"rows": []any{[]any{1}}, "columns": []any{"c"}})
	}))
	defer srv.Close()

	c := NewHTTPClient(Provider{Name: "aws", Kind: KindAWS, Endpoint: srv.URL}, 5*time.Second)
	payload, err := c.Query(context.Background(), "q")

	require.NoError(t, err)
	m, ok := payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"c"}, m["columns"])
}

func TestQueryNon2xxCarriesBodyAsErrorDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	c := NewHTTPClient(Provider{Name: "aws", Kind: KindAWS, Endpoint: srv.URL}, 5*time.Second)
	_, err := c.Query(context.Background(), "q")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream exploded")
	assert.Contains(t, err.Error(), "502")
}

func TestQueryInvalidJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewHTTPClient(Provider{Name: "aws", Kind: KindAWS, Endpoint: srv.URL}, 5*time.Second)
	_, err := c.Query(context.Background(), "q")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestQueryUnreachableEndpoint(t *testing.T) {
	c := NewHTTPClient(Provider{Name: "aws", Kind: KindAWS, Endpoint: "http://127.0.0.1:1"}, time.Second)
	_, err := c.Query(context.Background(), "q")
	assert.Error(t, err)
}
