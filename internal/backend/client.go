package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Backend kinds. The kind selects both the request body shape and whether
// responses go through the OCI normalizer before extraction.
const (
	KindAWS = "aws"
	KindOCI = "oci"
)

// Client is one analytics backend the chat pipeline can query.
type Client interface {
	Name() string
	Kind() string
	// Query posts a natural-language query and returns the decoded JSON
	// payload. The payload is untyped on purpose: its shape varies by
	// backend and by query.
	Query(ctx context.Context, query string) (any, error)
}

// HTTPClient implements Client against a JSON-over-POST analytics endpoint.
type HTTPClient struct {
	name       string
	kind       string
	endpoint   string
	provider   string
	httpClient *http.Client
}

func NewHTTPClient(p Provider, timeout time.Duration) *HTTPClient {
	if p.TimeoutSeconds > 0 {
		timeout = time.Duration(p.TimeoutSeconds) * time.Second
	}
	return &HTTPClient{
		name:       p.Name,
		kind:       p.Kind,
		endpoint:   p.Endpoint,
		provider:   p.Provider,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Name() string { return c.name }
func (c *HTTPClient) Kind() string { return c.kind }

func (c *HTTPClient) Query(ctx context.Context, query string) (any, error) {
	body := map[string]string{"query": query}
	if c.kind == KindAWS {
		body["provider"] = c.provider
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Non-2xx responses carry the body as error detail text.
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%s backend returned %d: %s", c.name, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%s backend returned invalid JSON: %w", c.name, err)
	}
	return payload, nil
}
