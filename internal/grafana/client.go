// Package grafana provisions dashboards, alert rules, and datasources
// through the Grafana HTTP API so a fresh environment comes up with the
// monitoring surface already in place.
package grafana

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

// APIResponse is a decoded Grafana API reply. The API's response shapes vary
// per endpoint and Grafana version, so it stays schemaless.
type APIResponse map[string]any

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client, e.g. for tests or custom
// transports.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// Client talks to a single Grafana instance, authenticating every request
// with a service-account API key.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a Grafana client for the given base URL and API key.
func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateDashboard creates or updates a dashboard. The model is the full
// Grafana dashboard JSON wrapper, including the "dashboard" and "overwrite"
// keys.
func (c *Client) CreateDashboard(ctx context.Context, model map[string]any) (APIResponse, error) {
	return c.do(ctx, http.MethodPost, "/api/dashboards/db", model)
}

// CreateAlertRule submits a rule group to the Grafana ruler API.
func (c *Client) CreateAlertRule(ctx context.Context, rule map[string]any) (APIResponse, error) {
	return c.do(ctx, http.MethodPost, "/api/ruler/grafana/api/v1/rules", rule)
}

// Datasource is a Grafana datasource definition.
type Datasource struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	URL       string `json:"url"`
	Access    string `json:"access"`
	IsDefault bool   `json:"isDefault"`
}

// CreateDatasource registers a datasource.
func (c *Client) CreateDatasource(ctx context.Context, ds Datasource) (APIResponse, error) {
	return c.do(ctx, http.MethodPost, "/api/datasources", ds)
}

// TestDatasource runs Grafana's health check for the datasource.
func (c *Client) TestDatasource(ctx context.Context, id int) (APIResponse, error) {
	return c.do(ctx, http.MethodGet, fmt.Sprintf("/api/datasources/%d/health", id), nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (APIResponse, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("grafana %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("grafana %s %s: read body: %w", method, path, err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("grafana %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	out := APIResponse{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("grafana %s %s: decode response: %w", method, path, err)
		}
	}
	return out, nil
}
