// Package purgeapi is a thin client for the edge cache-purge API: single-URL
// purge and whole-zone purge, each a one-shot authenticated POST with no
// retry, mirroring storageapi's no-retry stance.
package purgeapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

const (
	defaultBaseURL = "https://api.bunny.net"
	apiKeyHeader   = "AccessKey"
)

// Client issues purge requests against the edge API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New builds a Client. baseURL defaults to the production edge API if empty,
// overridable for tests.
func New(baseURL, apiKey string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{baseURL: baseURL, apiKey: apiKey, httpClient: httpClient}
}

// PurgeURL purges a single cached URL.
func (c *Client) PurgeURL(ctx context.Context, target string) error {
	reqURL := fmt.Sprintf("%s/purge?url=%s&async=false", c.baseURL, url.QueryEscape(target))

	return c.post(ctx, reqURL)
}

// PurgeZone purges every cached object in a pull zone.
func (c *Client) PurgeZone(ctx context.Context, pullZoneID string) error {
	reqURL := fmt.Sprintf("%s/pullzone/%s/purgeCache", c.baseURL, url.PathEscape(pullZoneID))

	return c.post(ctx, reqURL)
}

func (c *Client) post(ctx context.Context, reqURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, nil)
	if err != nil {
		return fmt.Errorf("purgeapi: building request: %w", err)
	}

	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("purgeapi: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("purgeapi: unexpected status %d", resp.StatusCode)
	}

	return nil
}
