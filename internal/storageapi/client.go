// Package storageapi is a typed HTTP wrapper over a BunnyCDN-style storage
// zone API: list, upload, delete, and lockfile read/write. It issues no
// retries — failures are surfaced to the caller verbatim, per the sync
// engine's Non-goals.
package storageapi

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// accessKeyHeader is the provider-specified header carrying the storage-zone
// password on every request.
const accessKeyHeader = "AccessKey"

const userAgent = "bunnysync/0.1"

// Client is the capability interface consumed by the scanner, planner,
// executor, and lock manager. Defined at the consumer per "accept
// interfaces, return structs" — tests inject an in-memory fake satisfying
// this interface instead of a real HTTP client.
type Client interface {
	List(ctx context.Context, dir string) ([]Entry, error)
	Upload(ctx context.Context, path string, body io.Reader, size int64) error
	Delete(ctx context.Context, path string) error
	Read(ctx context.Context, path string) (io.ReadCloser, error)
	Write(ctx context.Context, path string, body io.Reader, size int64) error
}

// HTTPClient is the production Client implementation. It is safe for
// concurrent use by many goroutines; the underlying *http.Client maintains
// its own connection pool.
type HTTPClient struct {
	baseURL    string
	accessKey  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPClient builds a Client scoped to https://{endpoint}/{zone}.
func NewHTTPClient(endpoint, zone, accessKey string, httpClient *http.Client, logger *slog.Logger) *HTTPClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if logger == nil {
		logger = slog.Default()
	}

	base := "https://" + strings.TrimSuffix(endpoint, "/") + "/" + strings.Trim(zone, "/")

	return &HTTPClient{
		baseURL:    base,
		accessKey:  accessKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

// List returns the unordered entries of a zone-relative directory. dir may
// be empty, denoting the zone root.
func (c *HTTPClient) List(ctx context.Context, dir string) ([]Entry, error) {
	reqPath := "/" + escapePath(strings.Trim(dir, "/"))
	if reqPath != "/" {
		reqPath += "/"
	}

	resp, err := c.do(ctx, http.MethodGet, reqPath, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("storageapi: listing %q: %w", dir, err)
	}
	defer resp.Body.Close()

	var raw []entryResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: listing %q: %w", ErrDecode, dir, err)
	}

	entries := make([]Entry, 0, len(raw))

	for _, r := range raw {
		entry := Entry{
			Name:   r.ObjectName,
			IsDir:  r.IsDirectory,
			Length: r.Length,
		}

		if !r.IsDirectory && r.Checksum != "" {
			sum, err := decodeChecksum(r.Checksum)
			if err != nil {
				return nil, fmt.Errorf("%w: entry %q: %w", ErrDecode, r.ObjectName, err)
			}

			entry.Checksum = sum
			entry.HasSum = true
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// Upload PUTs the payload to a zone-relative path.
func (c *HTTPClient) Upload(ctx context.Context, path string, body io.Reader, size int64) error {
	reqPath := "/" + escapePath(strings.Trim(path, "/"))

	resp, err := c.do(ctx, http.MethodPut, reqPath, body, size)
	if err != nil {
		return fmt.Errorf("storageapi: uploading %q: %w", path, err)
	}

	return resp.Body.Close()
}

// Write behaves exactly like Upload; it exists as a distinct method to match
// the spec's read/write lockfile vocabulary used by the lock manager.
func (c *HTTPClient) Write(ctx context.Context, path string, body io.Reader, size int64) error {
	return c.Upload(ctx, path, body, size)
}

// Delete removes a zone-relative path. A 404 response is treated as success
// for idempotence.
func (c *HTTPClient) Delete(ctx context.Context, path string) error {
	reqPath := "/" + escapePath(strings.Trim(path, "/"))

	resp, err := c.do(ctx, http.MethodDelete, reqPath, nil, 0)
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return nil
		}

		return fmt.Errorf("storageapi: deleting %q: %w", path, err)
	}

	return resp.Body.Close()
}

// Read streams the payload at a zone-relative path. Callers must Close the
// returned reader. A "not found" result is reported via ErrNotFound, which
// callers distinguish from other failures with errors.Is.
func (c *HTTPClient) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	reqPath := "/" + escapePath(strings.Trim(path, "/"))

	resp, err := c.do(ctx, http.MethodGet, reqPath, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("storageapi: reading %q: %w", path, err)
	}

	return resp.Body, nil
}

// do issues a single authenticated HTTP request. On success (2xx) it returns
// the response with the body left open for the caller. On failure it
// classifies the status code into a *HTTPError; network errors are wrapped
// with a "network error" prefix and are never an *HTTPError, so callers can
// distinguish connectivity failure from HTTP failure.
func (c *HTTPClient) do(ctx context.Context, method, reqPath string, body io.Reader, size int64) (*http.Response, error) {
	fullURL := c.baseURL + reqPath

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	if size > 0 {
		req.ContentLength = size
	}

	req.Header.Set(accessKeyHeader, c.accessKey)
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("storageapi: request",
		slog.String("method", method),
		slog.String("path", reqPath),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return resp, nil
	}

	errBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()

	if readErr != nil {
		errBody = []byte("(failed to read response body)")
	}

	c.logger.Debug("storageapi: request failed",
		slog.String("method", method),
		slog.String("path", reqPath),
		slog.Int("status", resp.StatusCode),
	)

	return nil, newHTTPError(reqPath, resp.StatusCode, errBody)
}

// decodeChecksum parses a hex-encoded SHA-256 digest case-insensitively.
func decodeChecksum(s string) ([32]byte, error) {
	var out [32]byte

	raw, err := hex.DecodeString(strings.ToLower(s))
	if err != nil {
		return out, fmt.Errorf("decoding checksum %q: %w", s, err)
	}

	if len(raw) != len(out) {
		return out, fmt.Errorf("checksum %q has wrong length %d", s, len(raw))
	}

	copy(out[:], raw)

	return out, nil
}

// EncodeChecksum renders a raw SHA-256 digest as uppercase hex, matching the
// zone API's wire format. Exposed for tests.
func EncodeChecksum(sum [32]byte) string {
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// escapePath URL-encodes each path segment, leaving "/" separators intact.
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}

	return strings.Join(segments, "/")
}
