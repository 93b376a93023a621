// Package fake provides an in-memory storageapi.Client for tests: the
// scanner, planner, executor, and lock manager are all built against the
// storageapi.Client interface specifically so they can be exercised without
// a real storage zone.
package fake

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"
	stdsync "sync"

	"github.com/kaaveland/bunnysync/internal/storageapi"
)

// object is one stored payload.
type object struct {
	body     []byte
	checksum [32]byte
}

// Client is a goroutine-safe in-memory implementation of storageapi.Client,
// keyed by full zone-relative path.
type Client struct {
	mu      stdsync.Mutex
	objects map[string]object

	// FailListDirs, when set, makes List return an error for the named
	// directories, simulating a listing failure on a non-root subdirectory.
	FailListDirs map[string]bool
}

// New creates an empty fake storage zone.
func New() *Client {
	return &Client{objects: make(map[string]object)}
}

// Seed pre-populates the fake zone with a file, computing its checksum.
func (c *Client) Seed(path string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.objects[path] = object{body: append([]byte(nil), body...), checksum: sha256.Sum256(body)}
}

// Get returns the stored bytes for a path, for test assertions.
func (c *Client) Get(path string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	obj, ok := c.objects[path]
	if !ok {
		return nil, false
	}

	return append([]byte(nil), obj.body...), true
}

// Paths returns every stored path, sorted, for test assertions.
func (c *Client) Paths() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, len(c.objects))
	for p := range c.objects {
		out = append(out, p)
	}

	sort.Strings(out)

	return out
}

// List implements storageapi.Client.
func (c *Client) List(_ context.Context, dir string) ([]storageapi.Entry, error) {
	dir = strings.Trim(dir, "/")

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.FailListDirs[dir] {
		return nil, errors.New("fake: simulated listing failure")
	}

	seenDirs := make(map[string]bool)
	entries := make([]storageapi.Entry, 0)

	for path, obj := range c.objects {
		rel, ok := trimDir(path, dir)
		if !ok {
			continue
		}

		if idx := strings.IndexByte(rel, '/'); idx >= 0 {
			sub := rel[:idx]
			if !seenDirs[sub] {
				seenDirs[sub] = true

				entries = append(entries, storageapi.Entry{Name: sub, IsDir: true})
			}

			continue
		}

		entries = append(entries, storageapi.Entry{
			Name:     rel,
			IsDir:    false,
			Length:   int64(len(obj.body)),
			Checksum: obj.checksum,
			HasSum:   true,
		})
	}

	return entries, nil
}

// trimDir reports whether path lies under dir and returns the remainder.
func trimDir(path, dir string) (string, bool) {
	if dir == "" {
		return path, true
	}

	prefix := dir + "/"
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}

	return strings.TrimPrefix(path, prefix), true
}

// Upload implements storageapi.Client.
func (c *Client) Upload(_ context.Context, path string, body io.Reader, _ int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.objects[strings.Trim(path, "/")] = object{body: data, checksum: sha256.Sum256(data)}

	return nil
}

// Write implements storageapi.Client; identical semantics to Upload.
func (c *Client) Write(ctx context.Context, path string, body io.Reader, size int64) error {
	return c.Upload(ctx, path, body, size)
}

// Delete implements storageapi.Client. Deleting a missing path is success,
// matching the real zone's idempotent-404 behavior.
func (c *Client) Delete(_ context.Context, path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.objects, strings.Trim(path, "/"))

	return nil
}

// Read implements storageapi.Client.
func (c *Client) Read(_ context.Context, path string) (io.ReadCloser, error) {
	c.mu.Lock()
	obj, ok := c.objects[strings.Trim(path, "/")]
	c.mu.Unlock()

	if !ok {
		return nil, &storageapi.HTTPError{StatusCode: http.StatusNotFound, Path: path, Err: storageapi.ErrNotFound}
	}

	return io.NopCloser(bytes.NewReader(obj.body)), nil
}
