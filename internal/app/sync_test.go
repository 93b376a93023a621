package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaaveland/bunnysync/internal/storagepath"
	"github.com/kaaveland/bunnysync/internal/storageapi/fake"
)

func writeLocalFile(t *testing.T, dir, name, contents string) {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func TestRunSync_FreshDeployUploadsEverything(t *testing.T) {
	dir := t.TempDir()
	writeLocalFile(t, dir, "index.html", "<html></html>")
	writeLocalFile(t, dir, "style.css", "body{}")

	client := fake.New()

	result, err := RunSync(t.Context(), client, SyncOptions{
		LocalPath:       dir,
		LockfilePath:    ".bunnysync.lock",
		ListConcurrency: 4,
		Concurrency:     4,
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, 2, result.Report.Uploaded)
	assert.False(t, result.Report.HasErrors())

	body, ok := client.Get("index.html")
	require.True(t, ok)
	assert.Equal(t, "<html></html>", string(body))
}

func TestRunSync_NoOpWhenAlreadyInSync(t *testing.T) {
	dir := t.TempDir()
	writeLocalFile(t, dir, "a.txt", "hello")

	client := fake.New()
	client.Seed("a.txt", []byte("hello"))

	result, err := RunSync(t.Context(), client, SyncOptions{
		LocalPath:       dir,
		LockfilePath:    ".bunnysync.lock",
		ListConcurrency: 4,
		Concurrency:     4,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Report.Uploaded)
	assert.Equal(t, 0, result.Report.Deleted)
}

func TestRunSync_DeletesRemoteOnlyFiles(t *testing.T) {
	dir := t.TempDir()
	writeLocalFile(t, dir, "keep.txt", "keep")

	client := fake.New()
	client.Seed("keep.txt", []byte("keep"))
	client.Seed("stale.txt", []byte("old"))

	result, err := RunSync(t.Context(), client, SyncOptions{
		LocalPath:       dir,
		LockfilePath:    ".bunnysync.lock",
		ListConcurrency: 4,
		Concurrency:     4,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Report.Deleted)
	_, stillThere := client.Get("stale.txt")
	assert.False(t, stillThere)
}

func TestRunSync_DryRunDoesNotMutateZone(t *testing.T) {
	dir := t.TempDir()
	writeLocalFile(t, dir, "new.txt", "fresh")

	client := fake.New()
	client.Seed("stale.txt", []byte("old"))

	result, err := RunSync(t.Context(), client, SyncOptions{
		LocalPath:       dir,
		LockfilePath:    ".bunnysync.lock",
		DryRun:          true,
		ListConcurrency: 4,
		Concurrency:     4,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, len(result.Plan.Upload))
	_, uploaded := client.Get("new.txt")
	assert.False(t, uploaded)
	_, stillThere := client.Get("stale.txt")
	assert.True(t, stillThere)
}

func TestRunSync_LockIsReleasedAfterRun(t *testing.T) {
	dir := t.TempDir()
	writeLocalFile(t, dir, "a.txt", "x")

	client := fake.New()

	_, err := RunSync(t.Context(), client, SyncOptions{
		LocalPath:       dir,
		LockfilePath:    ".bunnysync.lock",
		ListConcurrency: 4,
		Concurrency:     4,
	})
	require.NoError(t, err)

	_, stillLocked := client.Get(".bunnysync.lock")
	assert.False(t, stillLocked)
}

func TestRunSync_RespectsIgnorePrefix(t *testing.T) {
	dir := t.TempDir()
	writeLocalFile(t, dir, "keep.txt", "keep")

	client := fake.New()
	client.Seed("keep.txt", []byte("keep"))
	client.Seed("archive/old.txt", []byte("old"))

	result, err := RunSync(t.Context(), client, SyncOptions{
		LocalPath:       dir,
		LockfilePath:    ".bunnysync.lock",
		IgnorePrefixes:  []storagepath.Path{"archive"},
		ListConcurrency: 4,
		Concurrency:     4,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Report.Deleted)
	_, stillThere := client.Get("archive/old.txt")
	assert.True(t, stillThere)
}
