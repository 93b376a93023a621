package synceng

import (
	"context"
	"crypto/sha256"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"

	"github.com/kaaveland/bunnysync/internal/storagepath"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScanLocal_FlatTree(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "index.html"), "hi")
	writeFile(t, filepath.Join(dir, "style.css"), "body{}")

	records, err := ScanLocal(context.Background(), dir, "", 4, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)

	idx := records["index.html"]
	assert.Equal(t, int64(2), idx.Size)
	assert.Equal(t, sha256.Sum256([]byte("hi")), idx.Checksum)
}

func TestScanLocal_NestedTree(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a", "b", "c.txt"), "nested")

	records, err := ScanLocal(context.Background(), dir, "", 4, nil)
	require.NoError(t, err)

	rec, ok := records["a/b/c.txt"]
	require.True(t, ok)
	assert.Equal(t, int64(6), rec.Size)
}

func TestScanLocal_TargetSubPathPrefixesEveryPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.html"), "x")

	records, err := ScanLocal(context.Background(), dir, "docs", 4, nil)
	require.NoError(t, err)

	_, ok := records["docs/a.html"]
	assert.True(t, ok)
}

func TestScanLocal_ZeroByteFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "empty.txt"), "")

	records, err := ScanLocal(context.Background(), dir, "", 4, nil)
	require.NoError(t, err)

	rec := records["empty.txt"]
	assert.Equal(t, int64(0), rec.Size)
	assert.Equal(t, sha256.Sum256(nil), rec.Checksum)
}

func TestScanLocal_UnicodeAndSpacePaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "café notes.txt"), "x")

	records, err := ScanLocal(context.Background(), dir, "", 4, nil)
	require.NoError(t, err)

	_, ok := records["café notes.txt"]
	assert.True(t, ok)
}

func TestScanLocal_NFDFilenameNormalizesToNFC(t *testing.T) {
	dir := t.TempDir()
	decomposed := norm.NFD.String("café.txt")
	require.NotEqual(t, norm.NFC.String(decomposed), decomposed, "test fixture must actually be decomposed")
	writeFile(t, filepath.Join(dir, decomposed), "x")

	records, err := ScanLocal(context.Background(), dir, "", 4, nil)
	require.NoError(t, err)

	_, nfc := records["café.txt"]
	assert.True(t, nfc, "zone path should be NFC-normalized regardless of on-disk form")

	_, nfd := records[storagepath.Path(decomposed)]
	assert.False(t, nfd)
}

func TestScanLocal_SkipsNonRegularEntries(t *testing.T) {
	if os.Getenv("CI") != "" {
		t.Skip("named pipes are unreliable in CI sandboxes")
	}

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "x")
	require.NoError(t, syscall.Mkfifo(filepath.Join(dir, "pipe"), 0o644))

	records, err := ScanLocal(context.Background(), dir, "", 4, nil)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestScanLocal_FollowsSymlinkToRegularFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real.txt")
	writeFile(t, target, "hello")

	link := filepath.Join(dir, "link.txt")
	require.NoError(t, os.Symlink(target, link))

	records, err := ScanLocal(context.Background(), dir, "", 4, nil)
	require.NoError(t, err)

	_, ok := records["link.txt"]
	assert.True(t, ok)
}

func TestScanLocal_SkipsBrokenSymlink(t *testing.T) {
	dir := t.TempDir()
	link := filepath.Join(dir, "broken.txt")
	require.NoError(t, os.Symlink(filepath.Join(dir, "does-not-exist"), link))

	records, err := ScanLocal(context.Background(), dir, "", 4, nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestScanLocal_AvoidsSymlinkCycle(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	writeFile(t, filepath.Join(sub, "f.txt"), "x")

	// sub/loop -> dir, creating a cycle back to an ancestor.
	require.NoError(t, os.Symlink(dir, filepath.Join(sub, "loop")))

	records, err := ScanLocal(context.Background(), dir, "", 4, nil)
	require.NoError(t, err)

	_, ok := records["sub/f.txt"]
	assert.True(t, ok)
	// Must terminate without walking the cycle forever, and must not
	// re-descend into the loop.
	_, loopedBack := records["sub/loop/sub/f.txt"]
	assert.False(t, loopedBack)
}
