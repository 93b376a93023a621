package synceng

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaaveland/bunnysync/internal/storageapi/fake"
)

func TestScanRemote_FlatZone(t *testing.T) {
	client := fake.New()
	client.Seed("index.html", []byte("hi"))
	client.Seed("style.css", []byte("body{}"))

	records, err := ScanRemote(context.Background(), client, "", 0, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)

	idx := records["index.html"]
	assert.Equal(t, int64(2), idx.Size)
}

func TestScanRemote_NestedZone(t *testing.T) {
	client := fake.New()
	client.Seed("a/b/c.txt", []byte("nested"))

	records, err := ScanRemote(context.Background(), client, "", 0, nil)
	require.NoError(t, err)

	rec, ok := records["a/b/c.txt"]
	require.True(t, ok)
	assert.Equal(t, int64(6), rec.Size)
}

func TestScanRemote_ScopedToSubRoot(t *testing.T) {
	client := fake.New()
	client.Seed("docs/index.html", []byte("x"))
	client.Seed("other/ignored.txt", []byte("y"))

	records, err := ScanRemote(context.Background(), client, "docs", 0, nil)
	require.NoError(t, err)

	_, ok := records["docs/index.html"]
	assert.True(t, ok)
	_, leaked := records["other/ignored.txt"]
	assert.False(t, leaked)
}

func TestScanRemote_SubdirectoryListingFailureIsFatal(t *testing.T) {
	client := fake.New()
	client.Seed("a/file.txt", []byte("x"))
	client.FailListDirs = map[string]bool{"a": true}

	_, err := ScanRemote(context.Background(), client, "", 0, nil)
	assert.Error(t, err)
}

func TestScanRemote_EmptyZone(t *testing.T) {
	client := fake.New()

	records, err := ScanRemote(context.Background(), client, "", 0, nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}
