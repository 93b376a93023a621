package storagepath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	cases := []struct {
		in      string
		want    Path
		wantErr bool
	}{
		{"", "", false},
		{"/", "", false},
		{"a/b/c", "a/b/c", false},
		{"/a/b/", "a/b", false},
		{"a//b", "", true},
		{"a/./b", "", true},
		{"a/../b", "", true},
	}

	for _, c := range cases {
		got, err := Clean(c.in)
		if c.wantErr {
			require.Error(t, err, c.in)
			continue
		}

		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestJoin(t *testing.T) {
	assert.Equal(t, Path("docs/a.html"), Join("docs", "a.html"))
	assert.Equal(t, Path("a.html"), Join("", "a.html"))
	assert.Equal(t, Path("docs"), Join("docs", ""))
	assert.Equal(t, Path(""), Join("", ""))
}

func TestIsHTML(t *testing.T) {
	assert.True(t, Path("index.html").IsHTML())
	assert.True(t, Path("index.HTM").IsHTML())
	assert.False(t, Path("style.css").IsHTML())
}

func TestHasPrefix(t *testing.T) {
	assert.True(t, Path("other/keep.txt").HasPrefix("other"))
	assert.True(t, Path("other").HasPrefix("other"))
	assert.False(t, Path("otherstuff/keep.txt").HasPrefix("other"))
	assert.True(t, Path("a").HasPrefix(""))
}

func TestMatchesAny(t *testing.T) {
	prefixes := []Path{"other", "vendor/cache"}
	assert.True(t, MatchesAny("other/keep.txt", prefixes))
	assert.True(t, MatchesAny("vendor/cache/x", prefixes))
	assert.False(t, MatchesAny("site/old.html", prefixes))
}
