package songvault_test

import (
	"strings"
	"testing"

	"github.com/apollo-music/songvault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidStorageName(t *testing.T) {
	invalidUTF8 := string([]byte{'a', 0xff, 'b'})

	tt := []struct {
		Name string
		In   string
		Want bool
	}{
		{Name: "uuid prefixed", In: "550e8400-e29b-41d4-a716-446655440000-imagine.mp3", Want: true},
		{Name: "plain", In: "song.flac", Want: true},
		{Name: "unicode", In: "chanson-été.mp3", Want: true},

		{Name: "empty", In: "", Want: false},
		{Name: "single dot", In: ".", Want: false},
		{Name: "double dot", In: "..", Want: false},
		{Name: "traversal", In: "../etc/passwd", Want: false},
		{Name: "double dots inside", In: "a..b", Want: false},
		{Name: "slash", In: "a/b", Want: false},
		{Name: "backslash", In: `a\b`, Want: false},
		{Name: "question mark", In: "a?b", Want: false},
		{Name: "hash", In: "a#b", Want: false},
		{Name: "tilde", In: "~a", Want: false},
		{Name: "percent", In: "a%20b", Want: false},
		{Name: "space", In: "a b", Want: false},
		{Name: "tab", In: "a\tb", Want: false},
		{Name: "null byte", In: "a\x00b", Want: false},
		{Name: "del", In: "a\x7fb", Want: false},
		{Name: "invalid utf8", In: invalidUTF8, Want: false},
		{Name: "too long", In: strings.Repeat("a", 256), Want: false},
		{Name: "max length", In: strings.Repeat("a", 255), Want: true},
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			assert.Equal(t, tc.Want, songvault.IsValidStorageName(tc.In))
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tt := []struct {
		In   string
		Want string
	}{
		{In: "imagine.mp3", Want: "imagine.mp3"},
		{In: "My Song.mp3", Want: "My_Song.mp3"},
		{In: "/tmp/uploads/track.wav", Want: "track.wav"},
		{In: `C:\Music\track.wav`, Want: "track.wav"},
		{In: "what?#.ogg", Want: "what__.ogg"},
		{In: "..", Want: "file"},
		{In: "", Want: "file"},
		{In: "/", Want: "file"},
		{In: "a..b.mp3", Want: "a_b.mp3"},
	}

	for _, tc := range tt {
		t.Run(tc.In, func(t *testing.T) {
			assert.Equal(t, tc.Want, songvault.SanitizeFilename(tc.In))
		})
	}
}

func TestNewStorageName(t *testing.T) {
	names := []string{"imagine.mp3", "My Song.mp3", "../../etc/passwd", "", strings.Repeat("x", 1000) + ".mp3"}

	for _, in := range names {
		n := songvault.NewStorageName(in)
		assert.True(t, songvault.IsValidStorageName(string(n)), "storage name %q from %q", n, in)
	}

	n := songvault.NewStorageName("imagine.mp3")
	assert.True(t, strings.HasSuffix(string(n), "-imagine.mp3"))
	assert.Len(t, strings.TrimSuffix(string(n), "-imagine.mp3"), 36)
	assert.NotEqual(t, n, songvault.NewStorageName("imagine.mp3"))
}

func TestParseStorageName(t *testing.T) {
	n, err := songvault.ParseStorageName("abc-imagine.mp3")
	require.NoError(t, err)
	assert.Equal(t, songvault.StorageName("abc-imagine.mp3"), n)

	_, err = songvault.ParseStorageName("../x")
	assert.ErrorIs(t, err, songvault.ErrInvalidInput)
}

func TestContentTypeByName(t *testing.T) {
	assert.Equal(t, "audio/mpeg", songvault.ContentTypeByName("a-imagine.mp3"))
	assert.Equal(t, "audio/flac", songvault.ContentTypeByName("track.FLAC"))
	assert.Equal(t, "application/json", songvault.ContentTypeByName("x.json"))
	assert.Equal(t, songvault.DefaultContentType, songvault.ContentTypeByName("noext"))
}
