package imageref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAcceptsAnyHostWithoutAllowList(t *testing.T) {
	v := New(nil, false)

	got, err := v.Normalize("  http://cdn.example.org/a.png ")
	require.NoError(t, err)
	assert.Equal(t, "http://cdn.example.org/a.png", got)
}

func TestNormalizeEmptyClears(t *testing.T) {
	got, err := New([]string{"img.example.com"}, true).Normalize("   ")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNormalizeRejections(t *testing.T) {
	v := New([]string{"images.example.com"}, true)

	for name, raw := range map[string]string{
		"not a url":     "definitely not a url",
		"ftp scheme":    "ftp://images.example.com/a.png",
		"plain http":    "http://images.example.com/a.png",
		"foreign host":  "https://evil.example.net/a.png",
		"lookalike":     "https://images.example.com.evil.net/a.png",
		"too long":      "https://images.example.com/" + string(make([]byte, 600)),
		"javascript":    "javascript:alert(1)",
		"relative path": "/uploads/a.png",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.Normalize(raw)
			assert.ErrorIs(t, err, ErrInvalidURL)
		})
	}
}

func TestNormalizeAllowsSubdomainsOfListedHost(t *testing.T) {
	v := New([]string{"Example.com"}, false)

	_, err := v.Normalize("https://img.cdn.example.com/x.jpg")
	assert.NoError(t, err)
	_, err = v.Normalize("https://example.com/x.jpg")
	assert.NoError(t, err)
	_, err = v.Normalize("https://notexample.com/x.jpg")
	assert.ErrorIs(t, err, ErrInvalidURL)
}
