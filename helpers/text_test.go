package helpers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClipText(t *testing.T) {
	assert.Equal(t, "hello...", ClipText("hello world", 8))
	assert.Len(t, ClipText("hello world", 8), 8)

	assert.Equal(t, "hi", ClipText("hi", 8))
	assert.Equal(t, "exactly8", ClipText("exactly8", 8))

	// sizes below 4 are raised so the ellipsis still fits
	assert.Equal(t, "a...", ClipText("abcdef", 2))
	assert.Equal(t, "ab", ClipText("ab", 1))
}

func TestPagify(t *testing.T) {
	pages := Pagify("a\nb\nc", "\n")
	assert.Equal(t, []string{"a\nb\nc"}, pages)

	long := strings.Repeat("x", 1500)
	pages = Pagify(long+"\n"+long+"\n"+long, "\n")
	assert.Len(t, pages, 3)
	for _, page := range pages {
		assert.True(t, len(page) <= DiscordMessageLimit)
	}

	// single oversized lines get hard-split
	pages = Pagify(strings.Repeat("y", 4500), "\n")
	assert.Len(t, pages, 3)
}
