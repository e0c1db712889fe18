package highlights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wiresbot/wires/models"
)

func TestScopeAdmits(t *testing.T) {
	event := Event{ChannelID: "channel-a", AuthorID: "user-a"}

	for _, testCase := range []struct {
		name      string
		highlight models.HighlightEntry
		expected  bool
	}{
		{
			name:      "no restrictions",
			highlight: models.HighlightEntry{ChannelListIsBlacklist: true, UserListIsBlacklist: true},
			expected:  true,
		},
		{
			name: "channel blacklisted",
			highlight: models.HighlightEntry{
				ChannelList: []string{"channel-a"}, ChannelListIsBlacklist: true,
			},
			expected: false,
		},
		{
			name: "other channel blacklisted",
			highlight: models.HighlightEntry{
				ChannelList: []string{"channel-b"}, ChannelListIsBlacklist: true,
			},
			expected: true,
		},
		{
			name: "channel whitelisted",
			highlight: models.HighlightEntry{
				ChannelList: []string{"channel-a"}, ChannelListIsBlacklist: false,
			},
			expected: true,
		},
		{
			name: "channel not on whitelist",
			highlight: models.HighlightEntry{
				ChannelList: []string{"channel-b"}, ChannelListIsBlacklist: false,
			},
			expected: false,
		},
		{
			name: "author blacklisted",
			highlight: models.HighlightEntry{
				UserList: []string{"user-a"}, UserListIsBlacklist: true,
			},
			expected: false,
		},
		{
			name: "author not on whitelist",
			highlight: models.HighlightEntry{
				UserList: []string{"user-b"}, UserListIsBlacklist: false,
			},
			expected: false,
		},
		{
			name: "channel admitted but author blacklisted",
			highlight: models.HighlightEntry{
				ChannelList: []string{"channel-a"}, ChannelListIsBlacklist: false,
				UserList: []string{"user-a"}, UserListIsBlacklist: true,
			},
			expected: false,
		},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, scopeAdmits(&testCase.highlight, event))
		})
	}
}

func TestMatchesLiteral(t *testing.T) {
	engine := newTestEngine(&fakeStore{}, newFakeDiscord())
	highlight := newHighlight("owner", "Gopher")

	assert.True(t, engine.matches(&highlight, "a wild Gopher appeared"))
	assert.True(t, engine.matches(&highlight, "Gopher"))
	assert.False(t, engine.matches(&highlight, "a wild gopher appeared"), "literal matching is case sensitive")
	assert.False(t, engine.matches(&highlight, "gopha"))
}

func TestMatchesRegex(t *testing.T) {
	engine := newTestEngine(&fakeStore{}, newFakeDiscord())
	highlight := newHighlight("owner", "foo.*bar")
	highlight.IsRegex = true

	assert.True(t, engine.matches(&highlight, "xx foo123bar yy"))
	assert.False(t, engine.matches(&highlight, "foobaz"))
}

func TestMatchesInvalidRegex(t *testing.T) {
	engine := newTestEngine(&fakeStore{}, newFakeDiscord())
	highlight := newHighlight("owner", "(")
	highlight.IsRegex = true

	assert.False(t, engine.matches(&highlight, "("))
	assert.False(t, engine.matches(&highlight, "anything"))
}

func TestRegexCacheInvalidation(t *testing.T) {
	engine := newTestEngine(&fakeStore{}, newFakeDiscord())
	highlight := newHighlight("owner", "foo")
	highlight.IsRegex = true

	assert.True(t, engine.matches(&highlight, "foo"))

	// the stored pattern changed, the cached program must not be reused
	highlight.Content = "bar"
	assert.False(t, engine.matches(&highlight, "foo"))
	assert.True(t, engine.matches(&highlight, "bar"))
}
