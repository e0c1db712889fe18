package highlights

import (
	"regexp"
	"strings"
	"sync"

	"github.com/wiresbot/wires/models"
)

// scopeAdmits applies a highlight's channel and user lists to the
// event. The two dimensions are independent: an empty list imposes no
// restriction, a blacklist admits when the ID is absent, a whitelist
// admits when it is present.
func scopeAdmits(hl *models.HighlightEntry, event Event) bool {
	if len(hl.ChannelList) > 0 {
		isIn := containsString(hl.ChannelList, event.ChannelID)
		if hl.ChannelListIsBlacklist && isIn {
			return false
		}
		if !hl.ChannelListIsBlacklist && !isIn {
			return false
		}
	}

	if len(hl.UserList) > 0 {
		isIn := containsString(hl.UserList, event.AuthorID)
		if hl.UserListIsBlacklist && isIn {
			return false
		}
		if !hl.UserListIsBlacklist && !isIn {
			return false
		}
	}

	return true
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

// matches checks the highlight pattern against the message text.
// Literal patterns match case-sensitively. Regex patterns that fail to
// compile simply never match, a broken highlight must not take down the
// pipeline.
func (e *Engine) matches(hl *models.HighlightEntry, content string) bool {
	if !hl.IsRegex {
		return strings.Contains(content, hl.Content)
	}

	re := e.regexCache.get(hl)
	if re == nil {
		return false
	}
	return re.MatchString(content)
}

type regexCacheEntry struct {
	pattern string
	re      *regexp.Regexp // nil when the pattern does not compile
}

// regexCache keeps compiled patterns per highlight so hot guilds do not
// recompile on every message. Entries are invalidated when the stored
// pattern text changes.
type regexCache struct {
	sync.Mutex
	entries map[string]*regexCacheEntry
}

func newRegexCache() *regexCache {
	return &regexCache{entries: make(map[string]*regexCacheEntry)}
}

func (c *regexCache) get(hl *models.HighlightEntry) *regexp.Regexp {
	key := hl.ID.Hex()

	c.Lock()
	defer c.Unlock()

	if entry, ok := c.entries[key]; ok && entry.pattern == hl.Content {
		return entry.re
	}

	re, err := regexp.Compile(hl.Content)
	if err != nil {
		re = nil
	}
	c.entries[key] = &regexCacheEntry{pattern: hl.Content, re: re}
	return re
}
