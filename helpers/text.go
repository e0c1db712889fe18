package helpers

import (
	"strings"
)

// DiscordMessageLimit is the maximum length of a discord message
const DiscordMessageLimit = 2000

// ClipText shortens $value to at most $size characters, appending an
// ellipsis when truncated. Sizes below 4 are raised to 4 so the
// ellipsis always fits.
func ClipText(value string, size int) string {
	if size < 4 {
		size = 4
	}

	runes := []rune(value)
	if len(runes) > size {
		return string(runes[:size-3]) + "..."
	}
	return value
}

// Pagify splits $text into chunks that fit into discord messages,
// preferring to break at $delimiter
func Pagify(text string, delimiter string) []string {
	result := make([]string, 0)

	for _, line := range strings.Split(text, delimiter) {
		// hard-split single lines that are too long on their own
		for len(line) > DiscordMessageLimit {
			result = append(result, line[:DiscordMessageLimit])
			line = line[DiscordMessageLimit:]
		}

		if len(result) > 0 && len(result[len(result)-1])+len(delimiter)+len(line) <= DiscordMessageLimit {
			result[len(result)-1] += delimiter + line
		} else {
			result = append(result, line)
		}
	}

	return result
}
