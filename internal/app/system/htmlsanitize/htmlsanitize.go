// Package htmlsanitize cleans user-supplied free text before it is stored.
// It uses bluemonday so that bios, repository descriptions, and folder
// descriptions can never smuggle markup back out through the API.
package htmlsanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strict     *bluemonday.Policy
	strictOnce sync.Once
)

// getStrict returns the shared strip-everything policy.
func getStrict() *bluemonday.Policy {
	strictOnce.Do(func() {
		strict = bluemonday.StrictPolicy()
	})
	return strict
}

// Strip removes all HTML from the input, returning plain text with
// surrounding whitespace trimmed. Use this for every free-text field
// accepted from clients (bio, descriptions, motivations).
func Strip(input string) string {
	if input == "" {
		return ""
	}
	return strings.TrimSpace(getStrict().Sanitize(input))
}

// StripAll applies Strip to every element of a string slice, dropping
// entries that end up empty.
func StripAll(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if cleaned := Strip(s); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}
