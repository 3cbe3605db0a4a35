// Package textutil provides small text helpers shared by the species loader
// and CLI output.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayTitle derives a human-readable label from a slug-style key.
// Hyphens, underscores, and dots become spaces and each word is title-cased,
// so "northern-cardinal" becomes "Northern Cardinal".
func DisplayTitle(key string) string {
	var cleaned strings.Builder
	prevSpace := true
	for _, r := range key {
		switch {
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		default:
			cleaned.WriteRune(r)
			prevSpace = false
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return ""
	}
	return cases.Title(language.Und).String(title)
}
