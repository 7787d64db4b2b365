// Package sanitize provides text sanitization for user-provided free text.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

var entityReplacer = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&amp;", "&",
	"&quot;", "\"",
	"&#39;", "'",
)

// StripHTML removes all HTML tags from a string, making it safe for text-only display.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = entityReplacer.Replace(result)
	// entities may have hidden tags
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text sanitizes a free-text field such as RDV notes.
func Text(s string) string {
	return StripHTML(s)
}

// TextMax sanitizes s and truncates it to at most max runes.
func TextMax(s string, max int) string {
	result := Text(s)
	if max <= 0 || utf8.RuneCountInString(result) <= max {
		return result
	}
	runes := []rune(result)
	return strings.TrimSpace(string(runes[:max]))
}
