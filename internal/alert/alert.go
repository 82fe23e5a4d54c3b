// Package alert implements the alert extractor from spec.md §2 item 10 and
// §6 "Outbound": if the message contains the token "{!}", strip all command
// blocks and the marker, collapse whitespace, and emit the remainder.
package alert

import (
	"regexp"
	"strings"
)

var blockRe = regexp.MustCompile(`(?is)[a-z][a-z0-9]*\s*\(\s*[^()]*?\s*\)\s*\{[^{}]*\}`)

const marker = "{!}"

// Extract reports whether message contains the alert marker and, if so, the
// remainder after stripping every command block and the marker itself,
// with whitespace collapsed to single spaces.
func Extract(message string) (remainder string, hasAlert bool) {
	if !strings.Contains(message, marker) {
		return "", false
	}

	stripped := blockRe.ReplaceAllString(message, " ")
	stripped = strings.ReplaceAll(stripped, marker, " ")
	return strings.TrimSpace(collapseWhitespace(stripped)), true
}

func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
