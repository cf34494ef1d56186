package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var htmlPolicy = bluemonday.StrictPolicy()

// SanitizeText strips all markup and control noise from user-written text
func SanitizeText(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	// StrictPolicy escapes what it keeps; store plain text and let clients escape on render
	input = html.UnescapeString(htmlPolicy.Sanitize(input))
	return strings.TrimSpace(input)
}
