package pipeline

import (
	"regexp"
	"strings"
)

var crlfOrCR = regexp.MustCompile(`\r\n?`)

// NormalizeMarkdown converts \r\n and \r line endings to \n and trims
// surrounding whitespace.
func NormalizeMarkdown(content string) string {
	return strings.TrimSpace(crlfOrCR.ReplaceAllString(content, "\n"))
}
