// Package normalize cleans extracted text and canonicalizes dates.
//
// Both entry points are total functions: any input string maps to a
// deterministic output, and Text is idempotent so already-normalized
// values pass through unchanged.
package normalize

import (
	"html"
	"regexp"
	"strings"
)

var (
	scriptPattern = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	stylePattern  = regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style>`)
	tagPattern    = regexp.MustCompile(`<[^>]*>`)
	// \s misses U+00A0, which entity decoding produces for &nbsp;.
	whitespacePattern = regexp.MustCompile(`[\s\p{Zs}]+`)
)

// Text strips residual markup, decodes HTML entities, collapses whitespace
// runs and trims the ends. Entities are decoded to a fixpoint before tags
// are stripped, and tags are replaced with a space rather than removed;
// both are required for Text(Text(s)) == Text(s).
func Text(s string) string {
	if s == "" {
		return ""
	}
	s = unescapeAll(s)
	s = scriptPattern.ReplaceAllString(s, " ")
	s = stylePattern.ReplaceAllString(s, " ")
	s = tagPattern.ReplaceAllString(s, " ")
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// unescapeAll decodes entities until the string stops changing, so
// double-encoded input ("&amp;amp;") does not normalize differently on a
// second pass. The iteration count is bounded: every pass shortens the
// string or leaves it unchanged.
func unescapeAll(s string) string {
	for {
		decoded := html.UnescapeString(s)
		if decoded == s {
			return s
		}
		s = decoded
	}
}
