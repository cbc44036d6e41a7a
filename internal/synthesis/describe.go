package synthesis

import (
	"html"
	"regexp"
	"strings"
)

var (
	asidePattern   = regexp.MustCompile(`(?s)[\[<(](.*?)[\]>)]`)
	breakPattern   = regexp.MustCompile(`(?i)<br\s*/?>`)
	tagPattern     = regexp.MustCompile(`(?s)<[^<>]+>`)
	newlinePattern = regexp.MustCompile(`\n{3,}`)
)

// CleanDescription strips source-attribution asides and line-break markup
// from a provider description.
func CleanDescription(desc string) string {
	desc = strings.ReplaceAll(desc, "\r\n", "\n")
	desc = asidePattern.ReplaceAllStringFunc(desc, func(span string) string {
		inner := span[1 : len(span)-1]
		if strings.Contains(strings.ToLower(inner), "source") || strings.Contains(inner, "MAL") {
			return ""
		}
		return span
	})
	desc = breakPattern.ReplaceAllString(desc, "\n")
	desc = tagPattern.ReplaceAllString(desc, "")
	desc = html.UnescapeString(desc)

	lines := strings.Split(desc, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	desc = strings.Join(lines, "\n")
	desc = newlinePattern.ReplaceAllString(desc, "\n\n")
	return strings.TrimSpace(desc)
}
