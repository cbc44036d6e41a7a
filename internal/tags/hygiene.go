package tags

import (
	"regexp"
	"strings"
)

var (
	codeFencePattern  = regexp.MustCompile("(?s)```.*?```")
	inlineCodePattern = regexp.MustCompile("`[^`\n]*`")
	emojiPattern      = regexp.MustCompile(`<a?:[A-Za-z0-9_~]+:[0-9]{15,21}>`)
	mentionPattern    = regexp.MustCompile(`<@!?([0-9]+)>`)
	markupPattern     = regexp.MustCompile(`<(?:@&|#)[0-9]+>`)
)

// Clean removes code, emoji and mention markup from text. It returns the
// cleaned text together with the user IDs of any mentions it removed, in
// order of appearance.
func Clean(text string) (string, []string) {
	cleaned := codeFencePattern.ReplaceAllString(text, "")
	cleaned = inlineCodePattern.ReplaceAllString(cleaned, "")
	cleaned = emojiPattern.ReplaceAllString(cleaned, "")

	var mentions []string
	for _, match := range mentionPattern.FindAllStringSubmatch(cleaned, -1) {
		mentions = append(mentions, match[1])
	}
	cleaned = mentionPattern.ReplaceAllString(cleaned, "")
	cleaned = markupPattern.ReplaceAllString(cleaned, "")
	return cleaned, mentions
}

func normalizeQuery(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}
