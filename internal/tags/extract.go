package tags

import (
	"regexp"
	"strings"

	"tagscout/internal/media"
)

var (
	doubledPattern = regexp.MustCompile(`\{\{([^}]*)\}\}|<<([^>]*)>>|\]\]([^\]]*)\[\[`)
	singlePattern  = regexp.MustCompile(`\{([^{}]*)\}|<([^<>]*)>|\]([^\[\]]*)\[`)
)

// families maps capture group order to media for both patterns.
var families = [...]media.Medium{media.Anime, media.Manga, media.LightNovel}

// Extraction is the outcome of scanning one message.
type Extraction struct {
	Requests []media.SearchRequest `json:"requests"`
	Commands []Command             `json:"commands"`
	// Mentions lists the user IDs mentioned in the message.
	Mentions []string `json:"mentions"`
	// Malformed counts spans dropped because their query was empty.
	Malformed int `json:"malformed"`
	// Collided is set when more than one tag forced expanded requests back
	// to the normal form.
	Collided bool `json:"collided"`
}

// Extract scans text and returns the requests it contains. Doubled spans
// come first in text order, followed by single spans in text order.
func Extract(text string) Extraction {
	var out Extraction
	working, mentions := Clean(text)
	out.Mentions = mentions
	working, out.Commands = interceptCommands(working)

	doubled, malformedDoubled, working := scan(doubledPattern, working, true)
	single, malformedSingle, _ := scan(singlePattern, working, false)
	out.Malformed = malformedDoubled + malformedSingle

	if len(doubled)+len(single) > 1 {
		for i := range doubled {
			if doubled[i].Expanded {
				doubled[i].Expanded = false
				out.Collided = true
			}
		}
	}

	if total := len(doubled) + len(single); total > 0 {
		out.Requests = make([]media.SearchRequest, 0, total)
		out.Requests = append(out.Requests, doubled...)
		out.Requests = append(out.Requests, single...)
	}
	return out
}

// Strip returns text with hygiene applied and every command and tag span
// removed. Extracting from the result yields no requests.
func Strip(text string) string {
	working, _ := Clean(text)
	working, _ = interceptCommands(working)
	_, _, working = scan(doubledPattern, working, true)
	_, _, working = scan(singlePattern, working, false)
	return working
}

// scan collects every match of pattern and returns the text with the
// matched spans removed.
func scan(pattern *regexp.Regexp, text string, expanded bool) ([]media.SearchRequest, int, string) {
	matches := pattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil, 0, text
	}
	var (
		requests  []media.SearchRequest
		malformed int
		b         strings.Builder
		last      int
	)
	b.Grow(len(text))
	for _, loc := range matches {
		b.WriteString(text[last:loc[0]])
		last = loc[1]

		medium, body, ok := matchedFamily(text, loc)
		if !ok {
			continue
		}
		query := normalizeQuery(body)
		if query == "" {
			malformed++
			continue
		}
		requests = append(requests, media.SearchRequest{
			Medium:   medium,
			Query:    query,
			Expanded: expanded,
		})
	}
	b.WriteString(text[last:])
	return requests, malformed, b.String()
}

func matchedFamily(text string, loc []int) (media.Medium, string, bool) {
	for idx, medium := range families {
		start, end := loc[2+idx*2], loc[3+idx*2]
		if start >= 0 {
			return medium, text[start:end], true
		}
	}
	return "", "", false
}
