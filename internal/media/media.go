package media

import (
	"fmt"
	"strings"
)

// Medium identifies the kind of work a tag refers to.
type Medium string

const (
	Anime      Medium = "anime"
	Manga      Medium = "manga"
	LightNovel Medium = "light_novel"
)

// All lists the supported media in display order.
func All() []Medium {
	return []Medium{Anime, Manga, LightNovel}
}

// Valid reports whether m is one of the supported media.
func (m Medium) Valid() bool {
	switch m {
	case Anime, Manga, LightNovel:
		return true
	default:
		return false
	}
}

// Label returns the human readable name of the medium.
func (m Medium) Label() string {
	switch m {
	case Anime:
		return "Anime"
	case Manga:
		return "Manga"
	case LightNovel:
		return "Light Novel"
	default:
		return "Unknown"
	}
}

// ParseMedium converts user input into a Medium.
func ParseMedium(value string) (Medium, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "anime", "a":
		return Anime, nil
	case "manga", "m":
		return Manga, nil
	case "light_novel", "light-novel", "lightnovel", "ln", "novel":
		return LightNovel, nil
	default:
		return "", fmt.Errorf("unknown medium %q", value)
	}
}

// SearchRequest is one extracted tag. Medium is fixed at extraction time.
type SearchRequest struct {
	Medium   Medium `json:"medium"`
	Query    string `json:"query"`
	Expanded bool   `json:"expanded"`
}

func (r SearchRequest) String() string {
	flag := ""
	if r.Expanded {
		flag = " (expanded)"
	}
	return fmt.Sprintf("%s %q%s", r.Medium, r.Query, flag)
}
