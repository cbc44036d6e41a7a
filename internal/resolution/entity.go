package resolution

import (
	"tagscout/internal/media"
	"tagscout/internal/providers"
)

// Entity is the outcome of one Resolve call. It is not modified after
// Resolve returns.
type Entity struct {
	Medium media.Medium `json:"medium"`
	Query  string       `json:"query"`
	// Ranking is the merge precedence: primaries, then auxiliaries, then any
	// provider only named by an override.
	Ranking    []string                     `json:"ranking"`
	Results    map[string]*providers.Result `json:"results"`
	Synonyms   []string                     `json:"synonyms"`
	Rounds     int                          `json:"rounds"`
	Queries    int                          `json:"queries"`
	Overridden bool                         `json:"overridden"`
}

// Ranked returns the results in merge precedence order.
func (e *Entity) Ranked() []*providers.Result {
	if e == nil {
		return nil
	}
	out := make([]*providers.Result, 0, len(e.Results))
	for _, id := range e.Ranking {
		if result, ok := e.Results[id]; ok && result != nil {
			out = append(out, result)
		}
	}
	return out
}

// Empty reports whether no provider produced a result.
func (e *Entity) Empty() bool {
	return e == nil || len(e.Ranked()) == 0
}

// Title returns the first non-empty title in rank order.
func (e *Entity) Title() string {
	for _, result := range e.Ranked() {
		if title := result.DisplayTitle(); title != "" {
			return title
		}
	}
	return ""
}
