package resolution

import "strings"

// synonymPool is the insertion-ordered set of search strings. Membership is
// case-insensitive; the literal query keeps its casing, merged synonyms are
// stored lower-cased.
type synonymPool struct {
	values []string
	seen   map[string]struct{}
}

func newSynonymPool(query string) *synonymPool {
	p := &synonymPool{seen: make(map[string]struct{})}
	p.insert(query)
	return p
}

func (p *synonymPool) insert(value string) bool {
	value = strings.Join(strings.Fields(value), " ")
	if value == "" {
		return false
	}
	key := strings.ToLower(value)
	if _, ok := p.seen[key]; ok {
		return false
	}
	p.seen[key] = struct{}{}
	p.values = append(p.values, value)
	return true
}

// merge adds lower-cased synonyms and reports how many were new.
func (p *synonymPool) merge(synonyms []string) int {
	added := 0
	for _, synonym := range synonyms {
		if p.insert(strings.ToLower(synonym)) {
			added++
		}
	}
	return added
}

func (p *synonymPool) snapshot() []string {
	return append([]string(nil), p.values...)
}

// triedSet remembers every (provider, synonym) pair already queried.
type triedSet map[string]map[string]struct{}

func (t triedSet) untried(provider string, pool []string) []string {
	seen := t[provider]
	out := make([]string, 0, len(pool))
	for _, value := range pool {
		if _, ok := seen[strings.ToLower(value)]; ok {
			continue
		}
		out = append(out, value)
	}
	return out
}

func (t triedSet) mark(provider string, values []string) {
	seen, ok := t[provider]
	if !ok {
		seen = make(map[string]struct{})
		t[provider] = seen
	}
	for _, value := range values {
		seen[strings.ToLower(value)] = struct{}{}
	}
}
