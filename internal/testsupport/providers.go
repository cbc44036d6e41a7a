package testsupport

import (
	"context"
	"strings"
	"sync"
	"time"

	"tagscout/internal/media"
	"tagscout/internal/providers"
)

// FakeProvider is a scripted providers.Provider. Hits are keyed by the
// lower-cased query; every call is recorded.
type FakeProvider struct {
	id     string
	media  map[media.Medium]bool
	hits   map[string]*providers.Result
	byID   map[string]*providers.Result
	delays map[string]time.Duration
	err    error

	mu    sync.Mutex
	calls []string
}

var _ providers.Provider = (*FakeProvider)(nil)

// NewFakeProvider returns a fake supporting every medium unless restricted
// with OnlyFor.
func NewFakeProvider(id string) *FakeProvider {
	return &FakeProvider{
		id:     id,
		hits:   make(map[string]*providers.Result),
		byID:   make(map[string]*providers.Result),
		delays: make(map[string]time.Duration),
	}
}

// OnlyFor restricts the media the fake supports.
func (f *FakeProvider) OnlyFor(mediums ...media.Medium) *FakeProvider {
	f.media = make(map[media.Medium]bool, len(mediums))
	for _, m := range mediums {
		f.media[m] = true
	}
	return f
}

// WithHit answers query with result.
func (f *FakeProvider) WithHit(query string, result providers.Result) *FakeProvider {
	result.Provider = f.id
	f.hits[strings.ToLower(query)] = &result
	return f
}

// WithID answers FetchByID(id) with result.
func (f *FakeProvider) WithID(id string, result providers.Result) *FakeProvider {
	result.Provider = f.id
	result.ID = id
	f.byID[id] = &result
	return f
}

// WithDelay makes calls for query block for d or until the context ends.
// An empty query delays every call.
func (f *FakeProvider) WithDelay(query string, d time.Duration) *FakeProvider {
	f.delays[strings.ToLower(query)] = d
	return f
}

// WithError fails every call with err.
func (f *FakeProvider) WithError(err error) *FakeProvider {
	f.err = err
	return f
}

// ID implements providers.Provider.
func (f *FakeProvider) ID() string { return f.id }

// Supports implements providers.Provider.
func (f *FakeProvider) Supports(medium media.Medium) bool {
	if f.media == nil {
		return medium.Valid()
	}
	return f.media[medium]
}

// Search implements providers.Provider.
func (f *FakeProvider) Search(ctx context.Context, query string, _ media.Medium) (*providers.Result, error) {
	key := strings.ToLower(query)
	return f.answer(ctx, "search:"+key, key, f.hits[key])
}

// FetchByID implements providers.Provider.
func (f *FakeProvider) FetchByID(ctx context.Context, id string, _ media.Medium) (*providers.Result, error) {
	return f.answer(ctx, "id:"+id, "", f.byID[id])
}

// Synonyms implements providers.Provider.
func (f *FakeProvider) Synonyms(result *providers.Result) []string {
	return providers.DefaultSynonyms(result)
}

// Calls returns the recorded calls, "search:<query>" or "id:<id>".
func (f *FakeProvider) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Searches returns only the queries passed to Search.
func (f *FakeProvider) Searches() []string {
	var out []string
	for _, call := range f.Calls() {
		if query, ok := strings.CutPrefix(call, "search:"); ok {
			out = append(out, query)
		}
	}
	return out
}

func (f *FakeProvider) answer(ctx context.Context, call, key string, result *providers.Result) (*providers.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	delay, ok := f.delays[key]
	if !ok {
		delay = f.delays[""]
	}
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return result, nil
}
