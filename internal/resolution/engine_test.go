package resolution_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"tagscout/internal/logging"
	"tagscout/internal/media"
	"tagscout/internal/providers"
	"tagscout/internal/resolution"
	"tagscout/internal/resolution/overrides"
	"tagscout/internal/services"
	"tagscout/internal/testsupport"
)

func newEngine(t *testing.T, primary, auxiliary []string, fakes []*testsupport.FakeProvider, opts ...resolution.Option) *resolution.Engine {
	t.Helper()
	var cfgOpts []testsupport.ConfigOption
	for _, medium := range media.All() {
		cfgOpts = append(cfgOpts, testsupport.WithRanking(medium, primary, auxiliary))
	}
	cfg := testsupport.NewConfig(t, cfgOpts...)
	registry := providers.NewRegistry()
	for _, fake := range fakes {
		registry.Register(fake)
	}
	engine, err := resolution.New(cfg, registry, logging.NewNop(), opts...)
	if err != nil {
		t.Fatalf("resolution.New: %v", err)
	}
	return engine
}

func anime(query string) media.SearchRequest {
	return media.SearchRequest{Medium: media.Anime, Query: query}
}

func assertNoRepeatedQueries(t *testing.T, fakes ...*testsupport.FakeProvider) {
	t.Helper()
	for _, fake := range fakes {
		seen := map[string]bool{}
		for _, query := range fake.Searches() {
			if seen[query] {
				t.Fatalf("provider %s queried %q twice: %v", fake.ID(), query, fake.Searches())
			}
			seen[query] = true
		}
	}
}

func TestResolveFirstTryHit(t *testing.T) {
	aggregate := testsupport.NewFakeProvider("anilist").
		WithHit("Cowboy Bebop", providers.Result{Title: "Cowboy Bebop", URL: "https://anilist.co/anime/1"})
	fallback := testsupport.NewFakeProvider("kitsu").
		WithHit("Cowboy Bebop", providers.Result{Title: "Cowboy Bebop (Kitsu)", URL: "https://kitsu.app/anime/cowboy-bebop"})
	engine := newEngine(t, []string{"anilist", "kitsu"}, nil, []*testsupport.FakeProvider{aggregate, fallback})

	entity, err := engine.Resolve(context.Background(), media.SearchRequest{Medium: media.Anime, Query: "Cowboy Bebop", Expanded: true})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if entity.Rounds != 1 {
		t.Fatalf("rounds = %d, want 1", entity.Rounds)
	}
	if entity.Title() != "Cowboy Bebop" {
		t.Fatalf("title = %q", entity.Title())
	}
	if diff := cmp.Diff([]string{"anilist", "kitsu"}, entity.Ranking); diff != "" {
		t.Fatalf("ranking mismatch (-want +got):\n%s", diff)
	}
	if len(entity.Results) != 2 {
		t.Fatalf("expected two results, got %v", entity.Results)
	}
}

func TestResolvePropagatesSynonymsAcrossRounds(t *testing.T) {
	aggregate := testsupport.NewFakeProvider("anilist").
		WithHit("yahari ore no seishun love comedy wa machigatteiru", providers.Result{
			Title: "Yahari Ore no Seishun Love Comedy wa Machigatteiru",
		})
	fallback := testsupport.NewFakeProvider("kitsu").
		WithHit("Oregairu", providers.Result{
			Title:    "My Teen Romantic Comedy SNAFU",
			Synonyms: []string{"Yahari Ore no Seishun Love Comedy wa Machigatteiru"},
		})
	third := testsupport.NewFakeProvider("mal")
	engine := newEngine(t, []string{"anilist", "kitsu", "mal"}, nil, []*testsupport.FakeProvider{aggregate, fallback, third})

	entity, err := engine.Resolve(context.Background(), anime("Oregairu"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if entity.Rounds != 2 {
		t.Fatalf("rounds = %d, want 2", entity.Rounds)
	}
	wantAggregate := []string{
		"oregairu",
		"my teen romantic comedy snafu",
		"yahari ore no seishun love comedy wa machigatteiru",
	}
	if diff := cmp.Diff(wantAggregate, aggregate.Searches()); diff != "" {
		t.Fatalf("aggregate searches mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"oregairu"}, fallback.Searches()); diff != "" {
		t.Fatalf("fallback searches mismatch (-want +got):\n%s", diff)
	}
	if _, ok := entity.Results["mal"]; ok {
		t.Fatal("mal never matched and must not appear in results")
	}
	wantPool := []string{
		"Oregairu",
		"my teen romantic comedy snafu",
		"yahari ore no seishun love comedy wa machigatteiru",
	}
	if diff := cmp.Diff(wantPool, entity.Synonyms); diff != "" {
		t.Fatalf("synonym pool mismatch (-want +got):\n%s", diff)
	}
	if entity.Title() != "Yahari Ore no Seishun Love Comedy wa Machigatteiru" {
		t.Fatalf("title = %q, want the higher ranked provider's title", entity.Title())
	}
	assertNoRepeatedQueries(t, aggregate, fallback, third)
}

func TestResolveTerminatesWithinPrimaryCount(t *testing.T) {
	// Each provider reveals a synonym only the next one recognizes, so every
	// round makes progress and the cap is what stops the loop.
	a := testsupport.NewFakeProvider("anilist").
		WithHit("seed", providers.Result{Title: "seed", Synonyms: []string{"alpha"}}).
		WithHit("gamma", providers.Result{Title: "gamma"})
	b := testsupport.NewFakeProvider("kitsu").
		WithHit("alpha", providers.Result{Title: "alpha", Synonyms: []string{"beta"}})
	c := testsupport.NewFakeProvider("mal").
		WithHit("beta", providers.Result{Title: "beta", Synonyms: []string{"gamma"}})
	engine := newEngine(t, []string{"anilist", "kitsu", "mal"}, nil, []*testsupport.FakeProvider{a, b, c})

	entity, err := engine.Resolve(context.Background(), anime("seed"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if entity.Rounds > 3 {
		t.Fatalf("rounds = %d, exceeds primary count", entity.Rounds)
	}
	if len(entity.Results) != 3 {
		t.Fatalf("expected all primaries resolved, got %v", entity.Results)
	}
	assertNoRepeatedQueries(t, a, b, c)
}

func TestResolveNoPrimaryHitSkipsAuxiliaries(t *testing.T) {
	aggregate := testsupport.NewFakeProvider("anilist")
	fallback := testsupport.NewFakeProvider("kitsu")
	aux := testsupport.NewFakeProvider("animeplanet").
		WithHit("nothing here", providers.Result{URL: "https://www.anime-planet.com/anime/x"})
	engine := newEngine(t, []string{"anilist", "kitsu"}, []string{"animeplanet"}, []*testsupport.FakeProvider{aggregate, fallback, aux})

	entity, err := engine.Resolve(context.Background(), anime("nothing here"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got entity=%v err=%v", entity, err)
	}
	if errors.Is(err, services.ErrTimeout) {
		t.Fatalf("plain miss must not be reported as a timeout: %v", err)
	}
	if calls := aux.Calls(); len(calls) != 0 {
		t.Fatalf("auxiliary provider called without a primary hit: %v", calls)
	}
}

func TestResolveQueriesAuxiliariesWithPool(t *testing.T) {
	aggregate := testsupport.NewFakeProvider("anilist").
		WithHit("Oregairu", providers.Result{Title: "Oregairu", Synonyms: []string{"SNAFU"}})
	aux := testsupport.NewFakeProvider("animeplanet").
		WithHit("snafu", providers.Result{URL: "https://www.anime-planet.com/anime/snafu"})
	aux2 := testsupport.NewFakeProvider("anidb")
	engine := newEngine(t, []string{"anilist"}, []string{"animeplanet", "anidb"}, []*testsupport.FakeProvider{aggregate, aux, aux2})

	entity, err := engine.Resolve(context.Background(), anime("Oregairu"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if diff := cmp.Diff([]string{"oregairu", "snafu"}, aux.Searches()); diff != "" {
		t.Fatalf("auxiliary searches mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"oregairu", "snafu"}, aux2.Searches()); diff != "" {
		t.Fatalf("second auxiliary searches mismatch (-want +got):\n%s", diff)
	}
	if entity.Results["animeplanet"] == nil {
		t.Fatal("expected auxiliary result")
	}
	if _, ok := entity.Results["anidb"]; ok {
		t.Fatal("anidb had no match and must be absent")
	}
	if diff := cmp.Diff([]string{"Oregairu", "snafu"}, entity.Synonyms); diff != "" {
		t.Fatalf("auxiliaries must not add synonyms (-want +got):\n%s", diff)
	}
}

func TestResolveSlowAuxiliaryKeepsPrimaryHit(t *testing.T) {
	aggregate := testsupport.NewFakeProvider("anilist").
		WithHit("Bebop", providers.Result{Title: "Cowboy Bebop", Synonyms: []string{"CB"}})
	slowAux := testsupport.NewFakeProvider("animeplanet").WithDelay("", 5*time.Second)
	engine := newEngine(t, []string{"anilist"}, []string{"animeplanet"}, []*testsupport.FakeProvider{aggregate, slowAux},
		resolution.WithTimeouts(150*time.Millisecond, 100*time.Millisecond))

	start := time.Now()
	entity, err := engine.Resolve(context.Background(), anime("Bebop"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("Resolve took %v, expected the request timeout to bound it", elapsed)
	}
	if diff := cmp.Diff([]string{"anilist"}, providerIDs(entity)); diff != "" {
		t.Fatalf("result providers mismatch (-want +got):\n%s", diff)
	}
	if entity.Title() != "Cowboy Bebop" {
		t.Fatalf("title = %q", entity.Title())
	}
}

func TestResolveSlowPrimaryTreatedAsAbsent(t *testing.T) {
	aggregate := testsupport.NewFakeProvider("anilist").
		WithHit("Bebop", providers.Result{Title: "Cowboy Bebop"}).
		WithDelay("", 5*time.Second)
	fallback := testsupport.NewFakeProvider("kitsu").
		WithHit("Bebop", providers.Result{Title: "Cowboy Bebop (Kitsu)"})
	engine := newEngine(t, []string{"anilist", "kitsu"}, nil, []*testsupport.FakeProvider{aggregate, fallback},
		resolution.WithTimeouts(3*time.Second, 50*time.Millisecond))

	entity, err := engine.Resolve(context.Background(), anime("Bebop"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, ok := entity.Results["anilist"]; ok {
		t.Fatal("timed out provider must be absent")
	}
	if entity.Title() != "Cowboy Bebop (Kitsu)" {
		t.Fatalf("title = %q", entity.Title())
	}
}

func TestResolveProviderErrorsAreAbsorbed(t *testing.T) {
	broken := testsupport.NewFakeProvider("anilist").
		WithError(services.Wrap(services.ErrProviderUnavailable, "anilist", "search", "returned 500", nil))
	fallback := testsupport.NewFakeProvider("kitsu").
		WithHit("Bebop", providers.Result{Title: "Cowboy Bebop"})
	engine := newEngine(t, []string{"anilist", "kitsu"}, nil, []*testsupport.FakeProvider{broken, fallback})

	entity, err := engine.Resolve(context.Background(), anime("Bebop"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if diff := cmp.Diff([]string{"kitsu"}, providerIDs(entity)); diff != "" {
		t.Fatalf("result providers mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveRequestTimeoutReportsNotFound(t *testing.T) {
	slow := testsupport.NewFakeProvider("anilist").
		WithHit("Bebop", providers.Result{Title: "Cowboy Bebop"}).
		WithDelay("", 5*time.Second)
	engine := newEngine(t, []string{"anilist"}, nil, []*testsupport.FakeProvider{slow},
		resolution.WithTimeouts(50*time.Millisecond, 0))

	start := time.Now()
	_, err := engine.Resolve(context.Background(), anime("Bebop"))
	if !errors.Is(err, services.ErrNotFound) || !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected not found + timeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("Resolve took %v, expected the request timeout to bound it", elapsed)
	}
}

func TestResolveCallerCancellation(t *testing.T) {
	slow := testsupport.NewFakeProvider("anilist").WithDelay("", 5*time.Second)
	engine := newEngine(t, []string{"anilist"}, nil, []*testsupport.FakeProvider{slow})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := engine.Resolve(ctx, anime("Bebop"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestResolveCallerDeadlineReportsNotFound(t *testing.T) {
	slow := testsupport.NewFakeProvider("anilist").
		WithHit("Bebop", providers.Result{Title: "Cowboy Bebop"}).
		WithDelay("", 5*time.Second)
	engine := newEngine(t, []string{"anilist"}, nil, []*testsupport.FakeProvider{slow},
		resolution.WithTimeouts(0, 0))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := engine.Resolve(ctx, anime("Bebop"))
	if !errors.Is(err, services.ErrNotFound) || !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected not found + timeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("Resolve took %v, expected the caller deadline to bound it", elapsed)
	}
}

func TestResolveCallerDeadlineKeepsAnsweredProviders(t *testing.T) {
	aggregate := testsupport.NewFakeProvider("anilist").
		WithHit("Bebop", providers.Result{Title: "Cowboy Bebop"})
	slow := testsupport.NewFakeProvider("kitsu").WithDelay("", 5*time.Second)
	engine := newEngine(t, []string{"anilist", "kitsu"}, nil, []*testsupport.FakeProvider{aggregate, slow},
		resolution.WithTimeouts(0, 0))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	entity, err := engine.Resolve(ctx, anime("Bebop"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if diff := cmp.Diff([]string{"anilist"}, providerIDs(entity)); diff != "" {
		t.Fatalf("result providers mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveRankPrecedenceIgnoresCompletionOrder(t *testing.T) {
	aggregate := testsupport.NewFakeProvider("anilist").
		WithHit("Bebop", providers.Result{Title: "Aggregate Title"}).
		WithDelay("", 30*time.Millisecond)
	fallback := testsupport.NewFakeProvider("kitsu").
		WithHit("Bebop", providers.Result{Title: "Fallback Title"})
	engine := newEngine(t, []string{"anilist", "kitsu"}, nil, []*testsupport.FakeProvider{aggregate, fallback})

	for i := 0; i < 3; i++ {
		entity, err := engine.Resolve(context.Background(), anime("Bebop"))
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if diff := cmp.Diff([]string{"anilist", "kitsu"}, providerIDs(entity)); diff != "" {
			t.Fatalf("ranked order mismatch (-want +got):\n%s", diff)
		}
		if entity.Title() != "Aggregate Title" {
			t.Fatalf("title = %q", entity.Title())
		}
	}
}

type staticOverrides map[string]overrides.Override

func (s staticOverrides) Lookup(_ media.Medium, query string) (overrides.Override, bool, error) {
	o, ok := s[query]
	return o, ok, nil
}

func TestResolveUsesOverrides(t *testing.T) {
	aggregate := testsupport.NewFakeProvider("anilist").
		WithID("86635", providers.Result{Title: "Despair Simulator", Synonyms: []string{"Zetsubou Simulator"}})
	aux := testsupport.NewFakeProvider("mangaupdates").
		WithID("abc", providers.Result{URL: "https://www.mangaupdates.com/series/abc"})
	catalog := staticOverrides{"despair simulator": {
		Medium: media.Manga,
		Names:  []string{"despair simulator"},
		IDs:    map[string]string{"anilist": "86635", "mangaupdates": "abc"},
	}}
	engine := newEngine(t, []string{"anilist"}, nil, []*testsupport.FakeProvider{aggregate, aux},
		resolution.WithOverrides(catalog))

	entity, err := engine.Resolve(context.Background(), media.SearchRequest{Medium: media.Manga, Query: "despair simulator"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !entity.Overridden {
		t.Fatal("expected overridden entity")
	}
	if len(aggregate.Searches()) != 0 || len(aux.Searches()) != 0 {
		t.Fatal("override must bypass the synonym search")
	}
	if diff := cmp.Diff([]string{"anilist", "mangaupdates"}, providerIDs(entity)); diff != "" {
		t.Fatalf("result providers mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveRejectsEmptyQuery(t *testing.T) {
	engine := newEngine(t, []string{"anilist"}, nil, []*testsupport.FakeProvider{testsupport.NewFakeProvider("anilist")})
	if _, err := engine.Resolve(context.Background(), anime("   ")); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestNewRejectsUnregisteredProvider(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	registry := providers.NewRegistry(testsupport.NewFakeProvider("anilist"))
	if _, err := resolution.New(cfg, registry, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestNewSkipsUnsupportedProviders(t *testing.T) {
	aggregate := testsupport.NewFakeProvider("anilist")
	animeOnly := testsupport.NewFakeProvider("anidb").OnlyFor(media.Anime)
	engine := newEngine(t, []string{"anilist"}, []string{"anidb"}, []*testsupport.FakeProvider{aggregate, animeOnly})

	if diff := cmp.Diff([]string{"anilist", "anidb"}, engine.Ranking(media.Anime)); diff != "" {
		t.Fatalf("anime ranking mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"anilist"}, engine.Ranking(media.Manga)); diff != "" {
		t.Fatalf("manga ranking mismatch (-want +got):\n%s", diff)
	}
}

func providerIDs(entity *resolution.Entity) []string {
	var ids []string
	for _, result := range entity.Ranked() {
		ids = append(ids, result.Provider)
	}
	return ids
}
