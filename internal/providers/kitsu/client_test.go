package kitsu_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tagscout/internal/media"
	"tagscout/internal/providers"
	"tagscout/internal/providers/kitsu"
	"tagscout/internal/services"
)

func newClient(t *testing.T, handler http.HandlerFunc) *kitsu.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	fetcher := providers.NewFetcher(providers.Kitsu, providers.FetcherOptions{HTTPClient: server.Client()})
	client, err := kitsu.New(server.URL, kitsu.WithFetcher(fetcher))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestSearchAnime(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/anime" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("filter[text]"); got != "bebop" {
			t.Errorf("unexpected filter %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/vnd.api+json" {
			t.Errorf("unexpected accept header %q", got)
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"1","type":"anime","attributes":{
			"slug":"cowboy-bebop",
			"canonicalTitle":"Cowboy Bebop",
			"titles":{"en":"Cowboy Bebop","en_jp":"Cowboy Bebop","ja_jp":"カウボーイビバップ"},
			"abbreviatedTitles":["COWBOY BEBOP"],
			"synopsis":"In the year 2071...",
			"status":"finished",
			"episodeCount":26,
			"posterImage":{"original":"https://media.example/orig.jpg"}
		}}]}`))
	})

	result, err := client.Search(context.Background(), "bebop", media.Anime)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if result == nil {
		t.Fatal("expected result")
	}
	if result.URL != "https://kitsu.app/anime/cowboy-bebop" {
		t.Fatalf("unexpected url %q", result.URL)
	}
	if result.Status != providers.StatusFinished || result.Episodes != 26 {
		t.Fatalf("unexpected result %#v", result)
	}
	if result.CoverURL != "https://media.example/orig.jpg" {
		t.Fatalf("unexpected cover %q", result.CoverURL)
	}
	// "COWBOY BEBOP" is a case-insensitive duplicate of the title.
	if got := client.Synonyms(result); len(got) != 2 {
		t.Fatalf("unexpected synonyms %v", got)
	}
}

func TestSearchMangaSkipsNovels(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("filter[subtype]") != "" {
			t.Errorf("manga search must not filter subtype")
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"9","attributes":{"canonicalTitle":"Novel","subtype":"novel"}}]}`))
	})
	result, err := client.Search(context.Background(), "novel", media.Manga)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if result != nil {
		t.Fatalf("expected novel to be skipped, got %#v", result)
	}
}

func TestSearchLightNovelFiltersSubtype(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/manga" || r.URL.Query().Get("filter[subtype]") != "novel" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"3","attributes":{"canonicalTitle":"Overlord","subtype":"novel","status":"current","volumeCount":16}}]}`))
	})
	result, err := client.Search(context.Background(), "overlord", media.LightNovel)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if result.Status != providers.StatusReleasing || result.Volumes != 16 {
		t.Fatalf("unexpected result %#v", result)
	}
	if result.URL != "https://kitsu.app/manga/3" {
		t.Fatalf("unexpected url %q", result.URL)
	}
}

func TestSearchEmptyListIsAbsent(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	})
	result, err := client.Search(context.Background(), "nothing", media.Anime)
	if err != nil || result != nil {
		t.Fatalf("expected absent, got %#v %v", result, err)
	}
}

func TestSearchMalformedJSON(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":`))
	})
	_, err := client.Search(context.Background(), "broken", media.Anime)
	if !errors.Is(err, services.ErrProviderUnavailable) {
		t.Fatalf("expected provider unavailable, got %v", err)
	}
}

func TestFetchByID(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/anime/1" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"data":{"id":"1","attributes":{"canonicalTitle":"Cowboy Bebop","slug":"cowboy-bebop"}}}`))
	})
	result, err := client.FetchByID(context.Background(), "1", media.Anime)
	if err != nil {
		t.Fatalf("FetchByID returned error: %v", err)
	}
	if result.Title != "Cowboy Bebop" {
		t.Fatalf("unexpected result %#v", result)
	}
}
