package linksearch

import (
	"regexp"

	"tagscout/internal/media"
	"tagscout/internal/providers"
)

// Default site roots.
const (
	AnimePlanetURL  = "https://www.anime-planet.com"
	AniDBURL        = "https://anidb.net"
	MangaUpdatesURL = "https://www.mangaupdates.com"
	NovelUpdatesURL = "https://www.novelupdates.com"
	LNDBURL         = "https://lndb.info"
)

// AnimePlanet searches anime and manga on Anime-Planet.
func AnimePlanet(baseURL string) Site {
	return Site{
		ID:      providers.AnimePlanet,
		BaseURL: orDefault(baseURL, AnimePlanetURL),
		SearchPaths: map[media.Medium]string{
			media.Anime: "/anime/all?name=%s",
			media.Manga: "/manga/all?name=%s",
		},
		TitlePaths: map[media.Medium]string{
			media.Anime: "/anime/%s",
			media.Manga: "/manga/%s",
		},
		TitlePage:  regexp.MustCompile(`^/(?:anime|manga)/[a-z0-9-]+$`),
		ResultLink: regexp.MustCompile(`<li[^>]*class="card[^"]*"[^>]*>\s*<a[^>]*href="(/(?:anime|manga)/[a-z0-9-]+)"`),
	}
}

// AniDB searches anime on AniDB.
func AniDB(baseURL string) Site {
	return Site{
		ID:      providers.AniDB,
		BaseURL: orDefault(baseURL, AniDBURL),
		SearchPaths: map[media.Medium]string{
			media.Anime: "/anime/?adb.search=%s&do.search=1",
		},
		TitlePaths: map[media.Medium]string{
			media.Anime: "/anime/%s",
		},
		TitlePage:  regexp.MustCompile(`^/anime/[0-9]+$`),
		ResultLink: regexp.MustCompile(`<td[^>]*class="name[^"]*"[^>]*>\s*<a[^>]*href="(/anime/[0-9]+)"`),
	}
}

// MangaUpdates searches manga and light novels on MangaUpdates.
func MangaUpdates(baseURL string) Site {
	return Site{
		ID:      providers.MangaUpdates,
		BaseURL: orDefault(baseURL, MangaUpdatesURL),
		SearchPaths: map[media.Medium]string{
			media.Manga:      "/series?search=%s",
			media.LightNovel: "/series?search=%s&type=novel",
		},
		TitlePaths: map[media.Medium]string{
			media.Manga:      "/series/%s",
			media.LightNovel: "/series/%s",
		},
		TitlePage:  regexp.MustCompile(`^/series/[a-z0-9]+(?:/[^/]+)?$`),
		ResultLink: regexp.MustCompile(`href="((?:https?://[^/"]+)?/series/[a-z0-9]+/[^"]*)"`),
	}
}

// NovelUpdates searches light novels on NovelUpdates.
func NovelUpdates(baseURL string) Site {
	return Site{
		ID:      providers.NovelUpdates,
		BaseURL: orDefault(baseURL, NovelUpdatesURL),
		SearchPaths: map[media.Medium]string{
			media.LightNovel: "/?s=%s&post_type=seriesplans",
		},
		TitlePaths: map[media.Medium]string{
			media.LightNovel: "/series/%s/",
		},
		TitlePage:  regexp.MustCompile(`^/series/[^/]+/?$`),
		ResultLink: regexp.MustCompile(`href="((?:https?://[^/"]+)?/series/[^"/]+/?)"`),
	}
}

// LNDB searches light novels on LNDB.
func LNDB(baseURL string) Site {
	return Site{
		ID:      providers.LNDB,
		BaseURL: orDefault(baseURL, LNDBURL),
		SearchPaths: map[media.Medium]string{
			media.LightNovel: "/search?text=%s",
		},
		TitlePaths: map[media.Medium]string{
			media.LightNovel: "/light_novel/%s",
		},
		TitlePage:  regexp.MustCompile(`^/light_novel/[^/]+$`),
		ResultLink: regexp.MustCompile(`href="((?:https?://[^/"]+)?/light_novel/[^"/]+)"`),
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
