package overrides

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"tagscout/internal/media"
)

func TestParseOverridesAcceptsWrapperAndNormalizes(t *testing.T) {
	data := []byte("\xEF\xBB\xBFoverrides:\n  - medium: M\n    names: [\"  Despair   Simulator \", \"\"]\n    ids:\n      AniList: \" 86635 \"\n      mangaupdates: \"\"\n")
	entries, err := parseOverrides(data)
	if err != nil {
		t.Fatalf("parseOverrides failed: %v", err)
	}
	want := []Override{{
		Medium: media.Manga,
		Names:  []string{"despair simulator"},
		IDs:    map[string]string{"anilist": "86635"},
	}}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestParseOverridesAcceptsBareList(t *testing.T) {
	data := []byte("- medium: anime\n  names: [bebop]\n  ids: {anilist: \"1\", mal: \"1\"}\n")
	entries, err := parseOverrides(data)
	if err != nil {
		t.Fatalf("parseOverrides failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Medium != media.Anime {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if diff := cmp.Diff([]string{"anilist", "mal"}, entries[0].Providers()); diff != "" {
		t.Fatalf("providers mismatch (-want +got):\n%s", diff)
	}
}

func TestParseOverridesRejectsInvalidEntries(t *testing.T) {
	tests := map[string]string{
		"unknown medium": "- medium: film\n  names: [x]\n  ids: {anilist: \"1\"}\n",
		"no names":       "- medium: anime\n  names: []\n  ids: {anilist: \"1\"}\n",
		"no ids":         "- medium: anime\n  names: [x]\n",
		"not yaml":       "- [unterminated\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := parseOverrides([]byte(data)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParseOverridesEmptyDocument(t *testing.T) {
	for _, data := range []string{"", "  \n", "# nothing yet\n"} {
		entries, err := parseOverrides([]byte(data))
		if err != nil || len(entries) != 0 {
			t.Fatalf("parseOverrides(%q) = %v, %v", data, entries, err)
		}
	}
}

func TestCatalogLookupMatchesMediumAndName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.yaml")
	data := []byte("overrides:\n  - medium: manga\n    names: [despair simulator]\n    ids: {anilist: \"86635\"}\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write overrides: %v", err)
	}
	catalog := NewCatalog(path, nil)

	match, ok, err := catalog.Lookup(media.Manga, "Despair  SIMULATOR")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !ok || match.IDs["anilist"] != "86635" {
		t.Fatalf("expected match, got %+v ok=%v", match, ok)
	}
	if _, ok, _ := catalog.Lookup(media.Anime, "despair simulator"); ok {
		t.Fatal("expected no match for a different medium")
	}
}

func TestCatalogReloadsOnModification(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.yaml")
	if err := os.WriteFile(path, []byte("- medium: anime\n  names: [first]\n  ids: {anilist: \"1\"}\n"), 0o644); err != nil {
		t.Fatalf("write overrides: %v", err)
	}
	catalog := NewCatalog(path, nil)
	if _, ok, err := catalog.Lookup(media.Anime, "first"); err != nil || !ok {
		t.Fatalf("expected first match, ok=%v err=%v", ok, err)
	}

	if err := os.WriteFile(path, []byte("- medium: anime\n  names: [second]\n  ids: {anilist: \"2\"}\n"), 0o644); err != nil {
		t.Fatalf("rewrite overrides: %v", err)
	}
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	if _, ok, _ := catalog.Lookup(media.Anime, "first"); ok {
		t.Fatal("expected stale entry to be dropped after reload")
	}
	match, ok, err := catalog.Lookup(media.Anime, "second")
	if err != nil || !ok || match.IDs["anilist"] != "2" {
		t.Fatalf("expected reloaded match, got %+v ok=%v err=%v", match, ok, err)
	}
}

func TestCatalogMissingFileAndNilCatalog(t *testing.T) {
	catalog := NewCatalog(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	if _, ok, err := catalog.Lookup(media.Anime, "x"); ok || err != nil {
		t.Fatalf("missing file: ok=%v err=%v", ok, err)
	}
	var nilCatalog *Catalog
	if _, ok, err := nilCatalog.Lookup(media.Anime, "x"); ok || err != nil {
		t.Fatalf("nil catalog: ok=%v err=%v", ok, err)
	}
	if NewCatalog("  ", nil) != nil {
		t.Fatal("expected nil catalog for empty path")
	}
}

func TestCatalogRefreshIndexesEveryName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.yaml")
	data := []byte("- medium: anime\n  names: [bebop, cowboy bebop]\n  ids: {anilist: \"1\"}\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write overrides: %v", err)
	}
	catalog := NewCatalog(path, nil)
	if catalog.Len() != 0 {
		t.Fatal("expected nothing indexed before the first load")
	}
	if err := catalog.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := catalog.Len(); got != 2 {
		t.Fatalf("Len = %d, want 2", got)
	}
	var nilCatalog *Catalog
	if err := nilCatalog.Refresh(); err != nil || nilCatalog.Len() != 0 {
		t.Fatalf("nil catalog: err=%v len=%d", err, nilCatalog.Len())
	}
}
