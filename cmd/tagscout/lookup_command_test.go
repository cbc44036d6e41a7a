package main

import (
	"encoding/json"
	"testing"
)

func TestLookupRendersRecord(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, env, "lookup", "Trigun")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	requireContains(t, out, "Trigun")
	requireContains(t, out, "https://anilist.co/anime/6")
}

func TestLookupExpandedIncludesDescription(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, env, "lookup", "--medium", "manga", "--expanded", "Monster")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	requireContains(t, out, "https://anilist.co/manga/30001")
	requireContains(t, out, "A surgeon")
}

func TestLookupNotFound(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, env, "lookup", "Nope")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	requireContains(t, out, `No anime found for "Nope".`)

	out, _, err = runCLI(t, env, "lookup", "--json", "Nope")
	if err != nil {
		t.Fatalf("lookup --json: %v", err)
	}
	var result lookupResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if result.Found || result.Record != nil || result.Request.Query != "Nope" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestLookupRejectsUnknownMedium(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, env, "lookup", "--medium", "film", "Trigun"); err == nil {
		t.Fatal("expected error for unknown medium")
	}
}
