package main

import (
	"testing"
	"time"

	"github.com/and161185/locadmin/internal/model"
	"github.com/and161185/locadmin/internal/store"
)

func TestPickProject(t *testing.T) {
	t.Parallel()

	projects := []model.Project{
		{ID: "id-1", Name: "Website"},
		{ID: "id-2", Name: "Mobile App"},
	}

	if p, ok := pickProject(projects, "#2"); !ok || p.ID != "id-2" {
		t.Fatalf("#2: got %+v ok=%v", p, ok)
	}
	if p, ok := pickProject(projects, "id-1"); !ok || p.Name != "Website" {
		t.Fatalf("by id: got %+v ok=%v", p, ok)
	}
	if p, ok := pickProject(projects, "website"); !ok || p.ID != "id-1" {
		t.Fatalf("by name: got %+v ok=%v", p, ok)
	}
	if _, ok := pickProject(projects, "#9"); ok {
		t.Fatalf("#9: expected no match")
	}
	if _, ok := pickProject(projects, "unknown"); ok {
		t.Fatalf("unknown: expected no match")
	}
}

func TestSortKeys(t *testing.T) {
	t.Parallel()

	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := old.Add(48 * time.Hour)
	keys := []model.TranslationKey{
		{ID: "1", Key: "nav.home", Category: "navigation",
			Translations: map[string]model.Translation{"en": {UpdatedAt: recent}}},
		{ID: "2", Key: "app.title", Category: "general",
			Translations: map[string]model.Translation{"en": {UpdatedAt: old}}},
	}

	byKey := sortKeys(keys, store.SortConfig{Field: "key", Direction: "asc"})
	if byKey[0].Key != "app.title" {
		t.Fatalf("key asc: got %s first", byKey[0].Key)
	}
	if keys[0].Key != "nav.home" {
		t.Fatalf("input slice was reordered")
	}

	byKeyDesc := sortKeys(keys, store.SortConfig{Field: "key", Direction: "desc"})
	if byKeyDesc[0].Key != "nav.home" {
		t.Fatalf("key desc: got %s first", byKeyDesc[0].Key)
	}

	byUpdated := sortKeys(keys, store.SortConfig{Field: "updatedAt", Direction: "desc"})
	if byUpdated[0].ID != "1" {
		t.Fatalf("updatedAt desc: got %s first", byUpdated[0].ID)
	}

	byCategory := sortKeys(keys, store.SortConfig{Field: "category", Direction: "asc"})
	if byCategory[0].Category != "general" {
		t.Fatalf("category asc: got %s first", byCategory[0].Category)
	}
}

func TestParseBulkArg(t *testing.T) {
	t.Parallel()

	u, err := parseBulkArg("k1:fr=Bonjour le monde")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if u.KeyID != "k1" || u.LanguageCode != "fr" || u.Value != "Bonjour le monde" {
		t.Fatalf("got %+v", u)
	}

	// Empty value is a valid explicit clear.
	u, err = parseBulkArg("k1:fr=")
	if err != nil {
		t.Fatalf("empty value: %v", err)
	}
	if u.Value != "" {
		t.Fatalf("got %+v", u)
	}

	for _, bad := range []string{"", "k1", "k1:fr", ":fr=x", "k1:=x"} {
		if _, err := parseBulkArg(bad); err == nil {
			t.Fatalf("parseBulkArg(%q): expected error", bad)
		}
	}
}
