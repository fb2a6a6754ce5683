package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/and161185/locadmin/internal/model"
	"github.com/and161185/locadmin/internal/store"
)

// pickProject resolves a user reference: "#N" from the last listing,
// an exact id, or a case-insensitive name match.
func pickProject(projects []model.Project, ref string) (model.Project, bool) {
	if n, ok := strings.CutPrefix(ref, "#"); ok {
		i, err := strconv.Atoi(n)
		if err == nil && i >= 1 && i <= len(projects) {
			return projects[i-1], true
		}
		return model.Project{}, false
	}
	for _, p := range projects {
		if p.ID == ref {
			return p, true
		}
	}
	for _, p := range projects {
		if strings.EqualFold(p.Name, ref) {
			return p, true
		}
	}
	return model.Project{}, false
}

// sortKeys orders a listing copy per the sort configuration. The
// "updatedAt" field uses each key's most recent translation.
func sortKeys(keys []model.TranslationKey, cfg store.SortConfig) []model.TranslationKey {
	out := make([]model.TranslationKey, len(keys))
	copy(out, keys)

	less := func(i, j int) bool { return out[i].Key < out[j].Key }
	switch cfg.Field {
	case "category":
		less = func(i, j int) bool {
			if out[i].Category != out[j].Category {
				return out[i].Category < out[j].Category
			}
			return out[i].Key < out[j].Key
		}
	case "updatedAt":
		less = func(i, j int) bool {
			ti, tj := lastUpdated(out[i]), lastUpdated(out[j])
			if !ti.Equal(tj) {
				return ti.Before(tj)
			}
			return out[i].Key < out[j].Key
		}
	}

	if cfg.Direction == "desc" {
		asc := less
		less = func(i, j int) bool { return asc(j, i) }
	}
	sort.SliceStable(out, less)
	return out
}

func lastUpdated(k model.TranslationKey) time.Time {
	var latest time.Time
	for _, tr := range k.Translations {
		if tr.UpdatedAt.After(latest) {
			latest = tr.UpdatedAt
		}
	}
	return latest
}

// parseBulkArg parses one "KEY_ID:LANG=VALUE" bulk update argument.
func parseBulkArg(arg string) (model.TranslationUpdate, error) {
	keyID, rest, ok := strings.Cut(arg, ":")
	if !ok || keyID == "" {
		return model.TranslationUpdate{}, fmt.Errorf("bad update %q, want KEY_ID:LANG=VALUE", arg)
	}
	lang, value, ok := strings.Cut(rest, "=")
	if !ok || lang == "" {
		return model.TranslationUpdate{}, fmt.Errorf("bad update %q, want KEY_ID:LANG=VALUE", arg)
	}
	return model.TranslationUpdate{KeyID: keyID, LanguageCode: lang, Value: value}, nil
}
