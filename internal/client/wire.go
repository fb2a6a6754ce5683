package client

import (
	"time"

	"github.com/and161185/locadmin/internal/model"
)

// Wire shapes mirror the service's JSON (snake_case, nested auth
// envelopes). Conversion to domain types happens here and nowhere else.

type wireTranslation struct {
	Value     string `json:"value"`
	UpdatedAt string `json:"updated_at"`
	UpdatedBy string `json:"updated_by"`
}

type wireTranslationKey struct {
	ID           string                     `json:"id"`
	Key          string                     `json:"key"`
	Category     string                     `json:"category"`
	Description  string                     `json:"description"`
	Translations map[string]wireTranslation `json:"translations"`
}

type wireKeyPage struct {
	Keys  []wireTranslationKey `json:"keys"`
	Total int                  `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}

type wireLanguage struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Flag string `json:"flag"`
}

type wireProject struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Languages   []wireLanguage `json:"languages"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
}

type wireLoginResponse struct {
	User        model.User `json:"user"`
	AccessToken string     `json:"access_token"`
}

type wireAnalytics struct {
	ProjectID            string `json:"projectId"`
	TotalKeys            int    `json:"totalKeys"`
	CompletionByLanguage map[string]struct {
		Completed  int     `json:"completed"`
		Total      int     `json:"total"`
		Percentage float64 `json:"percentage"`
	} `json:"completionByLanguage"`
	LastUpdated string `json:"lastUpdated"`
}

type wireLocalizations struct {
	ProjectID     string            `json:"project_id"`
	Locale        string            `json:"locale"`
	Localizations map[string]string `json:"localizations"`
}

// parseTime tolerates absent or malformed timestamps by substituting the
// current instant, matching the defaulting rules for translations.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Now().UTC()
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Now().UTC()
	}
	return t
}

// fromWireTranslation applies the defaulting rules: missing value becomes
// the empty string, missing updated_at the current instant, missing
// updated_by "unknown".
func fromWireTranslation(in wireTranslation) model.Translation {
	by := in.UpdatedBy
	if by == "" {
		by = "unknown"
	}
	return model.Translation{
		Value:     in.Value,
		UpdatedAt: parseTime(in.UpdatedAt),
		UpdatedBy: by,
	}
}

// fromWireTranslationKey converts one wire key to the domain shape.
func fromWireTranslationKey(in wireTranslationKey) model.TranslationKey {
	translations := make(map[string]model.Translation, len(in.Translations))
	for code, tr := range in.Translations {
		translations[code] = fromWireTranslation(tr)
	}
	return model.TranslationKey{
		ID:           in.ID,
		Key:          in.Key,
		Category:     in.Category,
		Description:  in.Description,
		Translations: translations,
	}
}

// fromWireKeyPage converts a listing page.
func fromWireKeyPage(in wireKeyPage) model.TranslationKeyPage {
	keys := make([]model.TranslationKey, 0, len(in.Keys))
	for _, k := range in.Keys {
		keys = append(keys, fromWireTranslationKey(k))
	}
	return model.TranslationKeyPage{Keys: keys, Total: in.Total, Page: in.Page, Limit: in.Limit}
}

// fromWireProject converts one wire project.
func fromWireProject(in wireProject) model.Project {
	langs := make([]model.Language, 0, len(in.Languages))
	for _, l := range in.Languages {
		langs = append(langs, model.Language{Code: l.Code, Name: l.Name, Flag: l.Flag})
	}
	return model.Project{
		ID:          in.ID,
		Name:        in.Name,
		Description: in.Description,
		Languages:   langs,
		CreatedAt:   parseTime(in.CreatedAt),
		UpdatedAt:   parseTime(in.UpdatedAt),
	}
}

func fromWireAnalytics(in wireAnalytics) model.Analytics {
	byLang := make(map[string]model.LanguageCompletion, len(in.CompletionByLanguage))
	for code, c := range in.CompletionByLanguage {
		byLang[code] = model.LanguageCompletion{Completed: c.Completed, Total: c.Total, Percentage: c.Percentage}
	}
	return model.Analytics{
		ProjectID:            in.ProjectID,
		TotalKeys:            in.TotalKeys,
		CompletionByLanguage: byLang,
		LastUpdated:          parseTime(in.LastUpdated),
	}
}
