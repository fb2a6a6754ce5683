// Package model defines domain entities shared by the client, stores and console.
package model

import "time"

// Translation is one language's text for one key. It is an immutable
// snapshot: updates replace it wholesale, never merge field-by-field.
type Translation struct {
	Value     string
	UpdatedAt time.Time
	UpdatedBy string
}

// TranslationKey names one piece of localizable text and carries the
// per-language translations fetched (or optimistically set) so far.
// A language code absent from Translations means "no translation
// recorded", which is distinct from an explicit empty string.
type TranslationKey struct {
	ID           string // server-assigned, unique
	Key          string // dotted identifier, e.g. "button.save"
	Category     string
	Description  string
	Translations map[string]Translation // language code -> translation
}

// Language is an immutable value type; identity is Code.
type Language struct {
	Code string // e.g. "en"
	Name string // e.g. "English"
	Flag string // optional flag emoji
}

// Project owns the set of languages valid for its translation keys.
type Project struct {
	ID          string
	Name        string
	Description string
	Languages   []Language
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// User is the authenticated account as reported by the service.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// Filters narrows a translation-key listing. Zero values mean
// "no constraint"; see the store's FilterPatch for partial updates.
type Filters struct {
	Search              string
	Category            string
	LanguageCode        string
	MissingTranslations bool
}

// ListParams is the full parameter set for a translation-key listing.
type ListParams struct {
	ProjectID string
	Page      int
	Limit     int
	Filters   Filters
}

// TranslationKeyPage is one page of a translation-key listing.
type TranslationKeyPage struct {
	Keys  []TranslationKey
	Total int
	Page  int
	Limit int
}

// CreateTranslationKeyRequest creates a key server-side; the client
// assigns no id. InitialTranslations maps language code to value.
type CreateTranslationKeyRequest struct {
	Key                 string
	Category            string
	Description         string
	ProjectID           string
	InitialTranslations map[string]string
}

// TranslationUpdate is one cell edit: a (key, language, value) triple.
type TranslationUpdate struct {
	KeyID        string
	LanguageCode string
	Value        string
}

// LanguageCompletion is per-language translation progress.
type LanguageCompletion struct {
	Completed  int
	Total      int
	Percentage float64
}

// Analytics summarizes translation completeness for one project.
type Analytics struct {
	ProjectID            string
	TotalKeys            int
	CompletionByLanguage map[string]LanguageCompletion
	LastUpdated          time.Time
}

// Localizations is the legacy flat export: code -> translated value.
type Localizations struct {
	ProjectID string
	Locale    string
	Values    map[string]string
}

// Credentials authenticates a login call.
type Credentials struct {
	Username string
	Password string
}

// Registration creates a new account.
type Registration struct {
	Username string
	Email    string
	Password string
	FullName string
}

// LoginResult is the auth envelope returned by a successful login.
type LoginResult struct {
	User        User
	AccessToken string
}

// DeleteResult reports the outcome of a key deletion.
type DeleteResult struct {
	Success bool
	Message string
	KeyID   string
}

// BulkUpdateResult reports how many of the requested updates were applied.
type BulkUpdateResult struct {
	Success        bool
	Message        string
	UpdatedCount   int
	TotalRequested int
}
