package server

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/locadmin/internal/crypto"
	"github.com/and161185/locadmin/internal/model"
)

// Store errors. The handlers map them to HTTP statuses.
type storeError string

func (e storeError) Error() string { return string(e) }

const (
	errUserExists      storeError = "username already registered"
	errBadCredentials  storeError = "incorrect username or password"
	errUserNotFound    storeError = "user not found"
	errProjectNotFound storeError = "project not found"
	errKeyNotFound     storeError = "translation key not found"
	errKeyExists       storeError = "translation key already exists"
)

type account struct {
	user         model.User
	passwordHash string
}

type storedKey struct {
	projectID string
	key       model.TranslationKey
}

// memStore holds all fixture data behind one mutex. Every accessor
// returns copies so handlers never alias the guarded state.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]*account
	byID     map[string]*account
	projects []model.Project
	keys     []*storedKey
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[string]*account{},
		byID:     map[string]*account{},
	}
}

func newID() string {
	id, err := uuid.NewV4()
	if err != nil {
		panic(err)
	}
	return id.String()
}

// CreateUser registers an account with a hashed password.
func (m *memStore) CreateUser(username, email, password, fullName string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[username]; ok {
		return model.User{}, errUserExists
	}
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return model.User{}, err
	}
	acc := &account{
		user:         model.User{ID: newID(), Username: username, Email: email, FullName: fullName},
		passwordHash: hash,
	}
	m.accounts[username] = acc
	m.byID[acc.user.ID] = acc
	return acc.user, nil
}

// Authenticate verifies credentials. Unknown users and wrong passwords
// are indistinguishable to the caller.
func (m *memStore) Authenticate(username, password string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[username]
	if !ok || !crypto.VerifyPassword(password, acc.passwordHash) {
		return model.User{}, errBadCredentials
	}
	return acc.user, nil
}

// UserByID looks an account up by id.
func (m *memStore) UserByID(id string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.byID[id]
	if !ok {
		return model.User{}, errUserNotFound
	}
	return acc.user, nil
}

// Projects lists all projects.
func (m *memStore) Projects() []model.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Project, len(m.projects))
	copy(out, m.projects)
	return out
}

// ProjectByID finds one project.
func (m *memStore) ProjectByID(id string) (model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Project{}, errProjectNotFound
}

// AddProject inserts a project (used by seeding and tests).
func (m *memStore) AddProject(p model.Project) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects = append(m.projects, p)
}

// listFilter is the parsed filter set of a listing request.
type listFilter struct {
	search              string
	category            string
	languageCode        string
	missingTranslations bool
}

func (f listFilter) matches(k model.TranslationKey, projectLangs []model.Language) bool {
	if f.search != "" {
		s := strings.ToLower(f.search)
		if !strings.Contains(strings.ToLower(k.Key), s) &&
			!strings.Contains(strings.ToLower(k.Description), s) {
			return false
		}
	}
	if f.category != "" && k.Category != f.category {
		return false
	}
	if f.languageCode != "" && !f.missingTranslations {
		if tr, ok := k.Translations[f.languageCode]; !ok || tr.Value == "" {
			return false
		}
	}
	if f.missingTranslations {
		if f.languageCode != "" {
			tr, ok := k.Translations[f.languageCode]
			if ok && tr.Value != "" {
				return false
			}
		} else {
			complete := true
			for _, lang := range projectLangs {
				if tr, ok := k.Translations[lang.Code]; !ok || tr.Value == "" {
					complete = false
					break
				}
			}
			if complete {
				return false
			}
		}
	}
	return true
}

// ListKeys filters and paginates one project's keys, ordered by key name.
func (m *memStore) ListKeys(projectID string, f listFilter, page, limit int) (model.TranslationKeyPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var langs []model.Language
	found := false
	for _, p := range m.projects {
		if p.ID == projectID {
			langs = p.Languages
			found = true
			break
		}
	}
	if !found {
		return model.TranslationKeyPage{}, errProjectNotFound
	}

	var matched []model.TranslationKey
	for _, sk := range m.keys {
		if sk.projectID != projectID {
			continue
		}
		if f.matches(sk.key, langs) {
			matched = append(matched, copyKey(sk.key))
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Key < matched[j].Key })

	total := len(matched)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return model.TranslationKeyPage{Keys: matched[start:end], Total: total, Page: page, Limit: limit}, nil
}

// KeyByID finds one key.
func (m *memStore) KeyByID(id string) (model.TranslationKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sk := range m.keys {
		if sk.key.ID == id {
			return copyKey(sk.key), nil
		}
	}
	return model.TranslationKey{}, errKeyNotFound
}

// CreateKey inserts a key. The (project, key) pair is unique.
func (m *memStore) CreateKey(projectID, key, category, description string, initial map[string]string, by string) (model.TranslationKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := false
	for _, p := range m.projects {
		if p.ID == projectID {
			found = true
			break
		}
	}
	if !found {
		return model.TranslationKey{}, errProjectNotFound
	}
	for _, sk := range m.keys {
		if sk.projectID == projectID && sk.key.Key == key {
			return model.TranslationKey{}, errKeyExists
		}
	}

	translations := map[string]model.Translation{}
	now := time.Now().UTC()
	for code, value := range initial {
		translations[code] = model.Translation{Value: value, UpdatedAt: now, UpdatedBy: by}
	}
	k := model.TranslationKey{
		ID:           newID(),
		Key:          key,
		Category:     category,
		Description:  description,
		Translations: translations,
	}
	m.keys = append(m.keys, &storedKey{projectID: projectID, key: k})
	return copyKey(k), nil
}

// DeleteKey removes a key and reports how many translations went with it.
func (m *memStore) DeleteKey(id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, sk := range m.keys {
		if sk.key.ID == id {
			n := len(sk.key.Translations)
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			return n, nil
		}
	}
	return 0, errKeyNotFound
}

// UpdateTranslation replaces one language's value for one key.
func (m *memStore) UpdateTranslation(keyID, languageCode, value, by string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sk := range m.keys {
		if sk.key.ID != keyID {
			continue
		}
		if sk.key.Translations == nil {
			sk.key.Translations = map[string]model.Translation{}
		}
		sk.key.Translations[languageCode] = model.Translation{
			Value:     value,
			UpdatedAt: time.Now().UTC(),
			UpdatedBy: by,
		}
		return nil
	}
	return errKeyNotFound
}

// Analytics computes completion per language for one project.
func (m *memStore) Analytics(projectID string) (model.Analytics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var langs []model.Language
	found := false
	for _, p := range m.projects {
		if p.ID == projectID {
			langs = p.Languages
			found = true
			break
		}
	}
	if !found {
		return model.Analytics{}, errProjectNotFound
	}

	total := 0
	completed := map[string]int{}
	for _, sk := range m.keys {
		if sk.projectID != projectID {
			continue
		}
		total++
		for _, lang := range langs {
			if tr, ok := sk.key.Translations[lang.Code]; ok && tr.Value != "" {
				completed[lang.Code]++
			}
		}
	}

	byLang := make(map[string]model.LanguageCompletion, len(langs))
	for _, lang := range langs {
		c := model.LanguageCompletion{Completed: completed[lang.Code], Total: total}
		if total > 0 {
			c.Percentage = 100 * float64(c.Completed) / float64(total)
		}
		byLang[lang.Code] = c
	}
	return model.Analytics{
		ProjectID:            projectID,
		TotalKeys:            total,
		CompletionByLanguage: byLang,
		LastUpdated:          time.Now().UTC(),
	}, nil
}

// Localizations builds the legacy flat export of non-empty values.
func (m *memStore) Localizations(projectID, locale string) (model.Localizations, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := false
	for _, p := range m.projects {
		if p.ID == projectID {
			found = true
			break
		}
	}
	if !found {
		return model.Localizations{}, errProjectNotFound
	}

	values := map[string]string{}
	for _, sk := range m.keys {
		if sk.projectID != projectID {
			continue
		}
		if tr, ok := sk.key.Translations[locale]; ok && tr.Value != "" {
			values[sk.key.Key] = tr.Value
		}
	}
	return model.Localizations{ProjectID: projectID, Locale: locale, Values: values}, nil
}

func copyKey(k model.TranslationKey) model.TranslationKey {
	translations := make(map[string]model.Translation, len(k.Translations))
	for code, tr := range k.Translations {
		translations[code] = tr
	}
	k.Translations = translations
	return k
}
