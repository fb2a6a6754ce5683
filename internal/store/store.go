// Package store holds UI-facing selection state: the current project and
// language, active filters, and a local mirror of translation keys for
// synchronous rendering after confirmed mutations.
package store

import (
	"sync"
	"time"

	"github.com/and161185/locadmin/internal/model"
)

// SortConfig orders the key listing in the console.
type SortConfig struct {
	Field     string // "key", "category" or "updatedAt"
	Direction string // "asc" or "desc"
}

// DefaultSort is the initial listing order.
var DefaultSort = SortConfig{Field: "key", Direction: "asc"}

// FilterPatch is a partial filter update. A nil field leaves the filter
// unchanged; a non-nil pointer overwrites it, including with its zero
// value, which explicitly clears that filter. This is the shallow-merge
// law: present fields always win.
type FilterPatch struct {
	Search              *string
	Category            *string
	LanguageCode        *string
	MissingTranslations *bool
}

// State is a snapshot of the domain store.
type State struct {
	CurrentProject  *model.Project
	CurrentLanguage *model.Language
	TranslationKeys []model.TranslationKey
	Filters         model.Filters
	Sort            SortConfig
	IsLoading       bool
	Error           string // single system-wide slot; "" means none
}

// Store is the mutable domain state container. Mutators to the key mirror
// must only be called after the network operation they represent has
// succeeded; the mirror never runs ahead of the server.
type Store struct {
	mu      sync.Mutex
	state   State
	subs    map[int]func()
	nextSub int
}

// New constructs an empty domain store.
func New() *Store {
	return &Store{
		state: State{Sort: DefaultSort},
		subs:  map[int]func(){},
	}
}

// State returns a snapshot. The keys slice is shared; callers must not
// mutate it.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers a listener invoked synchronously after every state
// change and returns its unsubscribe function.
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) set(mutate func(*State)) {
	s.mu.Lock()
	mutate(&s.state)
	listeners := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// SetCurrentProject replaces the selected project. Switching always
// clears the key mirror, resets filters to the empty default and drops
// any pending error; nothing leaks from the previous project.
func (s *Store) SetCurrentProject(p *model.Project) {
	s.set(func(st *State) {
		st.CurrentProject = p
		st.TranslationKeys = []model.TranslationKey{}
		st.Filters = model.Filters{}
		st.Error = ""
	})
}

// SetCurrentLanguage replaces the selected language; filters and the key
// mirror are untouched.
func (s *Store) SetCurrentLanguage(l *model.Language) {
	s.set(func(st *State) {
		st.CurrentLanguage = l
		st.Error = ""
	})
}

// SetTranslationKeys replaces the key mirror wholesale.
func (s *Store) SetTranslationKeys(keys []model.TranslationKey) {
	s.set(func(st *State) {
		st.TranslationKeys = keys
		st.IsLoading = false
		st.Error = ""
	})
}

// SetFilters shallow-merges the patch into the current filters.
func (s *Store) SetFilters(patch FilterPatch) {
	s.set(func(st *State) {
		if patch.Search != nil {
			st.Filters.Search = *patch.Search
		}
		if patch.Category != nil {
			st.Filters.Category = *patch.Category
		}
		if patch.LanguageCode != nil {
			st.Filters.LanguageCode = *patch.LanguageCode
		}
		if patch.MissingTranslations != nil {
			st.Filters.MissingTranslations = *patch.MissingTranslations
		}
	})
}

// SetSort replaces the listing order.
func (s *Store) SetSort(cfg SortConfig) {
	s.set(func(st *State) { st.Sort = cfg })
}

// SetLoading toggles the loading flag.
func (s *Store) SetLoading(loading bool) {
	s.set(func(st *State) { st.IsLoading = loading })
}

// SetError writes the single global error slot and forces IsLoading off.
// A new error overwrites any prior unread one; "" clears the slot.
func (s *Store) SetError(msg string) {
	s.set(func(st *State) {
		st.Error = msg
		st.IsLoading = false
	})
}

// UpdateTranslation writes a confirmed value into the mirror, replacing
// the key's translation for that language wholesale.
func (s *Store) UpdateTranslation(keyID, languageCode, value, updatedBy string) {
	s.set(func(st *State) {
		for i := range st.TranslationKeys {
			if st.TranslationKeys[i].ID != keyID {
				continue
			}
			k := st.TranslationKeys[i]
			translations := make(map[string]model.Translation, len(k.Translations)+1)
			for code, tr := range k.Translations {
				translations[code] = tr
			}
			translations[languageCode] = model.Translation{
				Value:     value,
				UpdatedAt: time.Now().UTC(),
				UpdatedBy: updatedBy,
			}
			k.Translations = translations
			st.TranslationKeys[i] = k
		}
	})
}

// AddTranslationKey appends a confirmed new key to the mirror.
func (s *Store) AddTranslationKey(key model.TranslationKey) {
	s.set(func(st *State) {
		st.TranslationKeys = append(st.TranslationKeys, key)
	})
}

// RemoveTranslationKey drops a confirmed-deleted key from the mirror.
func (s *Store) RemoveTranslationKey(keyID string) {
	s.set(func(st *State) {
		keys := st.TranslationKeys[:0:0]
		for _, k := range st.TranslationKeys {
			if k.ID != keyID {
				keys = append(keys, k)
			}
		}
		st.TranslationKeys = keys
	})
}
