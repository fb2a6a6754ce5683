// Package session owns the authentication lifecycle: a persisted session
// record and a store exposing login, register and logout over it.
package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/and161185/locadmin/internal/model"
)

// record is the persisted subset of the session. Loading/initialized
// flags are runtime-only and never written.
type record struct {
	User            *model.User `json:"user"`
	Token           string      `json:"token"`
	IsAuthenticated bool        `json:"is_authenticated"`
}

// Storage persists the session record as a single JSON file in the state
// dir. It tolerates a missing or corrupt file by reporting no session, and
// doubles as the client's token source.
type Storage struct {
	mu   sync.Mutex
	path string
}

// NewStorage creates storage rooted at dir.
func NewStorage(dir string) *Storage {
	return &Storage{path: filepath.Join(dir, "auth.json")}
}

// load reads the persisted record; ok is false when nothing usable exists.
func (s *Storage) load() (record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := os.ReadFile(s.path)
	if err != nil {
		return record{}, false
	}
	var rec record
	if err := json.Unmarshal(b, &rec); err != nil {
		// unparsable state is treated as "no session"
		return record{}, false
	}
	return rec, true
}

// save rewrites the persisted record.
func (s *Storage) save(rec record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o600)
}

// Token returns the persisted bearer token, or "" when none is stored.
func (s *Storage) Token() string {
	rec, ok := s.load()
	if !ok {
		return ""
	}
	return rec.Token
}

// ClearToken removes the persisted record entirely.
func (s *Storage) ClearToken() {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = os.Remove(s.path)
}
