package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/and161185/locadmin/internal/client"
	"github.com/and161185/locadmin/internal/errs"
	"github.com/and161185/locadmin/internal/model"
)

// State is a snapshot of the session. IsAuthenticated is redundant with
// (User, Token) but stored and persisted explicitly; every mutator keeps
// it consistent. IsLoading and IsInitialized reset on process start.
type State struct {
	User            *model.User
	Token           string
	IsAuthenticated bool
	IsLoading       bool
	IsInitialized   bool
}

// Store runs the auth state machine: Uninitialized, then
// Initialized-Unauthenticated or Initialized-Authenticated, with the
// Loading flag orthogonal while a login or register call is in flight.
type Store struct {
	api     *client.Client
	storage *Storage
	log     *zap.Logger

	mu      sync.Mutex
	state   State
	subs    map[int]func()
	nextSub int
}

// NewStore constructs an uninitialized session store.
func NewStore(api *client.Client, storage *Storage, log *zap.Logger) *Store {
	return &Store{api: api, storage: storage, log: log, subs: map[int]func(){}}
}

// State returns a snapshot of the current session.
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

// set applies mutate under the lock and notifies listeners outside it.
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

// persist writes the durable subset of the current state.
func (s *Store) persist() {
	st := s.State()
	if err := s.storage.save(record{User: st.User, Token: st.Token, IsAuthenticated: st.IsAuthenticated}); err != nil {
		s.log.Warn("persist session", zap.Error(err))
	}
}

// Initialize hydrates from storage. It fires exactly once per process and
// always leaves IsInitialized true, whether or not a session was found.
func (s *Store) Initialize() {
	rec, ok := s.storage.load()
	s.set(func(st *State) {
		if st.IsInitialized {
			return
		}
		if ok && rec.Token != "" && rec.User != nil {
			st.User = rec.User
			st.Token = rec.Token
			st.IsAuthenticated = true
		} else {
			st.User = nil
			st.Token = ""
			st.IsAuthenticated = false
		}
		st.IsInitialized = true
	})
}

// Login authenticates and establishes the session. On failure the auth
// state is unchanged and the error carries the server's detail message,
// or "Login failed" when there is none.
func (s *Store) Login(ctx context.Context, creds model.Credentials) error {
	s.set(func(st *State) { st.IsLoading = true })

	res, err := s.api.Login(ctx, creds)
	if err != nil {
		s.set(func(st *State) { st.IsLoading = false })
		var api *errs.APIError
		if errors.As(err, &api) && api.Message != "" {
			return err
		}
		return fmt.Errorf("Login failed: %w", err)
	}

	user := res.User
	s.set(func(st *State) {
		st.User = &user
		st.Token = res.AccessToken
		st.IsAuthenticated = true
		st.IsLoading = false
		st.IsInitialized = true
	})
	s.persist()
	s.log.Info("logged in", zap.String("username", user.Username))
	return nil
}

// Register creates the account, then logs in with the same credentials;
// registration alone establishes no session. On failure of either step
// the loading flag is reset and no partial session remains authenticated.
func (s *Store) Register(ctx context.Context, reg model.Registration) error {
	s.set(func(st *State) { st.IsLoading = true })

	if _, err := s.api.Register(ctx, reg); err != nil {
		s.set(func(st *State) { st.IsLoading = false })
		var api *errs.APIError
		if errors.As(err, &api) && api.Message != "" {
			return err
		}
		return fmt.Errorf("Registration failed: %w", err)
	}

	return s.Login(ctx, model.Credentials{Username: reg.Username, Password: reg.Password})
}

// Logout tells the server best-effort, then unconditionally resets the
// session. Server failures are swallowed, never surfaced.
func (s *Store) Logout(ctx context.Context) {
	if s.State().Token != "" {
		if err := s.api.Logout(ctx); err != nil {
			s.log.Debug("logout call failed", zap.Error(err))
		}
	}
	s.set(func(st *State) {
		st.User = nil
		st.Token = ""
		st.IsAuthenticated = false
		st.IsLoading = false
		st.IsInitialized = true
	})
	s.persist()
}

// Username returns the current user's name, or "" when unauthenticated.
func (s *Store) Username() string {
	st := s.State()
	if st.User == nil {
		return ""
	}
	return st.User.Username
}
