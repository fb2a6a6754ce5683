// Package server implements an in-memory development server for the
// localization HTTP contract. It exists so the console and its tests run
// with zero infrastructure; it says nothing about the production service.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/and161185/locadmin/internal/model"
)

// Options configures the server.
type Options struct {
	JWTKey    []byte
	AccessTTL time.Duration
}

// Server serves the localization API from an in-memory store seeded with
// demo data.
type Server struct {
	store   *memStore
	issuer  tokenIssuer
	log     *zap.Logger
	metrics *metrics
	promReg *prometheus.Registry
}

// New builds a seeded server.
func New(log *zap.Logger, opts Options) (*Server, error) {
	store := newMemStore()
	if err := store.seed(); err != nil {
		return nil, err
	}
	ttl := opts.AccessTTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	reg := prometheus.NewRegistry()
	return &Server{
		store:   store,
		issuer:  tokenIssuer{key: opts.JWTKey, ttl: ttl},
		log:     log,
		metrics: newMetrics(reg),
		promReg: reg,
	}, nil
}

// Handler returns the routed handler with observability middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/logout", s.requireAuth(s.handleLogout))
	mux.HandleFunc("GET /auth/me", s.requireAuth(s.handleMe))

	mux.HandleFunc("GET /projects", s.handleProjects)
	mux.HandleFunc("GET /projects/{id}/translation-keys", s.handleListKeys)
	mux.HandleFunc("GET /projects/{id}/analytics", s.handleAnalytics)

	mux.HandleFunc("GET /translation-keys/{id}", s.handleGetKey)
	mux.HandleFunc("POST /translation-keys", s.requireAuth(s.handleCreateKey))
	mux.HandleFunc("DELETE /translation-keys/{id}", s.requireAuth(s.handleDeleteKey))

	mux.HandleFunc("PUT /translations/{id}/{lang}", s.requireAuth(s.handleUpdateTranslation))
	mux.HandleFunc("POST /translations/bulk-update", s.requireAuth(s.handleBulkUpdate))

	mux.HandleFunc("GET /localizations/{id}/{locale}", s.handleLocalizations)

	mux.Handle("GET /metrics", promhttp.HandlerFor(s.promReg, promhttp.HandlerOpts{}))

	return withObservability(mux, s.log, s.metrics)
}

type ctxKey int

const userKey ctxKey = 0

// requireAuth verifies the bearer token and stores the account in the
// request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		userID, err := s.issuer.verify(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "could not validate credentials")
			return
		}
		user, err := s.store.UserByID(userID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "could not validate credentials")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	}
}

func currentUser(r *http.Request) model.User {
	u, _ := r.Context().Value(userKey).(model.User)
	return u
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError emits the {"detail": ...} error body the client parses.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return false
	}
	return true
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusUnprocessableEntity, "username and password are required")
		return
	}
	user, err := s.store.CreateUser(req.Username, req.Email, req.Password, req.FullName)
	if err == errUserExists {
		writeError(w, http.StatusBadRequest, "username already registered")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not create account")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}
	user, err := s.store.Authenticate(req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "incorrect username or password")
		return
	}
	token, err := s.issuer.issue(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"user":         user,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "successfully logged out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

// Wire shapes for responses; snake_case like the production contract.

type respTranslation struct {
	Value     string `json:"value"`
	UpdatedAt string `json:"updated_at"`
	UpdatedBy string `json:"updated_by"`
}

type respKey struct {
	ID           string                     `json:"id"`
	Key          string                     `json:"key"`
	Category     string                     `json:"category"`
	Description  string                     `json:"description"`
	Translations map[string]respTranslation `json:"translations"`
}

func toRespKey(k model.TranslationKey) respKey {
	translations := make(map[string]respTranslation, len(k.Translations))
	for code, tr := range k.Translations {
		translations[code] = respTranslation{
			Value:     tr.Value,
			UpdatedAt: tr.UpdatedAt.Format(time.RFC3339),
			UpdatedBy: tr.UpdatedBy,
		}
	}
	return respKey{
		ID:           k.ID,
		Key:          k.Key,
		Category:     k.Category,
		Description:  k.Description,
		Translations: translations,
	}
}

type respLanguage struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Flag string `json:"flag"`
}

type respProject struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Languages   []respLanguage `json:"languages"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
}

func toRespProject(p model.Project) respProject {
	langs := make([]respLanguage, 0, len(p.Languages))
	for _, l := range p.Languages {
		langs = append(langs, respLanguage{Code: l.Code, Name: l.Name, Flag: l.Flag})
	}
	return respProject{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Languages:   langs,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	projects := s.store.Projects()
	out := make([]respProject, 0, len(projects))
	for _, p := range projects {
		out = append(out, toRespProject(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListKeys(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := queryInt(q.Get("page"), 1)
	limit := queryInt(q.Get("limit"), 50)
	f := listFilter{
		search:              q.Get("search"),
		category:            q.Get("category"),
		languageCode:        q.Get("language_code"),
		missingTranslations: q.Get("missing_translations") == "true",
	}

	res, err := s.store.ListKeys(r.PathValue("id"), f, page, limit)
	if err != nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	keys := make([]respKey, 0, len(res.Keys))
	for _, k := range res.Keys {
		keys = append(keys, toRespKey(k))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"keys":  keys,
		"total": res.Total,
		"page":  res.Page,
		"limit": res.Limit,
	})
}

func queryInt(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func (s *Server) handleGetKey(w http.ResponseWriter, r *http.Request) {
	key, err := s.store.KeyByID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "translation key not found")
		return
	}
	writeJSON(w, http.StatusOK, toRespKey(key))
}

func (s *Server) handleCreateKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID           string            `json:"projectId"`
		Key                 string            `json:"key"`
		Category            string            `json:"category"`
		Description         string            `json:"description"`
		InitialTranslations map[string]string `json:"initialTranslations"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.ProjectID == "" || req.Key == "" {
		writeError(w, http.StatusUnprocessableEntity, "projectId and key are required")
		return
	}
	key, err := s.store.CreateKey(req.ProjectID, req.Key, req.Category, req.Description, req.InitialTranslations, currentUser(r).Username)
	switch err {
	case nil:
	case errProjectNotFound:
		writeError(w, http.StatusNotFound, "project not found")
		return
	case errKeyExists:
		// Mirrors the unique-constraint message the production backend
		// surfaces, so clients exercise the same friendly formatting.
		detail := `duplicate key value violates unique constraint "translation_keys_project_id_key_key": Key (project_id, key)=(` +
			req.ProjectID + `, ` + req.Key + `) already exists.`
		writeError(w, http.StatusConflict, detail)
		return
	default:
		writeError(w, http.StatusInternalServerError, "could not create translation key")
		return
	}
	writeJSON(w, http.StatusCreated, toRespKey(key))
}

func (s *Server) handleDeleteKey(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	deleted, err := s.store.DeleteKey(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "translation key not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":              true,
		"message":              "translation key deleted",
		"key_id":               id,
		"deleted_translations": deleted,
	})
}

func (s *Server) handleUpdateTranslation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value string `json:"value"`
	}
	if !decode(w, r, &req) {
		return
	}
	err := s.store.UpdateTranslation(r.PathValue("id"), r.PathValue("lang"), req.Value, currentUser(r).Username)
	if err != nil {
		writeError(w, http.StatusNotFound, "translation key not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "translation updated"})
}

func (s *Server) handleBulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Updates []struct {
			KeyID        string `json:"keyId"`
			LanguageCode string `json:"languageCode"`
			Value        string `json:"value"`
		} `json:"updates"`
	}
	if !decode(w, r, &req) {
		return
	}
	by := currentUser(r).Username
	updated := 0
	for _, u := range req.Updates {
		if err := s.store.UpdateTranslation(u.KeyID, u.LanguageCode, u.Value, by); err == nil {
			updated++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":         updated == len(req.Updates),
		"message":         "bulk update finished",
		"updated_count":   updated,
		"total_requested": len(req.Updates),
	})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.Analytics(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	type respCompletion struct {
		Completed  int     `json:"completed"`
		Total      int     `json:"total"`
		Percentage float64 `json:"percentage"`
	}
	byLang := make(map[string]respCompletion, len(a.CompletionByLanguage))
	for code, c := range a.CompletionByLanguage {
		byLang[code] = respCompletion{Completed: c.Completed, Total: c.Total, Percentage: c.Percentage}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"projectId":            a.ProjectID,
		"totalKeys":            a.TotalKeys,
		"completionByLanguage": byLang,
		"lastUpdated":          a.LastUpdated.Format(time.RFC3339),
	})
}

func (s *Server) handleLocalizations(w http.ResponseWriter, r *http.Request) {
	loc, err := s.store.Localizations(r.PathValue("id"), r.PathValue("locale"))
	if err != nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"project_id":    loc.ProjectID,
		"locale":        loc.Locale,
		"localizations": loc.Values,
	})
}
