// Package service orchestrates queries and mutations over the remote
// client, the query cache and the stores. It implements the optimistic
// update protocol for translation edits and applies the shared error
// policy for every mutation.
package service

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/locadmin/internal/cache"
	"github.com/and161185/locadmin/internal/client"
	"github.com/and161185/locadmin/internal/errs"
	"github.com/and161185/locadmin/internal/model"
	"github.com/and161185/locadmin/internal/session"
	"github.com/and161185/locadmin/internal/store"
)

// Cache key namespaces. Listing entries live under nsTranslationKeys and
// are the scope of the optimistic protocol's cancel/snapshot/rollback.
const (
	nsProjects        = "projects"
	nsTranslationKeys = "translation-keys/"
	nsTranslationKey  = "translation-key/"
	nsAnalytics       = "analytics/"
	nsLocalizations   = "localizations/"
)

// Staleness windows per query kind, matching how often each result set
// actually changes.
const (
	projectsMaxAge      = 5 * time.Minute
	analyticsMaxAge     = 30 * time.Second
	localizationsMaxAge = 10 * time.Minute
)

// Listing defaults applied when the caller leaves page/limit zero.
const (
	defaultPage  = 1
	defaultLimit = 50
)

// SessionExpiredMessage is surfaced whenever a mutation fails with an
// authentication error and the session is force-closed.
const SessionExpiredMessage = "Your session has expired. Please sign in again."

// Service is the single entry point the console uses for data access.
type Service struct {
	api     *client.Client
	cache   *cache.Cache
	domain  *store.Store
	session *session.Store
	log     *zap.Logger
}

// New wires the service from its collaborators.
func New(api *client.Client, c *cache.Cache, domain *store.Store, sess *session.Store, log *zap.Logger) *Service {
	return &Service{api: api, cache: c, domain: domain, session: sess, log: log}
}

// listKey normalizes listing parameters into a cache key, so two queries
// with the same project and filter set share one entry.
func listKey(p model.ListParams) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("limit", strconv.Itoa(p.Limit))
	q.Set("search", p.Filters.Search)
	q.Set("category", p.Filters.Category)
	q.Set("language_code", p.Filters.LanguageCode)
	q.Set("missing_translations", strconv.FormatBool(p.Filters.MissingTranslations))
	return nsTranslationKeys + p.ProjectID + "?" + q.Encode()
}

// fail applies the shared mutation error policy: authentication errors
// force a logout and surface the fixed session-expired message; anything
// else lands verbatim in the global error slot, with fallback substituted
// when the error has no message. The error is returned either way; the
// policy recovers nothing.
func (s *Service) fail(ctx context.Context, err error, fallback string) error {
	if errs.IsAuthError(err) {
		s.log.Info("auth error, closing session", zap.Error(err))
		s.session.Logout(ctx)
		s.domain.SetError(SessionExpiredMessage)
		return err
	}
	msg := err.Error()
	if msg == "" {
		msg = fallback
	}
	s.domain.SetError(msg)
	return err
}

// Projects lists all projects through the cache.
func (s *Service) Projects(ctx context.Context) ([]model.Project, error) {
	v, err := s.cache.Get(ctx, nsProjects, projectsMaxAge, func(ctx context.Context) (any, error) {
		return s.api.GetProjects(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Project), nil
}

// TranslationKeys lists a page of a project's keys through the cache.
// An empty project id short-circuits: no query, no fetch.
func (s *Service) TranslationKeys(ctx context.Context, params model.ListParams) (model.TranslationKeyPage, error) {
	if params.ProjectID == "" {
		return model.TranslationKeyPage{}, nil
	}
	if params.Page == 0 {
		params.Page = defaultPage
	}
	if params.Limit == 0 {
		params.Limit = defaultLimit
	}
	v, err := s.cache.Get(ctx, listKey(params), 0, func(ctx context.Context) (any, error) {
		return s.api.GetTranslationKeys(ctx, params)
	})
	if err != nil {
		return model.TranslationKeyPage{}, err
	}
	return v.(model.TranslationKeyPage), nil
}

// TranslationKey fetches one key's detail through the cache.
func (s *Service) TranslationKey(ctx context.Context, keyID string) (model.TranslationKey, error) {
	if keyID == "" {
		return model.TranslationKey{}, nil
	}
	v, err := s.cache.Get(ctx, nsTranslationKey+keyID, 0, func(ctx context.Context) (any, error) {
		return s.api.GetTranslationKey(ctx, keyID)
	})
	if err != nil {
		return model.TranslationKey{}, err
	}
	return v.(model.TranslationKey), nil
}

// Analytics fetches completion statistics through the cache.
func (s *Service) Analytics(ctx context.Context, projectID string) (model.Analytics, error) {
	if projectID == "" {
		return model.Analytics{}, nil
	}
	v, err := s.cache.Get(ctx, nsAnalytics+projectID, analyticsMaxAge, func(ctx context.Context) (any, error) {
		return s.api.GetAnalytics(ctx, projectID)
	})
	if err != nil {
		return model.Analytics{}, err
	}
	return v.(model.Analytics), nil
}

// Localizations fetches the legacy flat export through the cache.
func (s *Service) Localizations(ctx context.Context, projectID, locale string) (model.Localizations, error) {
	if projectID == "" || locale == "" {
		return model.Localizations{}, nil
	}
	v, err := s.cache.Get(ctx, nsLocalizations+projectID+"/"+locale, localizationsMaxAge, func(ctx context.Context) (any, error) {
		return s.api.GetLocalizations(ctx, projectID, locale)
	})
	if err != nil {
		return model.Localizations{}, err
	}
	return v.(model.Localizations), nil
}

// patchPage returns a copy of page with keyID's translation for
// languageCode replaced. Pages are copied rather than mutated so a
// snapshot taken before the patch stays verbatim.
func patchPage(page model.TranslationKeyPage, keyID, languageCode string, tr model.Translation) model.TranslationKeyPage {
	keys := make([]model.TranslationKey, len(page.Keys))
	copy(keys, page.Keys)
	for i, k := range keys {
		if k.ID != keyID {
			continue
		}
		translations := make(map[string]model.Translation, len(k.Translations)+1)
		for code, t := range k.Translations {
			translations[code] = t
		}
		translations[languageCode] = tr
		k.Translations = translations
		keys[i] = k
	}
	page.Keys = keys
	return page
}

// UpdateTranslation edits one translation cell optimistically. The steps
// run strictly in order: cancel in-flight listing refetches, snapshot the
// listing namespace, apply the new value to every cached page, then send.
// Success confirms into the domain mirror and invalidates; failure
// restores the snapshot verbatim and surfaces the error. The mirror is
// only ever written on confirmed success, so a failed edit cannot
// contaminate it.
func (s *Service) UpdateTranslation(ctx context.Context, keyID, languageCode, value string) error {
	if !s.api.IsAuthenticated() {
		return s.fail(ctx, errs.NoAuthToken(), "")
	}

	s.cache.CancelNamespace(nsTranslationKeys)
	snapshot := s.cache.SnapshotNamespace(nsTranslationKeys)

	updatedBy := s.session.Username()
	if updatedBy == "" {
		updatedBy = "user"
	}
	optimistic := model.Translation{Value: value, UpdatedAt: time.Now().UTC(), UpdatedBy: updatedBy}
	s.cache.MutateNamespace(nsTranslationKeys, func(v any) any {
		page, ok := v.(model.TranslationKeyPage)
		if !ok || page.Keys == nil {
			return v
		}
		return patchPage(page, keyID, languageCode, optimistic)
	})

	if err := s.api.UpdateTranslation(ctx, keyID, languageCode, value); err != nil {
		s.cache.RestoreSnapshot(snapshot)
		return s.fail(ctx, err, "Failed to update translation")
	}

	s.domain.UpdateTranslation(keyID, languageCode, value, updatedBy)
	s.cache.InvalidateNamespace(nsTranslationKeys)
	s.cache.Invalidate(nsTranslationKey + keyID)
	return nil
}

// CreateTranslationKey creates a key. Non-optimistic: the listing
// namespace is invalidated and the mirror extended only on success.
func (s *Service) CreateTranslationKey(ctx context.Context, req model.CreateTranslationKeyRequest) (model.TranslationKey, error) {
	key, err := s.api.CreateTranslationKey(ctx, req)
	if err != nil {
		return model.TranslationKey{}, s.fail(ctx, err, "Failed to create translation key")
	}
	s.cache.InvalidateNamespace(nsTranslationKeys)
	s.domain.AddTranslationKey(key)
	return key, nil
}

// DeleteTranslationKey removes a key. Non-optimistic, like create.
func (s *Service) DeleteTranslationKey(ctx context.Context, keyID string) (model.DeleteResult, error) {
	res, err := s.api.DeleteTranslationKey(ctx, keyID)
	if err != nil {
		return model.DeleteResult{}, s.fail(ctx, err, "Failed to delete translation key")
	}
	s.cache.InvalidateNamespace(nsTranslationKeys)
	s.domain.RemoveTranslationKey(keyID)
	return res, nil
}

// BulkUpdateTranslations applies a batch of cell edits with no optimistic
// phase: invalidate on success, then confirm each triple into the mirror.
func (s *Service) BulkUpdateTranslations(ctx context.Context, updates []model.TranslationUpdate) (model.BulkUpdateResult, error) {
	res, err := s.api.BulkUpdateTranslations(ctx, updates)
	if err != nil {
		return model.BulkUpdateResult{}, s.fail(ctx, err, "Failed to bulk update translations")
	}
	s.cache.InvalidateNamespace(nsTranslationKeys)
	updatedBy := s.session.Username()
	if updatedBy == "" {
		updatedBy = "user"
	}
	for _, u := range updates {
		s.domain.UpdateTranslation(u.KeyID, u.LanguageCode, u.Value, updatedBy)
	}
	return res, nil
}
