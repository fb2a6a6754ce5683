package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/and161185/locadmin/internal/client"
	"github.com/and161185/locadmin/internal/errs"
	"github.com/and161185/locadmin/internal/model"
	"github.com/and161185/locadmin/internal/session"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s, err := New(zap.NewNop(), Options{JWTKey: []byte("test-key")})
	require.NoError(t, err)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

// newClient builds an API client and session store backed by a temp dir.
func newClient(t *testing.T, srv *httptest.Server) (*client.Client, *session.Store) {
	t.Helper()
	storage := session.NewStorage(t.TempDir())
	api := client.New(srv.URL, 5*time.Second, storage, zap.NewNop())
	sess := session.NewStore(api, storage, zap.NewNop())
	sess.Initialize()
	return api, sess
}

func login(t *testing.T, sess *session.Store) {
	t.Helper()
	require.NoError(t, sess.Login(context.Background(), model.Credentials{Username: "demo", Password: "demo123"}))
}

func seededProject(t *testing.T, api *client.Client) model.Project {
	t.Helper()
	projects, err := api.GetProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)
	return projects[0]
}

func TestDemoLogin(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	api, sess := newClient(t, srv)

	login(t, sess)

	st := sess.State()
	require.True(t, st.IsAuthenticated)
	require.Equal(t, "demo", st.User.Username)
	require.True(t, api.IsAuthenticated())

	me, err := api.CurrentUser(context.Background())
	require.NoError(t, err)
	require.Equal(t, "demo", me.Username)
}

func TestLoginWrongPassword(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	_, sess := newClient(t, srv)

	err := sess.Login(context.Background(), model.Credentials{Username: "demo", Password: "nope"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "incorrect username or password")
	require.False(t, sess.State().IsAuthenticated)
}

func TestFailedReloginKeepsExistingSession(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	api, sess := newClient(t, srv)
	login(t, sess)

	err := sess.Login(context.Background(), model.Credentials{Username: "demo", Password: "wrong"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "incorrect username or password")

	// The rejected attempt proves nothing about the established session.
	require.True(t, sess.State().IsAuthenticated)
	require.True(t, api.IsAuthenticated())
	me, err := api.CurrentUser(context.Background())
	require.NoError(t, err)
	require.Equal(t, "demo", me.Username)
}

func TestRegisterThenLogin(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	_, sess := newClient(t, srv)

	err := sess.Register(context.Background(), model.Registration{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cret",
		FullName: "Alice Example",
	})
	require.NoError(t, err)
	require.True(t, sess.State().IsAuthenticated)
	require.Equal(t, "alice", sess.State().User.Username)

	// Same username again is rejected.
	_, sess2 := newClient(t, srv)
	err = sess2.Register(context.Background(), model.Registration{Username: "alice", Password: "other"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "already registered")
}

func TestMutationsRequireToken(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	body := bytes.NewBufferString(`{"projectId":"p","key":"k"}`)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/translation-keys", body)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer not-a-jwt")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var errBody map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errBody))
	require.Equal(t, "could not validate credentials", errBody["detail"])
}

func TestListKeysFilters(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	api, _ := newClient(t, srv)
	project := seededProject(t, api)

	keyNames := func(page model.TranslationKeyPage) []string {
		names := make([]string, 0, len(page.Keys))
		for _, k := range page.Keys {
			names = append(names, k.Key)
		}
		return names
	}

	all, err := api.GetTranslationKeys(context.Background(), model.ListParams{ProjectID: project.ID})
	require.NoError(t, err)
	require.Equal(t, 6, all.Total)

	byCategory, err := api.GetTranslationKeys(context.Background(), model.ListParams{
		ProjectID: project.ID,
		Filters:   model.Filters{Category: "navigation"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"nav.home", "nav.settings"}, keyNames(byCategory))

	bySearch, err := api.GetTranslationKeys(context.Background(), model.ListParams{
		ProjectID: project.ID,
		Filters:   model.Filters{Search: "save"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"button.save"}, keyNames(bySearch))

	withSpanish, err := api.GetTranslationKeys(context.Background(), model.ListParams{
		ProjectID: project.ID,
		Filters:   model.Filters{LanguageCode: "es"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"app.title", "app.welcome", "button.save", "nav.home"}, keyNames(withSpanish))

	missingFrench, err := api.GetTranslationKeys(context.Background(), model.ListParams{
		ProjectID: project.ID,
		Filters:   model.Filters{LanguageCode: "fr", MissingTranslations: true},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"app.welcome", "button.cancel"}, keyNames(missingFrench))

	missingAny, err := api.GetTranslationKeys(context.Background(), model.ListParams{
		ProjectID: project.ID,
		Filters:   model.Filters{MissingTranslations: true},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"app.welcome", "button.cancel", "nav.settings"}, keyNames(missingAny))
}

func TestListKeysPagination(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	api, _ := newClient(t, srv)
	project := seededProject(t, api)

	page, err := api.GetTranslationKeys(context.Background(), model.ListParams{
		ProjectID: project.ID,
		Page:      2,
		Limit:     2,
	})
	require.NoError(t, err)
	require.Equal(t, 6, page.Total)
	require.Equal(t, 2, page.Page)
	require.Len(t, page.Keys, 2)
	require.Equal(t, "button.cancel", page.Keys[0].Key)
	require.Equal(t, "button.save", page.Keys[1].Key)
}

func TestKeyLifecycle(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	api, sess := newClient(t, srv)
	login(t, sess)
	project := seededProject(t, api)

	created, err := api.CreateTranslationKey(context.Background(), model.CreateTranslationKeyRequest{
		ProjectID:           project.ID,
		Key:                 "footer.copyright",
		Category:            "general",
		Description:         "Copyright notice",
		InitialTranslations: map[string]string{"en": "All rights reserved"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "demo", created.Translations["en"].UpdatedBy)

	require.NoError(t, api.UpdateTranslation(context.Background(), created.ID, "es", "Todos los derechos reservados"))

	got, err := api.GetTranslationKey(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "Todos los derechos reservados", got.Translations["es"].Value)
	require.Equal(t, "demo", got.Translations["es"].UpdatedBy)

	res, err := api.DeleteTranslationKey(context.Background(), created.ID)
	require.NoError(t, err)
	require.True(t, res.Success)

	_, err = api.GetTranslationKey(context.Background(), created.ID)
	require.Error(t, err)
	var apiErr *errs.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestDuplicateKeyConflict(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	api, sess := newClient(t, srv)
	login(t, sess)
	project := seededProject(t, api)

	_, err := api.CreateTranslationKey(context.Background(), model.CreateTranslationKeyRequest{
		ProjectID: project.ID,
		Key:       "app.title",
	})
	require.Error(t, err)
	var apiErr *errs.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusConflict, apiErr.Status)
	require.Equal(t,
		`Translation key "app.title" already exists in this project. Please choose a different key name.`,
		errs.FormatMessage(err.Error()))
}

func TestBulkUpdate(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	api, sess := newClient(t, srv)
	login(t, sess)
	project := seededProject(t, api)

	page, err := api.GetTranslationKeys(context.Background(), model.ListParams{ProjectID: project.ID})
	require.NoError(t, err)
	var welcome, cancel string
	for _, k := range page.Keys {
		switch k.Key {
		case "app.welcome":
			welcome = k.ID
		case "button.cancel":
			cancel = k.ID
		}
	}

	res, err := api.BulkUpdateTranslations(context.Background(), []model.TranslationUpdate{
		{KeyID: welcome, LanguageCode: "fr", Value: "Bon retour"},
		{KeyID: cancel, LanguageCode: "fr", Value: "Annuler"},
		{KeyID: "missing-key", LanguageCode: "fr", Value: "x"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.UpdatedCount)
	require.Equal(t, 3, res.TotalRequested)
	require.False(t, res.Success)
}

func TestAnalyticsAndLocalizations(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	api, _ := newClient(t, srv)
	project := seededProject(t, api)

	a, err := api.GetAnalytics(context.Background(), project.ID)
	require.NoError(t, err)
	require.Equal(t, 6, a.TotalKeys)
	require.Equal(t, 6, a.CompletionByLanguage["en"].Completed)
	require.InDelta(t, 100.0, a.CompletionByLanguage["en"].Percentage, 0.01)
	require.Equal(t, 4, a.CompletionByLanguage["es"].Completed)
	require.Equal(t, 4, a.CompletionByLanguage["fr"].Completed)

	loc, err := api.GetLocalizations(context.Background(), project.ID, "es")
	require.NoError(t, err)
	require.Equal(t, "es", loc.Locale)
	require.Equal(t, "Guardar", loc.Values["button.save"])
	_, hasSettings := loc.Values["nav.settings"]
	require.False(t, hasSettings)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	// Generate one request so the counter has a sample.
	resp, err := http.Get(srv.URL + "/projects")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), "locadmin_http_requests_total"),
		fmt.Sprintf("metrics output missing request counter:\n%s", body))
}
