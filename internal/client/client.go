// Package client implements the HTTP client for the localization service.
// It is the only component that performs network I/O: it attaches bearer
// authentication, normalizes failures into errs.APIError and converts wire
// shapes into domain types.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/locadmin/internal/errs"
	"github.com/and161185/locadmin/internal/model"
)

// TokenStore supplies the persisted bearer token and clears it when the
// server rejects it. The session storage implements this.
type TokenStore interface {
	Token() string
	ClearToken()
}

// Client talks to the remote localization service.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
	log     *zap.Logger
}

// New constructs a Client for the given base URL.
func New(baseURL string, timeout time.Duration, tokens TokenStore, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		log:     log,
	}
}

// IsAuthenticated reports token presence. Purely local, no network call.
func (c *Client) IsAuthenticated() bool { return c.tokens.Token() != "" }

// ClearAuthToken drops the persisted token. Purely local, no network call.
func (c *Client) ClearAuthToken() { c.tokens.ClearToken() }

// request performs one JSON call. If requireAuth is true and no token is
// stored it fails with NO_AUTH_TOKEN before any network I/O; a present
// token is always attached, required or not. Non-2xx responses become
// AUTH_REQUIRED (401, clearing the stored token) or HTTP_ERROR; transport
// failures become NETWORK_ERROR with status 0.
func (c *Client) request(ctx context.Context, method, endpoint string, body any, requireAuth bool, out any) error {
	return c.send(ctx, method, endpoint, body, requireAuth, true, out)
}

// credentialRequest is the path for login and register. The caller is
// proving credentials, not presenting a token, so a 401 here means the
// credentials were wrong: it carries the server's detail as a plain
// HTTP_ERROR and must not clear the stored token of any existing session.
func (c *Client) credentialRequest(ctx context.Context, method, endpoint string, body any, out any) error {
	return c.send(ctx, method, endpoint, body, false, false, out)
}

func (c *Client) send(ctx context.Context, method, endpoint string, body any, requireAuth, clearOn401 bool, out any) error {
	token := c.tokens.Token()
	if token == "" && requireAuth {
		return errs.NoAuthToken()
	}

	var reqBody *bytes.Buffer
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("request failed",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		return errs.NetworkError(err)
	}
	defer resp.Body.Close()

	c.log.Debug("request",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("dur", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Error bodies may be malformed; treat them as empty.
		var details map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&details)

		if resp.StatusCode == http.StatusUnauthorized && clearOn401 {
			c.tokens.ClearToken()
			return errs.AuthRequired(details)
		}
		detail := ""
		if d, ok := details["detail"].(string); ok {
			detail = d
		}
		return errs.HTTPError(resp.StatusCode, detail, details)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.NetworkError(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// GetProjects lists all projects.
func (c *Client) GetProjects(ctx context.Context) ([]model.Project, error) {
	var wire []wireProject
	if err := c.request(ctx, http.MethodGet, "/projects", nil, false, &wire); err != nil {
		return nil, err
	}
	projects := make([]model.Project, 0, len(wire))
	for _, p := range wire {
		projects = append(projects, fromWireProject(p))
	}
	return projects, nil
}

// listQuery encodes listing parameters; zero values are omitted so the
// query string carries only the filters actually set.
func listQuery(p model.ListParams) string {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Filters.Search != "" {
		q.Set("search", p.Filters.Search)
	}
	if p.Filters.Category != "" {
		q.Set("category", p.Filters.Category)
	}
	if p.Filters.LanguageCode != "" {
		q.Set("language_code", p.Filters.LanguageCode)
	}
	if p.Filters.MissingTranslations {
		q.Set("missing_translations", "true")
	}
	return q.Encode()
}

// GetTranslationKeys lists a page of a project's translation keys.
func (c *Client) GetTranslationKeys(ctx context.Context, params model.ListParams) (model.TranslationKeyPage, error) {
	endpoint := "/projects/" + params.ProjectID + "/translation-keys"
	if q := listQuery(params); q != "" {
		endpoint += "?" + q
	}
	var wire wireKeyPage
	if err := c.request(ctx, http.MethodGet, endpoint, nil, false, &wire); err != nil {
		return model.TranslationKeyPage{}, err
	}
	return fromWireKeyPage(wire), nil
}

// GetTranslationKey fetches one key by id.
func (c *Client) GetTranslationKey(ctx context.Context, keyID string) (model.TranslationKey, error) {
	var wire wireTranslationKey
	if err := c.request(ctx, http.MethodGet, "/translation-keys/"+keyID, nil, false, &wire); err != nil {
		return model.TranslationKey{}, err
	}
	return fromWireTranslationKey(wire), nil
}

// CreateTranslationKey creates a key; the server assigns the id.
func (c *Client) CreateTranslationKey(ctx context.Context, req model.CreateTranslationKeyRequest) (model.TranslationKey, error) {
	body := map[string]any{
		"key":       req.Key,
		"category":  req.Category,
		"projectId": req.ProjectID,
	}
	if req.Description != "" {
		body["description"] = req.Description
	}
	if len(req.InitialTranslations) > 0 {
		body["initialTranslations"] = req.InitialTranslations
	}
	var wire wireTranslationKey
	if err := c.request(ctx, http.MethodPost, "/translation-keys", body, true, &wire); err != nil {
		return model.TranslationKey{}, err
	}
	return fromWireTranslationKey(wire), nil
}

// DeleteTranslationKey removes a key and all its translations.
func (c *Client) DeleteTranslationKey(ctx context.Context, keyID string) (model.DeleteResult, error) {
	var wire struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		KeyID   string `json:"key_id"`
	}
	if err := c.request(ctx, http.MethodDelete, "/translation-keys/"+keyID, nil, true, &wire); err != nil {
		return model.DeleteResult{}, err
	}
	return model.DeleteResult{Success: wire.Success, Message: wire.Message, KeyID: wire.KeyID}, nil
}

// UpdateTranslation replaces one language's value for one key.
func (c *Client) UpdateTranslation(ctx context.Context, keyID, languageCode, value string) error {
	body := map[string]any{
		"key_id":        keyID,
		"language_code": languageCode,
		"value":         value,
	}
	endpoint := "/translations/" + keyID + "/" + languageCode
	var wire struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	return c.request(ctx, http.MethodPut, endpoint, body, true, &wire)
}

// BulkUpdateTranslations applies a batch of cell edits in one call.
func (c *Client) BulkUpdateTranslations(ctx context.Context, updates []model.TranslationUpdate) (model.BulkUpdateResult, error) {
	type wireUpdate struct {
		KeyID        string `json:"keyId"`
		LanguageCode string `json:"languageCode"`
		Value        string `json:"value"`
	}
	ups := make([]wireUpdate, 0, len(updates))
	for _, u := range updates {
		ups = append(ups, wireUpdate{KeyID: u.KeyID, LanguageCode: u.LanguageCode, Value: u.Value})
	}
	var wire struct {
		Success        bool   `json:"success"`
		Message        string `json:"message"`
		UpdatedCount   int    `json:"updated_count"`
		TotalRequested int    `json:"total_requested"`
	}
	if err := c.request(ctx, http.MethodPost, "/translations/bulk-update", map[string]any{"updates": ups}, true, &wire); err != nil {
		return model.BulkUpdateResult{}, err
	}
	return model.BulkUpdateResult{
		Success:        wire.Success,
		Message:        wire.Message,
		UpdatedCount:   wire.UpdatedCount,
		TotalRequested: wire.TotalRequested,
	}, nil
}

// GetAnalytics fetches completion statistics for a project.
func (c *Client) GetAnalytics(ctx context.Context, projectID string) (model.Analytics, error) {
	var wire wireAnalytics
	if err := c.request(ctx, http.MethodGet, "/projects/"+projectID+"/analytics", nil, false, &wire); err != nil {
		return model.Analytics{}, err
	}
	return fromWireAnalytics(wire), nil
}

// GetLocalizations fetches the legacy flat code->value export.
func (c *Client) GetLocalizations(ctx context.Context, projectID, locale string) (model.Localizations, error) {
	var wire wireLocalizations
	if err := c.request(ctx, http.MethodGet, "/localizations/"+projectID+"/"+locale, nil, false, &wire); err != nil {
		return model.Localizations{}, err
	}
	return model.Localizations{ProjectID: wire.ProjectID, Locale: wire.Locale, Values: wire.Localizations}, nil
}

// Login exchanges credentials for a user and an access token.
func (c *Client) Login(ctx context.Context, creds model.Credentials) (model.LoginResult, error) {
	body := map[string]any{"username": creds.Username, "password": creds.Password}
	var wire wireLoginResponse
	if err := c.credentialRequest(ctx, http.MethodPost, "/auth/login", body, &wire); err != nil {
		return model.LoginResult{}, err
	}
	return model.LoginResult{User: wire.User, AccessToken: wire.AccessToken}, nil
}

// Register creates an account. It does not establish a session; callers
// log in afterwards.
func (c *Client) Register(ctx context.Context, reg model.Registration) (model.User, error) {
	body := map[string]any{
		"username":  reg.Username,
		"email":     reg.Email,
		"password":  reg.Password,
		"full_name": reg.FullName,
	}
	var user model.User
	if err := c.credentialRequest(ctx, http.MethodPost, "/auth/register", body, &user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

// Logout invalidates the session server-side, then drops the local token.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.request(ctx, http.MethodPost, "/auth/logout", nil, true, nil); err != nil {
		return err
	}
	c.tokens.ClearToken()
	return nil
}

// CurrentUser fetches the account behind the stored token.
func (c *Client) CurrentUser(ctx context.Context) (model.User, error) {
	var user model.User
	if err := c.request(ctx, http.MethodGet, "/auth/me", nil, true, &user); err != nil {
		return model.User{}, err
	}
	return user, nil
}
