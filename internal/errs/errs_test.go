package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestAPIError_AuthFlag(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status int
		want   bool
	}{
		{401, true},
		{403, true},
		{400, false},
		{500, false},
		{0, false},
	}
	for _, c := range cases {
		e := &APIError{Status: c.status}
		if e.IsAuthError() != c.want {
			t.Fatalf("status %d: IsAuthError=%v, want %v", c.status, e.IsAuthError(), c.want)
		}
	}
}

func TestAPIError_IsMatchesByCode(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("wrapped: %w", NoAuthToken())
	if !errors.Is(err, &APIError{Code: CodeNoAuthToken}) {
		t.Fatalf("errors.Is should match by code")
	}
	if errors.Is(err, &APIError{Code: CodeNetworkError}) {
		t.Fatalf("errors.Is must not match a different code")
	}
}

func TestConstructors(t *testing.T) {
	t.Parallel()

	if e := NoAuthToken(); e.Status != 401 || e.Code != CodeNoAuthToken || !e.IsAuthError() {
		t.Fatalf("NoAuthToken: %+v", e)
	}
	if e := AuthRequired(nil); e.Status != 401 || e.Code != CodeAuthRequired {
		t.Fatalf("AuthRequired: %+v", e)
	}
	if e := NetworkError(errors.New("refused")); e.Status != 0 || e.Code != CodeNetworkError {
		t.Fatalf("NetworkError: %+v", e)
	}

	// detail message preferred, status text fallback
	if e := HTTPError(422, "name taken", nil); e.Message != "name taken" {
		t.Fatalf("HTTPError detail: %q", e.Message)
	}
	if e := HTTPError(500, "", nil); e.Message != "HTTP 500: Internal Server Error" {
		t.Fatalf("HTTPError fallback: %q", e.Message)
	}
}

func TestIsAuthErrorHelper(t *testing.T) {
	t.Parallel()

	if !IsAuthError(fmt.Errorf("ctx: %w", AuthRequired(nil))) {
		t.Fatalf("wrapped auth error not detected")
	}
	if IsAuthError(errors.New("plain")) {
		t.Fatalf("plain error must not be an auth error")
	}
}

func TestFormatMessage_KnownPatterns(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{
			`duplicate key value violates unique constraint "translation_keys_project_id_key_key" Key (project_id, key)=(p1, button.save)`,
			`Translation key "button.save" already exists in this project. Please choose a different key name.`,
		},
		{
			"duplicate key value violates unique constraint \"other\"",
			"This entry already exists. Please use different values.",
		},
		{"insert violates foreign key constraint", "The referenced item does not exist or has been deleted."},
		{"validation failed on field", "Please check your input values and try again."},
		{"unauthorized access", "You are not authorized to perform this action. Please sign in again."},
		{"forbidden resource", "You do not have permission to perform this action."},
		{"network unreachable", "Network error. Please check your connection and try again."},
		{"request timeout exceeded", "Request timed out. Please try again."},
		{"HTTP 500: boom", "Server error. Please try again later or contact support."},
		{"HTTP 404: gone", "The requested item was not found."},
		{"HTTP 429: slow down", "Too many requests. Please wait a moment and try again."},
		{"unexpected JSON token", "Invalid response from server. Please try again."},
	}
	for _, c := range cases {
		if got := FormatMessage(c.in); got != c.want {
			t.Fatalf("FormatMessage(%q)=%q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatMessage_CleansUnknown(t *testing.T) {
	t.Parallel()

	if got := FormatMessage("Error: something odd happened"); got != "Something odd happened." {
		t.Fatalf("cleaned: %q", got)
	}
	if got := FormatMessage("already ends right?"); got != "Already ends right?" {
		t.Fatalf("punctuation kept: %q", got)
	}
	if got := FormatMessage("Failed to reach quorum"); got != "Reach quorum." {
		t.Fatalf("prefix strip: %q", got)
	}
}
