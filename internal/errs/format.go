package errs

import (
	"regexp"
	"strings"
	"unicode"
)

var reDuplicateKey = regexp.MustCompile(`Key \(project_id, key\)=\([^,]+, ([^)]+)\)`)

// FormatMessage turns a raw error string into a sentence fit for the
// console banner. Known substrings map to fixed friendly messages; anything
// else is cleaned up (prefixes stripped, capitalized, terminated).
func FormatMessage(raw string) string {
	switch {
	case strings.Contains(raw, "duplicate key value violates unique constraint"):
		if strings.Contains(raw, "translation_keys_project_id_key_key") {
			keyName := "this key"
			if m := reDuplicateKey.FindStringSubmatch(raw); m != nil {
				keyName = m[1]
			}
			return `Translation key "` + keyName + `" already exists in this project. Please choose a different key name.`
		}
		return "This entry already exists. Please use different values."

	case strings.Contains(raw, "violates foreign key constraint"):
		return "The referenced item does not exist or has been deleted."

	case strings.Contains(raw, "validation"), strings.Contains(raw, "invalid"):
		return "Please check your input values and try again."

	case strings.Contains(raw, "unauthorized"), strings.Contains(raw, "authentication"):
		return "You are not authorized to perform this action. Please sign in again."

	case strings.Contains(raw, "forbidden"), strings.Contains(raw, "permission"):
		return "You do not have permission to perform this action."

	case strings.Contains(raw, "network"), strings.Contains(raw, "connection refused"):
		return "Network error. Please check your connection and try again."

	case strings.Contains(raw, "timeout"):
		return "Request timed out. Please try again."

	case strings.Contains(raw, "500"), strings.Contains(raw, "Internal Server Error"):
		return "Server error. Please try again later or contact support."

	case strings.Contains(raw, "404"), strings.Contains(raw, "Not Found"):
		return "The requested item was not found."

	case strings.Contains(raw, "429"), strings.Contains(raw, "Too Many Requests"):
		return "Too many requests. Please wait a moment and try again."

	case strings.Contains(raw, "JSON"), strings.Contains(raw, "parse"):
		return "Invalid response from server. Please try again."
	}

	return cleanMessage(raw)
}

var rePrefixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^error:\s*`),
	regexp.MustCompile(`(?i)^apierror:\s*`),
	regexp.MustCompile(`(?i)^HTTP \d+:\s*`),
	regexp.MustCompile(`(?i)^failed to\s*`),
}

// cleanMessage strips technical prefixes, capitalizes and ensures
// terminal punctuation.
func cleanMessage(raw string) string {
	cleaned := raw
	for _, re := range rePrefixes {
		cleaned = re.ReplaceAllString(cleaned, "")
	}
	if cleaned == "" {
		return cleaned
	}
	r := []rune(cleaned)
	r[0] = unicode.ToUpper(r[0])
	cleaned = string(r)
	if !strings.HasSuffix(cleaned, ".") && !strings.HasSuffix(cleaned, "!") && !strings.HasSuffix(cleaned, "?") {
		cleaned += "."
	}
	return cleaned
}
