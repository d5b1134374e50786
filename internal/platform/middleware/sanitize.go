package middleware

import (
	"net/http"
	"regexp"
	"strings"
	"unicode"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medassist/gateway/pkg/apperr"
)

// headerValueLimit bounds a single header value. Bearer tokens from the
// identity provider stay well under it.
const headerValueLimit = 8 << 10

var (
	markupPattern = regexp.MustCompile(`(?i)(<\s*script|javascript\s*:|\bon[a-z]+\s*=)`)
	sqlPattern    = regexp.MustCompile(`(?i)(;\s*drop\s+table|union\s+(all\s+)?select|'\s*or\s+'?1'?\s*=\s*'?1)`)

	traversalMarks = []string{"..", "%2e%2e", "%252e", "%2e.", ".%2e"}
	nulMarks       = []string{"\x00", "%00"}
)

// requestCheck inspects one part of the request and returns the reason it
// is refused, or "".
type requestCheck func(r *http.Request) string

var requestChecks = []requestCheck{
	checkPath,
	checkHeaders,
	checkQuery,
}

// Sanitize refuses requests whose path, headers or query string carry
// traversal, NUL, CR/LF or markup injection. Operation bodies are JSON
// and are cleaned field by field with SanitizeString. Query values that
// look like SQL injection are let through and logged as security events.
func Sanitize(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			for _, check := range requestChecks {
				if reason := check(req); reason != "" {
					return apperr.Validation("request refused: %s", reason)
				}
			}
			if param, ok := sqlLikeParam(req); ok {
				rid, _ := c.Get("request_id").(string)
				logger.Warn().
					Str("type", "security").
					Str("request_id", rid).
					Str("param", param).
					Str("path", req.URL.Path).
					Str("remote_ip", c.RealIP()).
					Msg("SQL injection pattern in query parameter")
			}
			return next(c)
		}
	}
}

func checkPath(r *http.Request) string {
	for _, p := range []string{r.URL.Path, r.URL.RawPath} {
		switch {
		case containsAny(p, traversalMarks):
			return "path traversal"
		case containsAny(p, nulMarks):
			return "null byte in path"
		}
	}
	return ""
}

func checkHeaders(r *http.Request) string {
	for name, values := range r.Header {
		for _, v := range values {
			if len(v) > headerValueLimit {
				return "header " + name + " too large"
			}
			if strings.ContainsAny(v, "\r\n") {
				return "line break in header " + name
			}
		}
	}
	return ""
}

func checkQuery(r *http.Request) string {
	for key, values := range r.URL.Query() {
		if containsAny(key, nulMarks) || markupPattern.MatchString(key) {
			return "query parameter name"
		}
		for _, v := range values {
			if containsAny(v, nulMarks) {
				return "null byte in query parameter " + key
			}
			if markupPattern.MatchString(v) {
				return "markup in query parameter " + key
			}
		}
	}
	return ""
}

func sqlLikeParam(r *http.Request) (string, bool) {
	for key, values := range r.URL.Query() {
		for _, v := range values {
			if sqlPattern.MatchString(v) {
				return key, true
			}
		}
	}
	return "", false
}

// containsAny matches marks case-insensitively so %2E%2E is caught too.
func containsAny(s string, marks []string) bool {
	if s == "" {
		return false
	}
	lower := strings.ToLower(s)
	for _, m := range marks {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// SanitizeString drops NUL and control runes, keeping tab and line
// breaks, and trims surrounding space. Services run every free-text field
// (complaints, diagnoses, prescription text, profile fields) through it
// before the row is written.
func SanitizeString(input string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return r
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, input)
	return strings.TrimSpace(cleaned)
}
