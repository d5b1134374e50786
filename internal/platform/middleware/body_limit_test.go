package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestParseByteSize(t *testing.T) {
	cases := map[string]int64{
		"15M":   15 << 20,
		"15mb":  15 << 20,
		"512K":  512 << 10,
		"1G":    1 << 30,
		"1024":  1024,
		"64B":   64,
		" 2 M ": 2 << 20,
		"":      defaultBodyLimit,
		"lots":  defaultBodyLimit,
		"-5M":   defaultBodyLimit,
	}
	for in, want := range cases {
		if got := parseByteSize(in); got != want {
			t.Errorf("parseByteSize(%q) = %d, want %d", in, got, want)
		}
	}
}

// limited runs body through BodyLimit and hands the handler's read result
// back.
func limited(t *testing.T, limit string, body io.Reader, contentLength int64) ([]byte, bool, error) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/lab-reports", body)
	if contentLength != 0 {
		req.ContentLength = contentLength
	}
	c := echo.New().NewContext(req, httptest.NewRecorder())

	var (
		read   []byte
		called bool
	)
	err := BodyLimit(limit)(func(c echo.Context) error {
		called = true
		var rerr error
		read, rerr = io.ReadAll(c.Request().Body)
		return rerr
	})(c)
	return read, called, err
}

func TestBodyLimit_UnderLimit(t *testing.T) {
	body := `{"healthId":"HID-1","emergencyType":"cardiac"}`
	read, called, err := limited(t, "1K", strings.NewReader(body), 0)
	if err != nil || !called {
		t.Fatalf("expected pass-through, got err=%v called=%v", err, called)
	}
	if string(read) != body {
		t.Errorf("body altered: %q", read)
	}
}

func TestBodyLimit_ExactlyAtLimit(t *testing.T) {
	read, _, err := limited(t, "16", strings.NewReader(strings.Repeat("x", 16)), -1)
	if err != nil {
		t.Fatalf("unexpected error at the limit: %v", err)
	}
	if len(read) != 16 {
		t.Errorf("expected 16 bytes, got %d", len(read))
	}
}

func TestBodyLimit_DeclaredLengthRefused(t *testing.T) {
	_, called, err := limited(t, "1K", strings.NewReader(strings.Repeat("x", 2048)), 0)
	if called {
		t.Error("handler must not run for an oversized declared body")
	}
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %v", err)
	}
}

func TestBodyLimit_StreamedOverflow(t *testing.T) {
	_, called, err := limited(t, "512", strings.NewReader(strings.Repeat("a", 1024)), -1)
	if !called {
		t.Fatal("expected the handler to start reading")
	}
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("expected ErrBodyTooLarge, got %v", err)
	}
}

func TestBodyLimit_NoBody(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), httptest.NewRecorder())
	called := false
	if err := BodyLimit("1M")(func(echo.Context) error { called = true; return nil })(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected handler to run")
	}
}

func TestBodyLimit_BindSurfacesLimit(t *testing.T) {
	body := `{"fileData":"data:application/pdf;base64,` + strings.Repeat("A", 2048) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/lab-reports", strings.NewReader(body))
	req.ContentLength = -1
	req.Header.Set("Content-Type", "application/json")
	c := echo.New().NewContext(req, httptest.NewRecorder())

	err := BodyLimit("1K")(func(c echo.Context) error {
		var in map[string]any
		return c.Bind(&in)
	})(c)
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("expected bind error to wrap ErrBodyTooLarge, got %v", err)
	}
}
