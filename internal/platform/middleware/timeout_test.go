package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func timeoutContext(method, path string) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	return echo.New().NewContext(httptest.NewRequest(method, path, nil), rec), rec
}

func TestRequestTimeout_FastHandler(t *testing.T) {
	c, rec := timeoutContext(http.MethodPost, "/api/v1/ministry/hospital-capacity")

	err := RequestTimeout(time.Second)(func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"data": map[string]int{"total_beds": 120}})
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRequestTimeout_SlowHandler(t *testing.T) {
	c, _ := timeoutContext(http.MethodPost, "/api/v1/ministry/disease-surveillance")

	err := RequestTimeout(20 * time.Millisecond)(func(c echo.Context) error {
		<-c.Request().Context().Done()
		return c.Request().Context().Err()
	})(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %v", err)
	}
}

func TestRequestTimeout_CommittedResponseWins(t *testing.T) {
	c, rec := timeoutContext(http.MethodPost, "/api/v1/lab-reports")

	err := RequestTimeout(10 * time.Millisecond)(func(c echo.Context) error {
		<-c.Request().Context().Done()
		return c.JSON(http.StatusBadGateway, map[string]any{"error": map[string]string{"code": "DownstreamFailed"}})
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected the handler's 502, got %d", rec.Code)
	}
}

func TestRequestTimeout_Deadline(t *testing.T) {
	tests := []struct {
		name         string
		d            time.Duration
		wantDeadline bool
	}{
		{"configured", 30 * time.Second, true},
		{"disabled", 0, false},
		{"negative", -time.Second, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := timeoutContext(http.MethodGet, "/health")
			RequestTimeout(tt.d)(func(c echo.Context) error {
				deadline, ok := c.Request().Context().Deadline()
				if ok != tt.wantDeadline {
					t.Fatalf("deadline present = %v, want %v", ok, tt.wantDeadline)
				}
				if ok && time.Until(deadline) > tt.d {
					t.Errorf("deadline too far out: %v", deadline)
				}
				return nil
			})(c)
		})
	}
}

func TestRequestTimeout_ClientCancelIsNotTimeout(t *testing.T) {
	c, _ := timeoutContext(http.MethodGet, "/health")
	ctx, cancel := context.WithCancel(c.Request().Context())
	c.SetRequest(c.Request().WithContext(ctx))
	cancel()

	err := RequestTimeout(time.Second)(func(c echo.Context) error {
		return c.Request().Context().Err()
	})(c)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected the handler's context.Canceled, got %v", err)
	}
}
