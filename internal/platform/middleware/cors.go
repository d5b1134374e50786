package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":      "*",
	"Access-Control-Allow-Headers":     "authorization, x-client-info, apikey, content-type",
	"Access-Control-Allow-Methods":     "POST, GET, OPTIONS",
	"Access-Control-Max-Age":           "86400",
	"Access-Control-Allow-Credentials": "false",
}

// CORS sets the portal's CORS headers on every response and answers
// preflight OPTIONS requests with an empty 200.
func CORS() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			for k, v := range corsHeaders {
				h.Set(k, v)
			}
			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusOK)
			}
			return next(c)
		}
	}
}
