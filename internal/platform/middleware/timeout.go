package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// errRequestDeadline is the cause attached to the request context when
// REQUEST_TIMEOUT elapses.
var errRequestDeadline = errors.New("request deadline exceeded")

// RequestTimeout bounds each request with a deadline that backend, row
// store and object store calls inherit through the context. The handler
// runs on the request goroutine; when it returns after the deadline
// without having written a response, the caller gets 504. A non-positive
// d disables the deadline.
func RequestTimeout(d time.Duration) echo.MiddlewareFunc {
	if d <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeoutCause(c.Request().Context(), d, errRequestDeadline)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			if !c.Response().Committed && errors.Is(context.Cause(ctx), errRequestDeadline) {
				return echo.NewHTTPError(http.StatusGatewayTimeout, "operation did not finish within "+d.String())
			}
			return err
		}
	}
}
