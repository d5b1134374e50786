package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medassist/gateway/pkg/apperr"
)

// statusCodes names the envelope code for statuses produced outside the
// operation pipeline (router, limits, timeouts, panics).
var statusCodes = map[int]string{
	http.StatusBadRequest:            string(apperr.KindValidationFailed),
	http.StatusUnauthorized:          string(apperr.KindUnauthenticated),
	http.StatusForbidden:             string(apperr.KindUnauthorized),
	http.StatusNotFound:              string(apperr.KindNotFound),
	http.StatusMethodNotAllowed:      "MethodNotAllowed",
	http.StatusRequestEntityTooLarge: "PayloadTooLarge",
	http.StatusUnsupportedMediaType:  string(apperr.KindValidationFailed),
	http.StatusTooManyRequests:       "RateLimited",
	http.StatusBadGateway:            string(apperr.KindDownstreamFailed),
	http.StatusGatewayTimeout:        "Timeout",
}

// ErrorHandler renders every error that reaches echo in the {error:{code,
// message}} envelope. Internal causes are logged, never returned.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var (
			status int
			env    apperr.Envelope
		)
		var ae *apperr.Error
		var he *echo.HTTPError
		switch {
		case errors.As(err, &ae):
			status, env = ae.Status(), apperr.EnvelopeOf(ae)
		case errors.As(err, &he):
			status = he.Code
			env = apperr.Envelope{Error: apperr.Body{Code: codeFor(status), Message: httpErrorMessage(he)}}
		default:
			status = http.StatusInternalServerError
			env = apperr.Envelope{Error: apperr.Body{Code: "Internal", Message: "internal server error"}}
		}

		if status >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).
				Str("request_id", rid).
				Str("path", c.Request().URL.Path).
				Int("status", status).
				Msg("request failed")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, env)
		}
		if err != nil {
			logger.Error().Err(err).Msg("write error response")
		}
	}
}

func codeFor(status int) string {
	if code, ok := statusCodes[status]; ok {
		return code
	}
	if status >= http.StatusInternalServerError {
		return "Internal"
	}
	return strings.ReplaceAll(http.StatusText(status), " ", "")
}

func httpErrorMessage(he *echo.HTTPError) string {
	if he.Code >= http.StatusInternalServerError {
		return strings.ToLower(http.StatusText(he.Code))
	}
	if msg, ok := he.Message.(string); ok && msg != "" {
		return msg
	}
	return strings.ToLower(http.StatusText(he.Code))
}
