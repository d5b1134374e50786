package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths lists infrastructure endpoints that carry no credentials and
// are exempt from client rate limiting.
var publicPaths = map[string]bool{
	"/health":    true,
	"/health/db": true,
	"/metrics":   true,
}

// PublicSkipper returns true for requests to a public infrastructure path.
func PublicSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}
