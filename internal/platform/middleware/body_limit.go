package middleware

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

const defaultBodyLimit int64 = 1 << 20

// ErrBodyTooLarge is what reads past the limit return. Bind surfaces it
// wrapped, and the operation pipeline reports it as a validation failure.
var ErrBodyTooLarge = echo.NewHTTPError(http.StatusRequestEntityTooLarge, "request body too large")

var sizeUnits = []struct {
	suffix string
	shift  uint
}{
	{"GB", 30}, {"G", 30},
	{"MB", 20}, {"M", 20},
	{"KB", 10}, {"K", 10},
	{"B", 0},
}

// BodyLimit caps request bodies at a size such as "15M", "512K" or a bare
// byte count. Lab report uploads arrive base64 encoded inside JSON, so
// BODY_LIMIT sits above UPLOAD_MAX_BYTES. A declared Content-Length over
// the cap is refused before the handler runs; chunked bodies are cut off
// while they are read.
func BodyLimit(limit string) echo.MiddlewareFunc {
	max := parseByteSize(limit)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || req.Body == http.NoBody {
				return next(c)
			}
			if req.ContentLength > max {
				return ErrBodyTooLarge
			}
			req.Body = &cappedBody{src: req.Body, left: max}
			return next(c)
		}
	}
}

// cappedBody reads at most left bytes and fails on the first byte past
// them.
type cappedBody struct {
	src  io.ReadCloser
	left int64
	over bool
}

func (b *cappedBody) Read(p []byte) (int, error) {
	if b.over {
		return 0, ErrBodyTooLarge
	}
	if int64(len(p)) > b.left+1 {
		p = p[:b.left+1]
	}
	n, err := b.src.Read(p)
	if int64(n) > b.left {
		b.over = true
		return 0, ErrBodyTooLarge
	}
	b.left -= int64(n)
	return n, err
}

func (b *cappedBody) Close() error { return b.src.Close() }

// parseByteSize turns "15M" style sizes into bytes. Empty, malformed or
// non-positive values fall back to 1 MiB.
func parseByteSize(s string) int64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	var shift uint
	for _, u := range sizeUnits {
		if strings.HasSuffix(s, u.suffix) {
			s, shift = strings.TrimSpace(strings.TrimSuffix(s, u.suffix)), u.shift
			break
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return defaultBodyLimit
	}
	return n << shift
}
