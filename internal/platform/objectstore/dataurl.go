package objectstore

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Upload is a decoded data URL.
type Upload struct {
	ContentType string
	Data        []byte
}

// DecodeDataURL parses "data:<mime>;base64,<payload>". maxSize bounds the
// decoded length; zero means DefaultMaxSize.
func DecodeDataURL(s string, maxSize int64) (*Upload, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if !strings.HasPrefix(s, "data:") {
		return nil, ErrInvalidDataURL
	}
	header, payload, ok := strings.Cut(s[len("data:"):], ",")
	if !ok || payload == "" {
		return nil, ErrInvalidDataURL
	}
	mime, enc, ok := strings.Cut(header, ";")
	if !ok || !strings.EqualFold(enc, "base64") || mime == "" {
		return nil, ErrInvalidDataURL
	}
	mime = strings.ToLower(strings.TrimSpace(mime))
	if err := checkContentType(mime); err != nil {
		return nil, err
	}

	if int64(base64.StdEncoding.DecodedLen(len(payload))) > maxSize+2 {
		return nil, ErrFileTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	if int64(len(data)) > maxSize {
		return nil, ErrFileTooLarge
	}
	return &Upload{ContentType: mime, Data: data}, nil
}
