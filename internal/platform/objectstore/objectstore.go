// Package objectstore stores uploaded files in named buckets and hands out
// public URLs for them. Files arrive from the portal as base64 data URLs.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

var (
	ErrObjectNotFound     = errors.New("object not found")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("content type is not allowed")
	ErrMissingFileName    = errors.New("file name is required")
	ErrInvalidDataURL     = errors.New("file data is not a valid base64 data URL")
)

// Buckets used by the portal.
const (
	BucketLabReports    = "lab-reports"
	BucketPrescriptions = "prescriptions"
)

// DefaultMaxSize caps decoded uploads when no limit is configured (10 MB).
const DefaultMaxSize = 10 * 1024 * 1024

// AllowedContentTypes lists the MIME types accepted for clinical uploads.
var AllowedContentTypes = map[string]bool{
	"image/png":       true,
	"image/jpeg":      true,
	"image/webp":      true,
	"image/dicom":     true,
	"application/pdf": true,
	"text/plain":      true,
}

// Object describes a stored file.
type Object struct {
	Bucket      string    `json:"bucket"`
	Path        string    `json:"path"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	PublicURL   string    `json:"public_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store is the object-store contract. Put overwrites an existing object at
// the same path.
type Store interface {
	Put(ctx context.Context, bucket, objectPath, contentType string, data []byte) (*Object, error)
	PublicURL(bucket, objectPath string) string
}

// ObjectPath builds the storage path "<unix-ms>-<fileName>". Directory
// components in fileName are dropped and every rune outside
// [A-Za-z0-9._-] becomes '_', so the path needs no escaping in the upload
// URL or in the public URL stored on the row.
func ObjectPath(now time.Time, fileName string) (string, error) {
	name := strings.TrimSpace(fileName)
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(safeNameRune, name)
	if strings.Trim(name, "._") == "" {
		return "", ErrMissingFileName
	}
	return fmt.Sprintf("%d-%s", now.UnixMilli(), name), nil
}

func safeNameRune(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return r
	case r == '.' || r == '-' || r == '_':
		return r
	}
	return '_'
}

func checkContentType(ct string) error {
	if !AllowedContentTypes[ct] {
		return fmt.Errorf("%w: %s", ErrInvalidContentType, ct)
	}
	return nil
}
