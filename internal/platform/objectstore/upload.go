package objectstore

import (
	"context"
	"errors"
	"time"
)

// Uploader decodes portal data URLs and stores them under timestamped
// paths.
type Uploader struct {
	store   Store
	maxSize int64
	now     func() time.Time
}

// NewUploader returns an Uploader writing to store. maxSize bounds decoded
// files; zero means DefaultMaxSize.
func NewUploader(store Store, maxSize int64) *Uploader {
	return &Uploader{store: store, maxSize: maxSize, now: time.Now}
}

// Upload stores dataURL in bucket at ObjectPath(now, fileName).
func (u *Uploader) Upload(ctx context.Context, bucket, fileName, dataURL string) (*Object, error) {
	objectPath, err := ObjectPath(u.now(), fileName)
	if err != nil {
		return nil, err
	}
	up, err := DecodeDataURL(dataURL, u.maxSize)
	if err != nil {
		return nil, err
	}
	return u.store.Put(ctx, bucket, objectPath, up.ContentType, up.Data)
}

// IsInputError reports whether err was caused by the uploaded file itself
// rather than by the storage backend.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidDataURL) ||
		errors.Is(err, ErrInvalidContentType) ||
		errors.Is(err, ErrFileTooLarge) ||
		errors.Is(err, ErrMissingFileName)
}
