package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/medassist/gateway/internal/platform/backend"
)

// RestStore uploads to the hosted storage API.
type RestStore struct {
	client *backend.Client
	now    func() time.Time
}

func NewRestStore(client *backend.Client) *RestStore {
	return &RestStore{client: client, now: time.Now}
}

func (s *RestStore) Put(ctx context.Context, bucket, objectPath, contentType string, data []byte) (*Object, error) {
	if objectPath == "" {
		return nil, ErrMissingFileName
	}
	req, err := s.client.NewRequest(ctx, http.MethodPost,
		"/storage/v1/object/"+bucket+"/"+objectPath, nil, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	if _, err := s.client.DoJSON(req, nil); err != nil {
		return nil, fmt.Errorf("upload %s/%s: %w", bucket, objectPath, err)
	}
	return &Object{
		Bucket:      bucket,
		Path:        objectPath,
		ContentType: contentType,
		Size:        int64(len(data)),
		PublicURL:   s.PublicURL(bucket, objectPath),
		CreatedAt:   s.now().UTC(),
	}, nil
}

func (s *RestStore) PublicURL(bucket, objectPath string) string {
	return s.client.BaseURL() + "/storage/v1/object/public/" + bucket + "/" + objectPath
}
