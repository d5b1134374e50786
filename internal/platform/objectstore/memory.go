package objectstore

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"time"
)

type storedObject struct {
	object  Object
	hash    string
	content []byte
}

// InMemoryStore is a thread-safe, in-memory Store for tests and local runs.
type InMemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]*storedObject
}

// NewInMemoryStore returns a store whose public URLs are rooted at baseURL.
func NewInMemoryStore(baseURL string) *InMemoryStore {
	return &InMemoryStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]*storedObject),
	}
}

func (s *InMemoryStore) Put(_ context.Context, bucket, objectPath, contentType string, data []byte) (*Object, error) {
	if objectPath == "" {
		return nil, ErrMissingFileName
	}
	content := make([]byte, len(data))
	copy(content, data)
	sum := sha256.Sum256(content)

	obj := Object{
		Bucket:      bucket,
		Path:        objectPath,
		ContentType: contentType,
		Size:        int64(len(content)),
		PublicURL:   s.PublicURL(bucket, objectPath),
		CreatedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.objects[bucket+"/"+objectPath] = &storedObject{
		object:  obj,
		hash:    fmt.Sprintf("%x", sum),
		content: content,
	}
	s.mu.Unlock()

	return &obj, nil
}

func (s *InMemoryStore) PublicURL(bucket, objectPath string) string {
	return s.baseURL + "/storage/v1/object/public/" + bucket + "/" + objectPath
}

// Get returns the stored bytes and metadata.
func (s *InMemoryStore) Get(bucket, objectPath string) ([]byte, *Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	so, ok := s.objects[bucket+"/"+objectPath]
	if !ok {
		return nil, nil, ErrObjectNotFound
	}
	obj := so.object
	return so.content, &obj, nil
}

// Hash returns the hex SHA-256 of a stored object.
func (s *InMemoryStore) Hash(bucket, objectPath string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	so, ok := s.objects[bucket+"/"+objectPath]
	if !ok {
		return "", ErrObjectNotFound
	}
	return so.hash, nil
}

// Len reports how many objects are stored.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
