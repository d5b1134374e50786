package hipaa

import (
	"context"
	"errors"
	"sync"

	"github.com/medassist/gateway/internal/platform/rowstore"
)

// flakyStore fails the next failures inserts, then delegates.
type flakyStore struct {
	*rowstore.MemoryStore
	mu       sync.Mutex
	failures int
}

func newFlakyStore(failures int) *flakyStore {
	return &flakyStore{MemoryStore: rowstore.NewMemoryStore(), failures: failures}
}

func (s *flakyStore) Insert(ctx context.Context, table string, row any, dest any) error {
	s.mu.Lock()
	if s.failures > 0 {
		s.failures--
		s.mu.Unlock()
		return errors.New("connection reset by peer")
	}
	s.mu.Unlock()
	return s.MemoryStore.Insert(ctx, table, row, dest)
}

// brokenOutbox rejects every enqueue.
type brokenOutbox struct{ *MemoryOutbox }

func (brokenOutbox) Enqueue(context.Context, OutboxMessage) error {
	return errors.New("outbox unavailable")
}
