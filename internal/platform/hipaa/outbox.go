package hipaa

import (
	"context"
	mathrand "math/rand"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// OutboxMessage is an audit entry waiting to be appended.
type OutboxMessage struct {
	ID          string     `json:"id"`
	Entry       AuditEntry `json:"entry"`
	Attempts    int        `json:"attempts"`
	NextAttempt time.Time  `json:"next_attempt"`
	LastError   string     `json:"last_error,omitempty"`
	EnqueuedAt  time.Time  `json:"enqueued_at"`
}

// Outbox is a durable queue of audit entries. Messages stay queued until
// acknowledged.
type Outbox interface {
	Enqueue(ctx context.Context, msg OutboxMessage) error
	// Due returns up to max messages whose NextAttempt is not after now,
	// oldest first.
	Due(ctx context.Context, now time.Time, max int) ([]OutboxMessage, error)
	// Reschedule stores msg with its updated attempt bookkeeping.
	Reschedule(ctx context.Context, msg OutboxMessage) error
	Ack(ctx context.Context, id string) error
	Len(ctx context.Context) (int, error)
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// newMessageID returns a lexicographically sortable message id.
func newMessageID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// NewOutboxMessage wraps entry in a message that is due immediately.
func NewOutboxMessage(entry AuditEntry, now time.Time) OutboxMessage {
	return OutboxMessage{
		ID:          newMessageID(now),
		Entry:       entry,
		NextAttempt: now,
		EnqueuedAt:  now,
	}
}

// MemoryOutbox keeps messages in process memory. Messages do not survive a
// restart.
type MemoryOutbox struct {
	mu   sync.Mutex
	msgs map[string]OutboxMessage
}

func NewMemoryOutbox() *MemoryOutbox {
	return &MemoryOutbox{msgs: make(map[string]OutboxMessage)}
}

func (o *MemoryOutbox) Enqueue(_ context.Context, msg OutboxMessage) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs[msg.ID] = msg
	return nil
}

func (o *MemoryOutbox) Due(_ context.Context, now time.Time, max int) ([]OutboxMessage, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	var due []OutboxMessage
	for _, m := range o.msgs {
		if !m.NextAttempt.After(now) {
			due = append(due, m)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	if max > 0 && len(due) > max {
		due = due[:max]
	}
	return due, nil
}

func (o *MemoryOutbox) Reschedule(_ context.Context, msg OutboxMessage) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs[msg.ID] = msg
	return nil
}

func (o *MemoryOutbox) Ack(_ context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.msgs, id)
	return nil
}

func (o *MemoryOutbox) Len(_ context.Context) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.msgs), nil
}
