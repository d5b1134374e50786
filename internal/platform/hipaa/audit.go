// Package hipaa records the append-only audit trail of gated operations.
// Entries that cannot be appended immediately are parked in an outbox and
// appended later by a relay.
package hipaa

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/medassist/gateway/internal/platform/rowstore"
	"github.com/medassist/gateway/internal/platform/telemetry"
)

// AuditTable is the row-store table holding audit entries.
const AuditTable = "audit_logs"

// AuditEntry is one row of audit_logs.
type AuditEntry struct {
	ID          string    `json:"id,omitempty"`
	UserID      string    `json:"user_id"`
	Action      string    `json:"action"`
	TableName   string    `json:"table_name,omitempty"`
	RecordID    string    `json:"record_id,omitempty"`
	Description string    `json:"description"`
	Role        string    `json:"role"`
	Success     bool      `json:"success"`
	RequestID   string    `json:"request_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// AuditLogger appends entries through the row-store, falling back to the
// outbox when the append fails.
type AuditLogger struct {
	store   rowstore.Store
	outbox  Outbox
	logger  zerolog.Logger
	metrics *telemetry.Provider
	now     func() time.Time
}

// NewAuditLogger creates an AuditLogger. outbox may be nil, in which case a
// failed append is returned to the caller.
func NewAuditLogger(store rowstore.Store, outbox Outbox, logger zerolog.Logger, metrics *telemetry.Provider) *AuditLogger {
	return &AuditLogger{
		store:   store,
		outbox:  outbox,
		logger:  logger,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Append writes entry to audit_logs. If the row-store rejects it the entry
// is enqueued for the relay; only when both fail is an error returned.
func (a *AuditLogger) Append(ctx context.Context, entry *AuditEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = a.now()
	}

	var stored AuditEntry
	err := a.store.Insert(ctx, AuditTable, entry, &stored)
	if err == nil {
		entry.ID = stored.ID
		a.metrics.ObserveAuditWrite(telemetry.AuditAppended)
		a.logEntry(entry, "appended")
		return nil
	}

	a.logger.Warn().Err(err).
		Str("action", entry.Action).
		Str("user_id", entry.UserID).
		Msg("audit append failed, enqueueing to outbox")

	if a.outbox == nil {
		a.metrics.ObserveAuditWrite(telemetry.AuditFailed)
		return fmt.Errorf("append audit entry: %w", err)
	}

	// The request may already be past its deadline; the queue write must
	// not inherit that.
	qctx := context.WithoutCancel(ctx)
	msg := NewOutboxMessage(*entry, a.now())
	msg.LastError = err.Error()
	if qerr := a.outbox.Enqueue(qctx, msg); qerr != nil {
		a.metrics.ObserveAuditWrite(telemetry.AuditFailed)
		return fmt.Errorf("append audit entry: %w", errors.Join(err, qerr))
	}

	a.metrics.ObserveAuditWrite(telemetry.AuditQueued)
	if n, lerr := a.outbox.Len(qctx); lerr == nil {
		a.metrics.SetOutboxDepth(n)
	}
	a.logEntry(entry, "queued")
	return nil
}

func (a *AuditLogger) logEntry(entry *AuditEntry, disposition string) {
	a.logger.Info().
		Str("type", "audit").
		Str("disposition", disposition).
		Str("audit_id", entry.ID).
		Str("request_id", entry.RequestID).
		Str("user_id", entry.UserID).
		Str("role", entry.Role).
		Str("action", entry.Action).
		Str("table_name", entry.TableName).
		Str("record_id", entry.RecordID).
		Bool("success", entry.Success).
		Msg(entry.Description)
}
