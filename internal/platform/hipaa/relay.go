package hipaa

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/medassist/gateway/internal/platform/rowstore"
	"github.com/medassist/gateway/internal/platform/telemetry"
)

const defaultRelayBatch = 100

// RelayConfig controls the relay schedule.
type RelayConfig struct {
	// Interval between passes.
	Interval time.Duration
	// BaseBackoff is the delay after the first failed attempt; each further
	// failure doubles it up to MaxBackoff.
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	BatchSize   int
}

func (c *RelayConfig) applyDefaults() {
	if c.Interval <= 0 {
		c.Interval = 5 * time.Second
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 5 * time.Minute
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultRelayBatch
	}
}

// Relay moves queued audit entries into audit_logs.
type Relay struct {
	outbox  Outbox
	store   rowstore.Store
	logger  zerolog.Logger
	metrics *telemetry.Provider
	cfg     RelayConfig
	now     func() time.Time
}

func NewRelay(outbox Outbox, store rowstore.Store, logger zerolog.Logger, metrics *telemetry.Provider, cfg RelayConfig) *Relay {
	cfg.applyDefaults()
	return &Relay{
		outbox:  outbox,
		store:   store,
		logger:  logger,
		metrics: metrics,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Backoff returns the delay before attempt number attempts+1.
func Backoff(attempts int, base, max time.Duration) time.Duration {
	if attempts < 1 {
		return 0
	}
	d := base
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}

// Run drains the outbox every Interval until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, _, err := r.Drain(ctx); err != nil {
				r.logger.Error().Err(err).Msg("audit outbox relay pass failed")
			}
		}
	}
}

// Drain makes one pass over due messages. It returns how many were
// appended and how many were rescheduled.
func (r *Relay) Drain(ctx context.Context) (relayed, retried int, err error) {
	now := r.now()
	msgs, err := r.outbox.Due(ctx, now, r.cfg.BatchSize)
	if err != nil {
		return 0, 0, err
	}

	for _, m := range msgs {
		entry := m.Entry
		if ierr := r.store.Insert(ctx, AuditTable, &entry, nil); ierr != nil {
			m.Attempts++
			m.LastError = ierr.Error()
			m.NextAttempt = now.Add(Backoff(m.Attempts, r.cfg.BaseBackoff, r.cfg.MaxBackoff))
			if err := r.outbox.Reschedule(ctx, m); err != nil {
				return relayed, retried, err
			}
			retried++
			r.logger.Warn().Err(ierr).
				Str("outbox_id", m.ID).
				Int("attempts", m.Attempts).
				Time("next_attempt", m.NextAttempt).
				Msg("audit outbox append failed")
			continue
		}
		if err := r.outbox.Ack(ctx, m.ID); err != nil {
			return relayed, retried, err
		}
		relayed++
		r.logger.Info().
			Str("type", "audit").
			Str("disposition", "relayed").
			Str("outbox_id", m.ID).
			Str("action", entry.Action).
			Str("user_id", entry.UserID).
			Bool("success", entry.Success).
			Msg(entry.Description)
	}

	r.metrics.ObserveRelay(relayed, retried)
	if n, lerr := r.outbox.Len(ctx); lerr == nil {
		r.metrics.SetOutboxDepth(n)
	}
	return relayed, retried, nil
}
