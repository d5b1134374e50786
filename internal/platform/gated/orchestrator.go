// Package gated runs role-gated audited operations. Every operation goes
// through the same pipeline: verify the bearer token, resolve the caller's
// profile, check the role against the policy, execute the effect, append
// an audit entry and respond with a {data} or {error} envelope.
package gated

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medassist/gateway/internal/platform/auth"
	"github.com/medassist/gateway/internal/platform/hipaa"
	"github.com/medassist/gateway/internal/platform/middleware"
	"github.com/medassist/gateway/internal/platform/telemetry"
	"github.com/medassist/gateway/pkg/apperr"
)

// State is a pipeline stage. A request only moves forward.
type State string

const (
	StateStart         State = "Start"
	StateAuthenticated State = "Authenticated"
	StateAuthorized    State = "Authorized"
	StateExecuted      State = "Executed"
	StateLogged        State = "Logged"
	StateResponded     State = "Responded"
	StateErrored       State = "Errored"
)

// Actor is the authenticated, authorized caller handed to executors.
type Actor struct {
	Identity  auth.Identity
	Profile   Profile
	RequestID string
}

// Result is what an executor returns. Data becomes the response payload;
// the target fields and description go to the audit entry.
type Result struct {
	Data        any
	TargetTable string
	TargetID    string
	Description string
}

// Validator is implemented by inputs with required fields.
type Validator interface {
	Validate() error
}

// Executor performs one operation's effect.
type Executor[In any] func(ctx context.Context, actor *Actor, in *In) (*Result, error)

// Operation describes one gated endpoint.
type Operation[In any] struct {
	Action  string
	Execute Executor[In]
}

// Auditor appends audit entries.
type Auditor interface {
	Append(ctx context.Context, entry *hipaa.AuditEntry) error
}

// Orchestrator holds the collaborators shared by every operation.
type Orchestrator struct {
	verifier auth.Verifier
	resolver Resolver
	gate     *Gate
	audit    Auditor
	logger   zerolog.Logger
	metrics  *telemetry.Provider
}

func NewOrchestrator(verifier auth.Verifier, resolver Resolver, gate *Gate, audit Auditor, logger zerolog.Logger, metrics *telemetry.Provider) *Orchestrator {
	return &Orchestrator{
		verifier: verifier,
		resolver: resolver,
		gate:     gate,
		audit:    audit,
		logger:   logger,
		metrics:  metrics,
	}
}

// run tracks one request through the pipeline.
type run struct {
	o      *Orchestrator
	action string
	state  State
	start  time.Time
	logger zerolog.Logger
}

// Handle adapts op to an echo handler. The handler always writes the
// response itself and returns nil.
func Handle[In any](o *Orchestrator, op Operation[In]) echo.HandlerFunc {
	return func(c echo.Context) error {
		reqID := c.Response().Header().Get(echo.HeaderXRequestID)
		r := &run{
			o:      o,
			action: op.Action,
			state:  StateStart,
			start:  time.Now(),
			logger: o.logger.With().Str("request_id", reqID).Str("action", op.Action).Logger(),
		}
		ctx := c.Request().Context()

		// Start -> Authenticated
		token, err := auth.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return r.fail(c, err)
		}
		ident, err := o.verifier.Verify(ctx, token)
		if err != nil {
			return r.fail(c, err)
		}
		r.state = StateAuthenticated
		r.logger = r.logger.With().Str("user_id", ident.ID).Logger()
		c.Set("user_id", ident.ID)

		// Authenticated -> Authorized
		profile, err := o.resolver.Resolve(ctx, ident.ID)
		if err == nil && profile == nil {
			err = ErrProfileNotFound
		}
		if err != nil {
			return r.fail(c, apperr.Wrap(apperr.KindUnauthorized, err, deniedMessage))
		}
		if err := o.gate.Authorize(op.Action, profile); err != nil {
			r.logger = r.logger.With().Str("role", string(profile.Role)).Logger()
			return r.fail(c, err)
		}
		r.state = StateAuthorized
		r.logger = r.logger.With().Str("role", string(profile.Role)).Logger()
		c.Set("role", string(profile.Role))

		var in In
		if err := decodeInput(c, &in); err != nil {
			return r.fail(c, err)
		}

		actor := &Actor{Identity: *ident, Profile: *profile, RequestID: reqID}

		// Authorized -> Executed
		res, execErr := op.Execute(ctx, actor, &in)
		if res == nil {
			res = &Result{}
		}
		if execErr != nil {
			entry := r.entry(actor, res, false)
			entry.Description = failureDescription(op.Action, execErr)
			if aerr := o.audit.Append(ctx, entry); aerr != nil {
				r.logger.Error().Err(aerr).Msg("audit append for failed operation did not persist")
			}
			return r.fail(c, execErr)
		}
		r.state = StateExecuted

		// Executed -> Logged
		if err := o.audit.Append(ctx, r.entry(actor, res, true)); err != nil {
			return r.fail(c, apperr.Downstream(err, "audit log append failed"))
		}
		r.state = StateLogged

		// Logged -> Responded
		if err := c.JSON(http.StatusOK, map[string]any{"data": res.Data}); err != nil {
			return err
		}
		r.state = StateResponded
		o.metrics.ObserveOperation(op.Action, "success", time.Since(r.start))
		r.logger.Info().
			Str("state", string(r.state)).
			Str("record_id", res.TargetID).
			Dur("latency", time.Since(r.start)).
			Msg("operation completed")
		return nil
	}
}

func (r *run) entry(actor *Actor, res *Result, success bool) *hipaa.AuditEntry {
	desc := res.Description
	if desc == "" {
		desc = r.action
	}
	return &hipaa.AuditEntry{
		UserID:      actor.Identity.ID,
		Action:      r.action,
		TableName:   res.TargetTable,
		RecordID:    res.TargetID,
		Description: desc,
		Role:        string(actor.Profile.Role),
		Success:     success,
		RequestID:   actor.RequestID,
	}
}

// fail logs err once, records metrics and writes the error envelope.
func (r *run) fail(c echo.Context, err error) error {
	ae := apperr.As(err)
	failedAt := r.state
	r.state = StateErrored

	ev := r.logger.Warn()
	if ae.Kind == apperr.KindDownstreamFailed {
		ev = r.logger.Error()
	}
	ev = ev.Err(err).
		Str("kind", string(ae.Kind)).
		Str("failed_at", string(failedAt)).
		Str("state", string(StateResponded)).
		Dur("latency", time.Since(r.start))

	switch ae.Kind {
	case apperr.KindUnauthenticated, apperr.KindUnauthorized:
		r.o.metrics.ObserveDenial(r.action, string(ae.Kind))
		ev.Str("type", "security").Msg("operation denied")
	default:
		ev.Msg("operation failed")
	}
	r.o.metrics.ObserveOperation(r.action, string(ae.Kind), time.Since(r.start))

	return c.JSON(ae.Status(), apperr.EnvelopeOf(ae))
}

// decodeInput binds the JSON body into in and runs its Validate method.
func decodeInput[In any](c echo.Context, in *In) error {
	if err := c.Bind(in); err != nil {
		if errors.Is(err, middleware.ErrBodyTooLarge) {
			return apperr.Wrap(apperr.KindValidationFailed, err, "request body too large")
		}
		return apperr.Wrap(apperr.KindValidationFailed, err, "request body is not valid JSON for this operation")
	}
	if v, ok := any(in).(Validator); ok {
		if err := v.Validate(); err != nil {
			if apperr.IsKind(err, apperr.KindValidationFailed) {
				return err
			}
			return apperr.Wrap(apperr.KindValidationFailed, err, err.Error())
		}
	}
	return nil
}

func failureDescription(action string, err error) string {
	return fmt.Sprintf("%s failed: %s", action, apperr.As(err).Message)
}
