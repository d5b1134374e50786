package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/medassist/gateway/internal/config"
	"github.com/medassist/gateway/internal/domain/admin"
	"github.com/medassist/gateway/internal/domain/analytics"
	"github.com/medassist/gateway/internal/domain/clinical"
	"github.com/medassist/gateway/internal/domain/diagnostics"
	"github.com/medassist/gateway/internal/domain/emergency"
	"github.com/medassist/gateway/internal/domain/identity"
	"github.com/medassist/gateway/internal/domain/medication"
	"github.com/medassist/gateway/internal/domain/scheduling"
	"github.com/medassist/gateway/internal/platform/auth"
	"github.com/medassist/gateway/internal/platform/backend"
	"github.com/medassist/gateway/internal/platform/db"
	"github.com/medassist/gateway/internal/platform/gated"
	"github.com/medassist/gateway/internal/platform/hipaa"
	"github.com/medassist/gateway/internal/platform/middleware"
	"github.com/medassist/gateway/internal/platform/objectstore"
	"github.com/medassist/gateway/internal/platform/rowstore"
	"github.com/medassist/gateway/internal/platform/sandbox"
	"github.com/medassist/gateway/internal/platform/telemetry"
)

const version = "0.1.0"

// app holds the collaborators shared by the serve and outbox commands.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	metrics *telemetry.Provider
	backend *backend.Client
	pool    *pgxpool.Pool
	redis   *redis.Client
	rows    rowstore.Store
	objects objectstore.Store
	outbox  hipaa.Outbox
	audit   *hipaa.AuditLogger
	policy  *gated.Policy
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(stdout).With().Timestamp().Logger()
}

// newApp connects every store the configuration selects. Call close when
// done.
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}
	a.metrics = telemetry.NewTelemetryProvider(telemetry.TelemetryConfig{Environment: cfg.Env})

	policy, err := gated.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return nil, err
	}
	a.policy = policy

	if cfg.NeedsBackend() {
		a.backend = backend.New(cfg.BackendURL, cfg.BackendServiceKey, cfg.BackendTimeout)
	}

	switch cfg.RowStoreDriver {
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, db.PoolConfig{
			URL:             cfg.DatabaseURL,
			MaxConns:        cfg.DBMaxConns,
			MinConns:        cfg.DBMinConns,
			ApplicationName: "medassist-server",
		})
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.pool = pool
		a.rows = rowstore.NewPostgresStore(pool)
		logger.Info().Msg("connected to database")
	case config.DriverMemory:
		a.rows = rowstore.NewMemoryStore()
		logger.Warn().Msg("using in-memory row-store; data is lost on restart")
		if cfg.SandboxPatients > 0 {
			seed := sandbox.DefaultSeedConfig()
			seed.PatientCount = cfg.SandboxPatients
			res, err := sandbox.NewSeeder(seed, time.Now().UTC()).Load(ctx, a.rows)
			if err != nil {
				return nil, err
			}
			logger.Info().Int("hospitals", res.Hospitals).Int("profiles", res.Profiles).
				Int("patients", res.Patients).Msg("seeded sandbox data")
		}
	default:
		a.rows = rowstore.NewRestStore(a.backend)
	}

	switch cfg.ObjectStoreDriver {
	case config.DriverMemory:
		a.objects = objectstore.NewInMemoryStore("http://localhost:" + cfg.Port + "/objects")
	default:
		a.objects = objectstore.NewRestStore(a.backend)
	}

	if cfg.RedisURL != "" {
		client, err := hipaa.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.redis = client
		a.outbox = hipaa.NewRedisOutbox(client, "")
		logger.Info().Msg("audit outbox backed by redis")
	} else {
		a.outbox = hipaa.NewMemoryOutbox()
	}

	a.audit = hipaa.NewAuditLogger(a.rows, a.outbox, logger, a.metrics)
	return a, nil
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

func (a *app) verifier() (auth.Verifier, error) {
	if a.cfg.AuthMode == config.AuthModeJWT {
		return auth.NewJWTVerifier(auth.JWTConfig{
			Issuer:     a.cfg.AuthIssuer,
			Audience:   a.cfg.AuthAudience,
			SigningKey: []byte(a.cfg.AuthJWTSecret),
		})
	}
	return auth.NewIntrospectionVerifier(a.backend), nil
}

func (a *app) relay() *hipaa.Relay {
	return hipaa.NewRelay(a.outbox, a.rows, a.logger, a.metrics, hipaa.RelayConfig{
		Interval:   a.cfg.OutboxInterval,
		MaxBackoff: a.cfg.OutboxMaxBackoff,
	})
}

// router builds the echo instance with the middleware chain, the
// infrastructure endpoints and every operation under /api/v1.
func (a *app) router() (*echo.Echo, error) {
	verifier, err := a.verifier()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(a.logger)

	rateCfg := middleware.DefaultRateLimitConfig()
	rateCfg.RequestsPerSecond = a.cfg.RateLimitRPS
	rateCfg.BurstSize = a.cfg.RateLimitBurst
	rateCfg.Skipper = auth.PublicSkipper

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(a.logger))
	e.Use(middleware.Recovery(a.logger))
	e.Use(middleware.CORS())
	e.Use(middleware.SecurityHeaders(!a.cfg.IsDev()))
	e.Use(a.metrics.MetricsMiddleware())
	e.Use(middleware.BodyLimit(a.cfg.BodyLimit))
	e.Use(middleware.RateLimit(rateCfg))
	e.Use(middleware.RequestTimeout(a.cfg.RequestTimeout))
	e.Use(middleware.Sanitize(a.logger))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	if a.pool != nil {
		pool := a.pool
		e.GET("/health/db", db.HealthHandler(pool, func() *db.PoolStats { return db.GetPoolStats(pool) }, a.logger))
	}
	e.GET("/metrics", a.metrics.PrometheusHandler())

	o := gated.NewOrchestrator(verifier, gated.NewProfileResolver(a.rows), gated.NewGate(a.policy), a.audit, a.logger, a.metrics)
	a.registerOperations(e.Group("/api/v1"), o)
	return e, nil
}

func (a *app) registerOperations(g *echo.Group, o *gated.Orchestrator) {
	rows := a.rows
	uploader := objectstore.NewUploader(a.objects, a.cfg.UploadMaxBytes)

	emergency.NewHandler(emergency.NewService(
		emergency.NewPatientRepoStore(rows),
		emergency.NewAccessLogRepoStore(rows),
	)).RegisterRoutes(g, o)

	diagnostics.NewHandler(diagnostics.NewService(
		uploader,
		diagnostics.NewLabReportRepoStore(rows),
	)).RegisterRoutes(g, o)

	analytics.NewHandler(analytics.NewService(
		analytics.NewRepoStore(rows),
	)).RegisterRoutes(g, o)

	medication.NewHandler(medication.NewService(
		uploader,
		medication.NewPrescriptionRepoStore(rows),
	)).RegisterRoutes(g, o)

	clinical.NewHandler(clinical.NewService(
		clinical.NewMedicalRecordRepoStore(rows),
	)).RegisterRoutes(g, o)

	scheduling.NewHandler(scheduling.NewService(
		scheduling.NewPatientRepoStore(rows),
		scheduling.NewDoctorRepoStore(rows),
		scheduling.NewAppointmentRepoStore(rows),
	)).RegisterRoutes(g, o)

	identity.NewHandler(identity.NewService(
		identity.NewPatientRepoStore(rows),
	)).RegisterRoutes(g, o)

	admin.NewHandler(admin.NewService(
		admin.NewStaffRepoStore(rows),
		admin.NewAppointmentRepoStore(rows),
		a.audit,
	)).RegisterRoutes(g, o)
}
