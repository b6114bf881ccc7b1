package app

import (
	"context"
	"fmt"
	"time"

	"github.com/vetnova/clinic-platform/auth"
	"github.com/vetnova/clinic-platform/config"
	"github.com/vetnova/clinic-platform/middleware"
	"github.com/vetnova/clinic-platform/models"
	"github.com/vetnova/clinic-platform/repositories"
	"github.com/vetnova/clinic-platform/repositories/postgres"
	"github.com/vetnova/clinic-platform/services"
	"github.com/vetnova/clinic-platform/services/audit"
	"github.com/vetnova/clinic-platform/services/ratelimit"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies. This is the central wiring
// point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repositories
	Principals     repositories.PrincipalRepository
	Appointments   repositories.AppointmentRepository
	MedicalRecords repositories.MedicalRecordRepository
	AuditEvents    repositories.AuditRepository

	// Services
	Auth        *services.AuthService
	Audit       *audit.Service
	RateLimiter *ratelimit.Service

	// Middleware
	Pipeline  *middleware.Pipeline
	RateLimit *middleware.RateLimitMiddleware

	counterStore  *ratelimit.PostgresCounterStore
	cleanupCancel context.CancelFunc
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initRepositories()

	if err := deps.initAudit(); err != nil {
		return nil, fmt.Errorf("failed to initialize audit service: %w", err)
	}

	if err := deps.initRateLimiter(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize rate limiter: %w", err)
	}

	deps.initPipeline(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the PostgreSQL connection pool
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	db, err := postgres.NewDB(cfg.Database, d.Logger)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	if err := db.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	d.DB = db
	return nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	d.Principals = postgres.NewPrincipalRepository(d.DB, d.Logger)
	d.Appointments = postgres.NewAppointmentRepository(d.DB, d.Logger)
	d.MedicalRecords = postgres.NewMedicalRecordRepository(d.DB, d.Logger)
	d.AuditEvents = postgres.NewAuditRepository(d.DB, d.Logger)
	d.Logger.Info("repositories initialized")
}

// initAudit starts the audit service backed by the audit events table
func (d *Dependencies) initAudit() error {
	sink := &repositorySink{repo: d.AuditEvents}
	d.Audit = audit.NewService(sink, d.Logger, audit.DefaultConfig())
	return d.Audit.Start()
}

// initRateLimiter wires the sliding-window limiter. Without a configured
// counter store the limiter stays disabled and requests pass through.
func (d *Dependencies) initRateLimiter(cfg *config.Config) error {
	var store ratelimit.CounterStore
	if cfg.RateLimit.Enabled() {
		counterStore, err := ratelimit.OpenCounterStore(cfg.RateLimit.StoreURL, cfg.RateLimit.StoreToken, d.Logger)
		if err != nil {
			return err
		}
		d.counterStore = counterStore
		store = counterStore

		cleanupCtx, cancel := context.WithCancel(context.Background())
		d.cleanupCancel = cancel
		go counterStore.StartCleanupWorker(cleanupCtx, time.Hour, 24*time.Hour)
	} else {
		d.Logger.Warn("rate limit counter store not configured, limiter disabled")
	}

	d.RateLimiter = ratelimit.NewService(store, cfg.RateLimit, d.Logger)
	return nil
}

// initPipeline wires authentication, identity resolution and the secure
// handler pipeline
func (d *Dependencies) initPipeline(cfg *config.Config) {
	validator := auth.NewTokenValidator(auth.Config{
		Secret: cfg.Auth.JWTSecret,
		Issuer: cfg.Auth.Issuer,
	})
	d.Auth = services.NewAuthService(validator, d.Principals, d.Logger)

	resolver := middleware.NewIdentityResolver(cfg.Security)
	d.RateLimit = middleware.NewRateLimitMiddleware(d.RateLimiter, resolver, d.Audit, d.Logger)
	d.Pipeline = middleware.NewPipeline(d.Auth, d.Audit, d.Logger, cfg.IsProduction())
}

// Close shuts down dependencies in reverse initialization order. The audit
// service drains first so shutdown does not drop buffered events.
func (d *Dependencies) Close(timeout time.Duration) error {
	var firstErr error

	if d.Audit != nil {
		if err := d.Audit.Stop(timeout); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if d.cleanupCancel != nil {
		d.cleanupCancel()
	}
	if d.counterStore != nil {
		if err := d.counterStore.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// repositorySink adapts the audit repository to the audit.Sink interface
type repositorySink struct {
	repo repositories.AuditRepository
}

func (s *repositorySink) Write(ctx context.Context, event *models.AuditEvent) error {
	return s.repo.Insert(ctx, event)
}
