// Package app wires configuration, storage, services and the HTTP API into
// a runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"ortografia/internal/config"
	"ortografia/internal/database"
	"ortografia/internal/handlers"
	"ortografia/internal/logger"
	"ortografia/internal/repository"
	"ortografia/internal/security"
	"ortografia/internal/service"
)

// Runtime is a wired server ready to listen
type Runtime struct {
	Config *config.Config
	DB     *database.DB
	Server *http.Server

	limiter *security.RateLimiter
	ctx     context.Context
	stop    context.CancelFunc
	closed  sync.Once
}

// Launcher builds the Runtime once. Every Init call returns the result of the first.
type Launcher struct {
	cfg *config.Config

	once    sync.Once
	runtime *Runtime
	err     error
}

// NewLauncher creates a launcher for cfg
func NewLauncher(cfg *config.Config) *Launcher {
	return &Launcher{cfg: cfg}
}

// Init opens and migrates the database, wires the services and builds the
// HTTP server
func (l *Launcher) Init(ctx context.Context) (*Runtime, error) {
	l.once.Do(func() {
		l.runtime, l.err = build(ctx, l.cfg)
	})
	return l.runtime, l.err
}

func build(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("Database ready", "type", db.GetDialect().DriverName())

	notifier, err := service.NewNotificationService(ctx, service.NotificationSettings{
		AWSRegion:  cfg.AWSRegion,
		FromEmail:  cfg.SESFromEmail,
		FromName:   cfg.SESFromName,
		AppBaseURL: cfg.AppBaseURL,
		Debug:      cfg.EmailDebug,
	})
	if err != nil {
		logger.Warn("Notifications disabled", "error", err)
		notifier = nil
	}

	secret := cfg.JWTSecret
	if secret == "" {
		// development only, Validate rejects this elsewhere
		secret = uuid.NewString()
		logger.Warn("JWT_SECRET not set, tokens will not survive a restart")
	}

	limiter := security.NewRateLimiter(cfg.RateLimit, time.Minute)
	words := service.NewWordService(db)
	handler := handlers.NewRouter(handlers.Services{
		DB:            db,
		Auth:          service.NewAuthService(repository.NewUserRepository(db), security.NewTokenService(secret, cfg.TokenTTL)),
		Classrooms:    service.NewClassroomService(db, cfg.DefaultMaxStudents),
		Enrollment:    service.NewEnrollmentService(db, notifier),
		Relationships: service.NewRelationshipService(db, notifier),
		Words:         words,
		Progress:      service.NewProgressService(db),
		Limiter:       limiter,
		UploadMaxSize: cfg.UploadMaxSize,
	})

	runCtx, stop := context.WithCancel(context.Background())
	return &Runtime{
		Config: cfg,
		DB:     db,
		Server: &http.Server{
			Addr:         ":" + cfg.ServerPort,
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		limiter: limiter,
		ctx:     runCtx,
		stop:    stop,
	}, nil
}

// Serve listens until Shutdown is called. It returns nil after a clean shutdown.
func (rt *Runtime) Serve() error {
	go rt.limiter.Run(rt.ctx, time.Minute)

	logger.Info("Server starting", "addr", rt.Server.Addr)
	if err := rt.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		rt.stop()
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and closes the database. Later calls are no-ops.
func (rt *Runtime) Shutdown(ctx context.Context) error {
	var err error
	rt.closed.Do(func() {
		logger.Info("Server shutting down")
		rt.stop()
		err = errors.Join(rt.Server.Shutdown(ctx), rt.DB.Close())
	})
	return err
}
