// Package app wires the taskward server runtime: config, logging, metrics,
// stores, HTTP routes, and the realtime gateway.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"taskward/cmd/identity"
	"taskward/cmd/internal/auth"
	authapi "taskward/cmd/internal/auth/api"
	"taskward/cmd/internal/auth/session"
	"taskward/cmd/internal/realtime"
	"taskward/cmd/security/password"
	"taskward/cmd/security/token"
)

// App is the taskward server runtime: it owns the HTTP server wiring and the
// lifecycle of its backing connections.
type App struct {
	cfg     Config
	log     Logger
	metrics *Metrics

	dbPool *pgxpool.Pool
	rdb    *redis.Client

	auth *authapi.Handler
	ws   *realtime.Gateway
}

// New constructs a fully wired App instance from config and logger.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel)
	}
	if err := ValidateSecurityConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("app: TASKWARD_DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("app: TASKWARD_REDIS_URL is required")
	}

	metrics := NewMetrics()

	dbPool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info("db.connected")

	rdb, err := NewRedisClient(ctx, cfg)
	if err != nil {
		dbPool.Close()
		return nil, err
	}
	log.Info("redis.connected")

	hasher, err := password.FromEnv()
	if err != nil {
		dbPool.Close()
		_ = rdb.Close()
		return nil, err
	}

	tokens, err := token.NewCodec(cfg.JWTSecret, cfg.AccessTTL)
	if err != nil {
		dbPool.Close()
		_ = rdb.Close()
		return nil, err
	}

	users, err := identity.NewPostgresStore(dbPool)
	if err != nil {
		dbPool.Close()
		_ = rdb.Close()
		return nil, err
	}

	sessCfg := session.DefaultConfig()
	sessCfg.RefreshTTL = cfg.RefreshTTL
	sessCfg.MaxSessions = cfg.MaxSessions
	sessions, err := session.NewRedisStore(rdb, sessCfg, hasher, cfg.RefreshTokenSalt)
	if err != nil {
		dbPool.Close()
		_ = rdb.Close()
		return nil, err
	}

	svc, err := auth.NewService(log, auth.Config{
		PasswordSalt: cfg.PasswordSalt,
		RefreshSalt:  cfg.RefreshTokenSalt,
		RefreshTTL:   cfg.RefreshTTL,
	}, users, sessions, tokens, hasher)
	if err != nil {
		dbPool.Close()
		_ = rdb.Close()
		return nil, err
	}

	authHandler, err := authapi.NewHandler(log, authapi.LoadConfigFromEnv(), svc, tokens,
		authapi.WithOutcomeCounter(metrics.AuthOutcomes))
	if err != nil {
		dbPool.Close()
		_ = rdb.Close()
		return nil, err
	}

	ws := realtime.NewGateway(log, realtime.NewChannel(log), realtime.LoadGatewayConfigFromEnv(),
		realtime.WithConnectionsGauge(metrics.WSConnections))

	return &App{
		cfg:     cfg,
		log:     log,
		metrics: metrics,
		dbPool:  dbPool,
		rdb:     rdb,
		auth:    authHandler,
		ws:      ws,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal
// server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.dbPool, a.rdb, a.auth, a.ws, a.metrics)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           WithRequestLogging(mux, a.log, a.metrics),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	a.Close()
	a.log.Info("server.stopped")
	return nil
}

// Close releases the backing connections.
func (a *App) Close() {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.log.Error("redis.close.fail", "err", err)
		}
	}
	if a.dbPool != nil {
		a.dbPool.Close()
	}
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
