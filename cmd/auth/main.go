package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/impulso-galeria/auth-service/internal/authz"
	"github.com/impulso-galeria/auth-service/internal/cart"
	"github.com/impulso-galeria/auth-service/internal/config"
	httptransport "github.com/impulso-galeria/auth-service/internal/http"
	"github.com/impulso-galeria/auth-service/internal/http/handler"
	httpmiddleware "github.com/impulso-galeria/auth-service/internal/http/middleware"
	"github.com/impulso-galeria/auth-service/internal/oauth"
	"github.com/impulso-galeria/auth-service/internal/repository"
	"github.com/impulso-galeria/auth-service/internal/server"
	"github.com/impulso-galeria/auth-service/internal/session"
	"github.com/impulso-galeria/auth-service/internal/telemetry"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newPGXPool,
			newUserRepository,
			newRBACRepository,
			newProviderClient,
			newCartProvisioner,
			newSessionResolver,
			newGate,
			newRateLimiter,
			handler.NewAuthHandler,
			newAdminHandler,
			newAuthMiddleware,
			httptransport.NewRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(useTelemetry, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newPGXPool(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})

	return pool, nil
}

func newUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return repository.NewPostgresUserRepo(pool)
}

func newRBACRepository(pool *pgxpool.Pool) repository.RBACRepository {
	return repository.NewPostgresRBACRepo(pool)
}

func newProviderClient(cfg config.Config, logger *zap.Logger) oauth.ProviderClient {
	return oauth.NewHTTPClient(cfg, logger)
}

func newCartProvisioner(cfg config.Config, logger *zap.Logger) session.CartProvisioner {
	return cart.NewProvisioner(cfg, logger)
}

func newSessionResolver(provider oauth.ProviderClient, users repository.UserRepository, rbac repository.RBACRepository, provisioner session.CartProvisioner, logger *zap.Logger) *session.Resolver {
	return session.NewResolver(provider, users, rbac, provisioner, logger)
}

func newGate(resolver *session.Resolver) *authz.Gate {
	return authz.NewGate(resolver)
}

func newRateLimiter(cfg config.Config) *httpmiddleware.RateLimiter {
	return httpmiddleware.NewRateLimiter(cfg.RateLimitRPM)
}

func newAdminHandler(users repository.UserRepository, rbac repository.RBACRepository, logger *zap.Logger) *handler.AdminHandler {
	return handler.NewAdminHandler(users, rbac, logger)
}

func newAuthMiddleware(gate *authz.Gate, logger *zap.Logger) *httpmiddleware.Auth {
	return &httpmiddleware.Auth{Gate: gate, Logger: logger}
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.HTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}
