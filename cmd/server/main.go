package main

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"gorm.io/gorm"

	"taskmanager/docs"
	"taskmanager/internal/auth"
	"taskmanager/internal/cache"
	"taskmanager/internal/config"
	"taskmanager/internal/db"
	"taskmanager/internal/handler"
	"taskmanager/internal/logging"
	"taskmanager/internal/middleware"
	"taskmanager/internal/repository"
	"taskmanager/internal/router"
	"taskmanager/internal/service"
	"taskmanager/internal/storage"
)

// @title Task Manager API
// @version 1.0
// @description Multi-user task tracker with cookie sessions, profiles and task CRUD.
// @host localhost:3289
// @BasePath /api
// @schemes http
func main() {
	fx.New(
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger}
		}),
		injectInfra(),
		injectAuth(),
		injectServices(),
		injectHTTP(),
		fx.Invoke(
			router.Register,
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		context.Background,
		config.Load,
		logging.New,
		newDatabase,
		newCache,
		newObjectStore,
		repository.NewUserRepository,
		repository.NewTaskRepository,
	)
}

func injectAuth() fx.Option {
	return fx.Provide(
		func(cfg *config.Config) *auth.SessionIssuer {
			return auth.NewSessionIssuer(cfg.Session.Secret, cfg.Session.TTL)
		},
		func(cfg *config.Config) auth.PasswordHasher {
			return auth.NewBcryptHasher(cfg.Auth.BcryptCost)
		},
		func(cfg *config.Config) *auth.Cookies {
			return auth.NewCookies(cfg.Session)
		},
		fx.Annotate(auth.NewTokenStore, fx.As(new(auth.RevocationStore))),
	)
}

func injectServices() fx.Option {
	return fx.Provide(
		service.NewAuthService,
		service.NewTaskService,
		func(
			cfg *config.Config,
			users repository.UserRepository,
			hasher auth.PasswordHasher,
			store storage.ObjectStore,
			cacheClient *cache.Client,
			logger *slog.Logger,
		) service.ProfileService {
			return service.NewProfileService(users, hasher, store, cacheClient, cfg.Storage.MaxUploadBytes, logger)
		},
	)
}

func injectHTTP() fx.Option {
	return fx.Provide(
		echo.New,
		func(issuer *auth.SessionIssuer, revocations auth.RevocationStore, cookies *auth.Cookies) *middleware.SessionGate {
			return middleware.NewSessionGate(issuer, revocations, cookies.Name())
		},
		handler.NewAuthHandler,
		handler.NewTaskHandler,
		func(
			cfg *config.Config,
			profiles service.ProfileService,
			auths service.AuthService,
			cookies *auth.Cookies,
		) *handler.ProfileHandler {
			return handler.NewProfileHandler(profiles, auths, cookies, cfg.Storage.MaxUploadBytes)
		},
		handler.NewUploadHandler,
	)
}

func newDatabase(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (*gorm.DB, error) {
	gormDB, err := db.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return db.Migrate(ctx, gormDB, cfg.Database.Driver)
		},
		OnStop: func(context.Context) error {
			return db.Close(gormDB)
		},
	})
	return gormDB, nil
}

func newCache(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) *cache.Client {
	client := cache.New(cfg, logger)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx); err != nil {
				logger.Warn("redis unreachable, continuing without cache", "error", err)
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client
}

func newObjectStore(ctx context.Context, lc fx.Lifecycle, cfg *config.Config) (storage.ObjectStore, error) {
	store, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(store.Close))
	return store, nil
}

func startServer(lc fx.Lifecycle, e *echo.Echo, cfg *config.Config, logger *slog.Logger) {
	if cfg.Swagger.Host != "" {
		docs.SwaggerInfo.Host = cfg.Swagger.Host
	}
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	addr := net.JoinHostPort("", cfg.Server.Port)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info("starting HTTP server", "addr", addr, "swagger", cfg.Swagger.Enabled)
			go func() {
				if err := e.Start(addr); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
					logger.Error("http server stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
			defer cancel()
			logger.Info("shutting down HTTP server")
			return e.Shutdown(shutdownCtx)
		},
	})
}
