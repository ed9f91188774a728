// @title        Marketplace Account API
// @version      1.0
// @description  Registration, login, profile, vendor upgrade and token refresh.
// @BasePath     /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/femmie/marketplace/internal/api"
	"github.com/femmie/marketplace/internal/api/handler"
	"github.com/femmie/marketplace/internal/core/ports"
	"github.com/femmie/marketplace/internal/core/service"
	"github.com/femmie/marketplace/internal/infrastructure/config"
	mongostore "github.com/femmie/marketplace/internal/infrastructure/db/mongo"
	pgstore "github.com/femmie/marketplace/internal/infrastructure/db/postgres"
	redislock "github.com/femmie/marketplace/internal/infrastructure/db/redis"
	"github.com/femmie/marketplace/internal/infrastructure/security"
	"github.com/femmie/marketplace/internal/infrastructure/token"
	"github.com/femmie/marketplace/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "marketplace: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "marketplace",
		Env:     cfg.Env,
	})

	checks := map[string]handler.Check{}

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()
	checks["store"] = store.Ping

	var upgradeLock ports.UpgradeLocker
	switch lock, err := redislock.Open(ctx, redislock.Config{
		Addr:    cfg.Redis.Addr,
		DB:      cfg.Redis.DB,
		LockTTL: cfg.Redis.LockTTL,
	}); {
	case errors.Is(err, redislock.ErrDisabled):
		log.Info().Msg("REDIS_ADDR not set, upgrades serialised by the store only")
	case err != nil:
		log.Warn().Err(err).Msg("redis unavailable, upgrades serialised by the store only")
	default:
		defer func() { _ = lock.Close() }()
		upgradeLock = lock
		checks["redis"] = lock.Ping
		log.Info().Str("addr", cfg.Redis.Addr).Msg("upgrade lock enabled")
	}

	tokens := token.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	accounts := service.NewAccountService(
		store,
		tokens,
		security.NewBcryptHasher(cfg.BcryptCost),
		upgradeLock,
		service.AccountOptions{CaseInsensitiveEmail: cfg.EmailCaseInsensitive},
		logger.Component("account_service"),
	)

	e := api.NewRouter(api.Deps{
		Accounts: accounts,
		Tokens:   tokens,
		Users:    store,
		Health:   handler.NewHealthHandler(checks),
		Log:      logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// openStore connects the configured credential store and prepares its schema.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.CredentialStore, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := pgstore.Connect(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Msg("postgres connected, migrations applied")
		return pgstore.NewCredentialStore(pool), pool.Close, nil

	default:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, nil, err
		}
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongo connected")
		return mongostore.NewCredentialStore(db), func() { _ = client.Disconnect(context.Background()) }, nil
	}
}
