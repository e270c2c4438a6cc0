package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/identity-service/internal/api/http"
	"github.com/spec-kit/identity-service/internal/api/http/handlers"
	"github.com/spec-kit/identity-service/internal/auth"
	"github.com/spec-kit/identity-service/internal/authz"
	"github.com/spec-kit/identity-service/internal/config"
	"github.com/spec-kit/identity-service/internal/events"
	"github.com/spec-kit/identity-service/internal/observability"
	"github.com/spec-kit/identity-service/internal/persistence"
	"github.com/spec-kit/identity-service/internal/registry"
	"github.com/spec-kit/identity-service/internal/repository"
	"github.com/spec-kit/identity-service/internal/service"
	"github.com/spec-kit/identity-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Name)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	identity, err := config.LoadIdentity(cfg.Auth.IdentityFile)
	if err != nil {
		logger.Fatal("failed to load identity config", zap.Error(err))
	}

	clients, err := registry.NewClientRegistry(identity.DomainClients())
	if err != nil {
		logger.Fatal("invalid client configuration", zap.Error(err))
	}
	scopes, err := registry.NewScopeRegistry(identity.DomainScopes())
	if err != nil {
		logger.Fatal("invalid scope configuration", zap.Error(err))
	}

	policies, err := authz.NewPolicyRegistry()
	if err != nil {
		logger.Fatal("failed to init policy registry", zap.Error(err))
	}
	for _, p := range identity.Policies {
		if err := policies.RegisterExpression(p.Name, p.Expression); err != nil {
			logger.Fatal("invalid policy", zap.String("policy", p.Name), zap.Error(err))
		}
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	hash := func(plain string) (string, error) { return auth.HashPassword(plain, cfg.Auth.BcryptCost) }
	users, err := buildUserStore(ctx, cfg, pg, identity, hash, logger)
	if err != nil {
		logger.Fatal("failed to init identity store", zap.Error(err))
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()
	revocations := persistence.NewRevocationStore(redis.Client, redis.KeyPrefix)

	metrics := observability.NewMetrics("identity")
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	tokenService := service.NewTokenService(service.TokenDependencies{
		Clients:     clients,
		Scopes:      scopes,
		Signer:      tokens,
		Parser:      tokens,
		Secrets:     service.BcryptSecretVerifier{},
		Owners:      service.NewPasswordValidator(users),
		Claims:      service.ProfileClaimResolver{},
		Users:       users,
		Revocations: revocations,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout(), cfg.App.Name)

	err = httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Token:          handlers.NewTokenHandler(tokenService, logger),
		UserInfo:       handlers.NewUserInfoHandler(tokenService),
		Values:         handlers.NewValuesHandler(),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, revocations, logger),
		Guard:          auth.NewGuard(authz.NewEvaluator(policies), dispatcher, metrics, logger, nil),
		Metrics:        metrics.Handler(),
	})
	if err != nil {
		logger.Fatal("failed to register routes", zap.Error(err))
	}

	logger.Info("identity configuration loaded",
		zap.Int("clients", clients.Len()),
		zap.Int("scopes", len(scopes.AllScopes())),
		zap.Int("policies", len(identity.Policies)),
	)

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Warn("fiber shutdown", zap.Error(err))
	}
}

// buildUserStore returns the postgres store when a DSN is configured, otherwise the
// users from the identity configuration held in memory.
func buildUserStore(
	ctx context.Context,
	cfg *config.Config,
	pg *persistence.Postgres,
	identity *config.IdentityConfig,
	hash func(string) (string, error),
	logger *zap.Logger,
) (repository.UserRepository, error) {
	if !pg.Enabled() {
		users, err := identity.DomainUsers(hash)
		if err != nil {
			return nil, err
		}
		logger.Info("using in-memory identity store", zap.Int("users", len(users)))
		return repository.NewMemoryUserRepository(users)
	}

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.DefaultMigrationsDir, logger); err != nil {
			return nil, err
		}
	}

	store := repository.NewUserRepository(pg.PoolHandle())
	if cfg.Postgres.SeedUsers {
		users, err := identity.DomainUsers(hash)
		if err != nil {
			return nil, err
		}
		if err := repository.SeedUsers(ctx, store, users); err != nil {
			return nil, err
		}
		logger.Info("seeded users", zap.Int("count", len(users)))
	}
	return store, nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
