// @title                      Field Reports API
// @version                    1.0
// @description                Email/password authentication, signed bearer tokens and role-based access to field reports.
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	_ "github.com/fieldreports/reports-api/docs"
	"github.com/fieldreports/reports-api/internal/api"
	"github.com/fieldreports/reports-api/internal/api/handler"
	"github.com/fieldreports/reports-api/internal/core/policy"
	"github.com/fieldreports/reports-api/internal/core/ports"
	"github.com/fieldreports/reports-api/internal/core/service"
	"github.com/fieldreports/reports-api/internal/infrastructure/db/memory"
	"github.com/fieldreports/reports-api/internal/infrastructure/db/mongo"
	"github.com/fieldreports/reports-api/internal/infrastructure/db/postgres"
	"github.com/fieldreports/reports-api/internal/infrastructure/db/redis"
	"github.com/fieldreports/reports-api/internal/infrastructure/queue"
	"github.com/fieldreports/reports-api/internal/infrastructure/security"
	"github.com/fieldreports/reports-api/internal/pkg/config"
	"github.com/fieldreports/reports-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is fine outside local development.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "reports-api",
	})

	// --- Storage ---
	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "reports-api",
	})
	if err != nil {
		return err
	}
	defer func() { _ = mongo.Disconnect(mongoClient) }()

	rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	readiness := map[string]handler.PingFunc{
		"mongodb": func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
		"redis":   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}

	directory, closeDirectory, err := openDirectory(ctx, cfg, db, readiness, log)
	if err != nil {
		return err
	}
	defer closeDirectory()

	reportRepo := mongo.NewReportRepository(db)
	if err := reportRepo.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to ensure report indexes")
	}

	// --- Security ---
	key, err := signingKey(cfg.JWT)
	if err != nil {
		return err
	}
	codec, err := security.NewJWTCodec(key, security.TokenConfig{
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.TTL,
		Leeway: cfg.JWT.Leeway,
	}, logger.Component("token"))
	if err != nil {
		return err
	}
	verifier := security.NewBcryptVerifier(cfg.Auth.BcryptCost)

	// --- Services ---
	authService, err := service.NewAuthService(directory, verifier, codec, logger.Component("auth"))
	if err != nil {
		return err
	}
	accessService := service.NewAccessService(codec, directory,
		service.AccessOptions{TrustTokenClaims: cfg.Auth.TrustTokenClaims}, logger.Component("access"))
	reportService := service.NewReportService(reportRepo, logger.Component("reports"))
	userService := service.NewUserService(directory, logger.Component("users"))
	if email := cfg.Auth.BootstrapAdminEmail; email != "" {
		if _, err := userService.EnsureAdmin(ctx, email); err != nil {
			log.Warn().Err(err).Msg("could not promote bootstrap admin")
		}
	}

	auditService := service.NewAuditService(mongo.NewAuditRepository(db), logger.Component("audit"))
	dispatcher := queue.NewDispatcher(cfg.AuditWorkers, auditService, logger.Component("audit"))
	dispatcher.Start(ctx)

	table := policy.Default()
	for _, op := range table.Unreachable() {
		log.Warn().Str("operation", string(op)).Msg("policy leaves operation unreachable")
	}

	e := api.NewRouter(api.Dependencies{
		Log:       log,
		Auth:      authService,
		Access:    accessService,
		Reports:   reportService,
		Users:     userService,
		Policy:    table,
		Audit:     dispatcher,
		Limiter:   redis.NewLoginLimiter(rdb, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginAttemptWindow),
		Readiness: readiness,
	})

	log.Info().
		Str("port", cfg.Port).
		Str("directory", cfg.DirectoryBackend).
		Str("alg", key.Algorithm()).
		Bool("trust_token_claims", cfg.Auth.TrustTokenClaims).
		Msg("starting reports api")

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// openDirectory builds the principal directory selected by DIRECTORY_BACKEND.
func openDirectory(
	ctx context.Context,
	cfg *config.Config,
	db *mongodriver.Database,
	readiness map[string]handler.PingFunc,
	log zerolog.Logger,
) (ports.PrincipalDirectory, func(), error) {
	noop := func() {}
	switch cfg.DirectoryBackend {
	case "postgres":
		pg, err := postgres.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, noop, err
		}
		readiness["postgres"] = pg.Ping
		return pg, pg.Close, nil
	case "memory":
		log.Warn().Msg("using in-memory principal directory, accounts are lost on restart")
		return memory.NewPrincipalDirectory(), noop, nil
	default:
		dir := mongo.NewPrincipalDirectory(db)
		if err := dir.EnsureIndexes(ctx); err != nil {
			return nil, noop, fmt.Errorf("principal indexes: %w", err)
		}
		return dir, noop, nil
	}
}

func signingKey(cfg config.JWTConfig) (security.SigningKey, error) {
	if strings.EqualFold(cfg.SigningAlg, "EdDSA") {
		return security.NewEd25519Key(cfg.Ed25519Key)
	}
	return security.NewHMACKey([]byte(cfg.Secret))
}
