// @title                       Meetup API
// @version                     1.0
// @description                 Accounts, credentials, comments and the learning catalog of the meetup social platform.
// @BasePath                    /api
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

	_ "github.com/meetup-social/meetup-api/docs"
	"github.com/meetup-social/meetup-api/internal/api"
	"github.com/meetup-social/meetup-api/internal/api/handler"
	"github.com/meetup-social/meetup-api/internal/core/domain"
	"github.com/meetup-social/meetup-api/internal/core/ports"
	"github.com/meetup-social/meetup-api/internal/core/service"
	mongodb "github.com/meetup-social/meetup-api/internal/infrastructure/db/mongo"
	redisdb "github.com/meetup-social/meetup-api/internal/infrastructure/db/redis"
	"github.com/meetup-social/meetup-api/internal/infrastructure/http/handlers"
	"github.com/meetup-social/meetup-api/internal/infrastructure/mail"
	"github.com/meetup-social/meetup-api/internal/infrastructure/queue"
	"github.com/meetup-social/meetup-api/internal/infrastructure/storage"
	"github.com/meetup-social/meetup-api/internal/pkg/config"
	"github.com/meetup-social/meetup-api/internal/pkg/security"
	"github.com/meetup-social/meetup-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.Production(),
		Service: "meetup-api",
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect failed")
		}
	}()

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer rdb.Close()

	var pictures ports.PictureStore
	if cfg.Storage.Bucket != "" {
		store, err := storage.NewS3Store(ctx, storage.Config{
			Endpoint:  cfg.Storage.Endpoint,
			Region:    cfg.Storage.Region,
			Bucket:    cfg.Storage.Bucket,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			PublicURL: cfg.Storage.PublicURL,
		})
		if err != nil {
			return fmt.Errorf("init picture storage: %w", err)
		}
		pictures = store
	} else {
		log.Warn().Msg("S3_BUCKET not set, comment pictures are disabled")
	}

	// --- Credentials ---
	keys := cfg.Keys()
	hasher := security.NewPasswordHasher(cfg.Auth.BcryptCost)
	sessions := security.NewSessionIssuer(keys.TokenSecret)
	mailer := mail.NewSMTPDispatcher(mail.Config{
		Host:     cfg.Mail.SMTPHost,
		Port:     cfg.Mail.SMTPPort,
		User:     cfg.Mail.SMTPUser,
		Password: cfg.Mail.SMTPPassword,
	}, log)
	codeOpts := service.CodeOptions{
		From:            cfg.Mail.From,
		TTL:             cfg.Auth.CodeTTL,
		DispatchTimeout: cfg.Mail.DispatchTimeout,
	}

	// --- Repositories & services ---
	users := mongodb.NewUserRepository(db)
	posts := mongodb.NewPostRepository(db)

	dispatcher := queue.NewDispatcher(cfg.Workers.FollowUps, service.NewFollowUpService(posts, users), log)
	dispatcher.Start()

	deps := api.Dependencies{
		Auth:          service.NewAuthService(users, hasher, sessions, log),
		Verification:  service.NewVerificationService(users, mailer, keys.VerificationCodeSecret, codeOpts, log),
		PasswordReset: service.NewPasswordResetService(users, mailer, hasher, keys.ForgotPasswordCodeSecret, codeOpts, log),
		Comments:      service.NewCommentService(mongodb.NewCommentRepository(db), posts, pictures, dispatcher, log),
		Books:         service.NewCatalogService(domain.KindBook, mongodb.NewBookRepository(db), log),
		Playlists:     service.NewCatalogService(domain.KindPlaylist, mongodb.NewPlaylistRepository(db), log),
		Users:         service.NewUserService(users, dispatcher, log),
		Tokens:        sessions,
		Idempotency:   redisdb.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL),
		HealthChecks: map[string]handlers.Check{
			"mongodb": handlers.MongoCheck(db),
			"redis":   handlers.RedisCheck(rdb),
		},
		Cookie: handler.CookieOptions{
			TTL:    cfg.Auth.SessionCookieTTL,
			Secure: cfg.Production(),
		},
		Log: log,
	}
	e := api.NewRouter(deps)

	// --- Serve ---
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("follow-up queue did not drain")
	}

	log.Info().Msg("server stopped gracefully")
	return nil
}
