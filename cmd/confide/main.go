package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	webapi "github.com/confide-dev/confide/api/echo"
	"github.com/confide-dev/confide/cache"
	redisstore "github.com/confide-dev/confide/cache/redis"
	"github.com/confide-dev/confide/config"
	"github.com/confide-dev/confide/domain"
	"github.com/confide-dev/confide/internal/auth"
	"github.com/confide-dev/confide/internal/federation"
	"github.com/confide-dev/confide/internal/server"
	"github.com/confide-dev/confide/mongodb"
	"github.com/confide-dev/confide/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	initLogger(cfg)
	log.Info().
		Str("http_port", cfg.HTTPPort).
		Str("mongo_db_name", cfg.MongoDBName).
		Str("session_store", cfg.SessionStore).
		Msg("Starting confide server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := mongodb.InitMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize MongoDB connection")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		mongodb.CloseMongoDB(shutdownCtx)
	}()
	db := mongodb.GetDB()

	userRepo, err := mongodb.NewUserRepository(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize UserRepository")
	}

	sessionStore, err := newSessionStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize session store")
	}

	sessions := services.NewSessionService(sessionStore, services.SessionConfig{TTL: cfg.SessionTTL()})
	hasher := auth.NewBcryptPasswordHasher(cfg.BcryptCost)
	authService := services.NewAuthService(userRepo, hasher, sessions)

	googleProvider, err := federation.NewGoogleProvider(federation.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		Scopes:       []string{"profile"},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Google provider (set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET)")
	}
	federationService := services.NewFederationService(googleProvider, userRepo, sessions, cfg.GoogleRedirectURL)

	api := webapi.NewWebAPI(authService, federationService, sessions, userRepo, webapi.WebAPIConfig{
		CookieName:    cfg.SessionCookieName,
		SecureCookies: strings.HasPrefix(cfg.BaseURL, "https://"),
		Health:        mongodb.Ping,
	})

	srv := server.NewHTTPServer(cfg, api)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
}

func initLogger(cfg *config.ServerConfig) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
}

func newSessionStore(ctx context.Context, cfg *config.ServerConfig) (domain.SessionStore, error) {
	switch cfg.SessionStore {
	case "redis":
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, err
		}
		return redisstore.NewSessionStore(client, cfg.RedisPrefix), nil
	case "memory":
		log.Warn().Msg("Using in-memory session store; sessions will not survive a restart")
		return cache.NewMemorySessionStore(), nil
	default:
		return mongodb.NewSessionStore(ctx, mongodb.GetDB())
	}
}
