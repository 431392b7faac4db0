package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/makwansoran/gomercant/internal/config"
	"github.com/makwansoran/gomercant/internal/database"
	"github.com/makwansoran/gomercant/internal/directory"
	postgresrepo "github.com/makwansoran/gomercant/internal/repository/postgres"
	"github.com/makwansoran/gomercant/internal/service"
	"github.com/makwansoran/gomercant/internal/transport/http/handlers"
	"github.com/makwansoran/gomercant/internal/transport/http/middleware"
)

func main() {
	cfg := config.Load()

	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	// Database
	pool, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Directory cache (optional)
	var cache directory.Cache
	if cfg.RedisURL != "" {
		redisCache, err := directory.NewRedisCache(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisCache.Close()
		cache = redisCache
		logger.Info().Msg("connected to redis")
	}

	// Repositories
	userRepo := postgresrepo.NewUserRepo(pool)
	conversationRepo := postgresrepo.NewConversationRepo(pool)
	messageRepo := postgresrepo.NewMessageRepo(pool)

	// Services
	resolver := directory.NewResolver(userRepo, cache, logger)
	authService := service.NewAuthService(userRepo, cfg.JWTSecret)
	messagingService := service.NewMessagingService(conversationRepo, messageRepo, resolver)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, logger)
	messagingHandler := handlers.NewMessagingHandler(messagingService, logger)

	// Auth middleware
	auth := middleware.Auth(cfg.JWTSecret)

	// Routes
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	// Protected - Direct messages
	mux.Handle("GET /api/v1/dms", auth(http.HandlerFunc(messagingHandler.ListConversations)))
	mux.Handle("POST /api/v1/dms", auth(http.HandlerFunc(messagingHandler.OpenConversation)))
	mux.Handle("GET /api/v1/dms/{id}/messages", auth(http.HandlerFunc(messagingHandler.ListMessages)))
	mux.Handle("POST /api/v1/dms/{id}/messages", auth(http.HandlerFunc(messagingHandler.SendMessage)))

	handler := middleware.CORS(middleware.RequestLogger(logger)(mux))

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	logger.Info().Str("addr", addr).Msg("starting server")
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
