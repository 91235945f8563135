package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"anan/internal/config"
	"anan/internal/domain/repositories"
	"anan/internal/handler"
	"anan/internal/middleware"
	"anan/internal/repository/memory"
	"anan/internal/repository/postgres"
	"anan/internal/service/llm/deepseek"
	"anan/internal/service/tutor"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" || cfg.Debug {
		logLevel = slog.LevelDebug
	}

	var logOut io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, 10)
		if err != nil {
			log.Fatalf("Failed to setup log file: %v", err)
		}
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"version", config.Version,
		"environment", cfg.Environment,
		"port", cfg.Port,
	)

	// A missing credential is not a startup failure: the completion client
	// short-circuits to its unconfigured message instead
	if cfg.DeepSeekAPIKey == "" {
		logger.Warn("DEEPSEEK_API_KEY not set; completions will report the unconfigured message")
	}

	// Load the tutor persona (built-in defaults plus optional YAML file)
	persona, err := config.LoadPersona(cfg.PersonaFile)
	if err != nil {
		log.Fatalf("Failed to load persona: %v", err)
	}

	sessionTTL := time.Duration(cfg.SessionTTLHours) * time.Hour

	// Conversation store: PostgreSQL when DATABASE_URL is set, otherwise
	// in-process memory scoped to the session TTL
	var conversationRepo repositories.ConversationRepository
	if cfg.DatabaseURL != "" {
		ctx := context.Background()
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to create connection pool: %v", err)
		}
		defer pool.Close()

		repoConfig := &postgres.RepositoryConfig{
			Pool:   pool,
			Tables: postgres.NewTableNames(cfg.TablePrefix),
			Logger: logger,
		}
		conversationRepo = postgres.NewConversationRepository(repoConfig, persona.Greeting, persona.ResetMessage)
		logger.Info("database connected", "table_prefix", cfg.TablePrefix)
	} else {
		conversationRepo = memory.NewConversationRepository(persona.Greeting, persona.ResetMessage, sessionTTL, logger)
		logger.Info("using in-memory conversation store", "ttl", sessionTTL)
	}

	// Completion client
	completionClient := deepseek.NewClient(deepseek.Config{
		BaseURL:   cfg.DeepSeekAPIURL,
		APIKey:    cfg.DeepSeekAPIKey,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
	}, logger)

	// Session controller
	tutorService := tutor.NewTutorService(conversationRepo, completionClient, persona, logger)

	// Handlers
	chatHandler := handler.NewChatHandler(tutorService, logger)
	healthHandler := handler.NewHealthHandler()

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Liveness probes
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /healthz", healthHandler.Healthz)
	mux.HandleFunc("GET /favicon.ico", healthHandler.Favicon)

	// Conversation routes
	mux.HandleFunc("POST /api/messages", chatHandler.SubmitMessage)
	mux.HandleFunc("GET /api/history", chatHandler.GetHistory)
	mux.HandleFunc("POST /api/clear", chatHandler.ClearConversation)
	mux.HandleFunc("POST /api/trim", chatHandler.TrimConversation)

	// Build middleware chain
	var httpHandler http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS -> Recovery -> Session -> Routes
	sessions := middleware.NewSessionManager(cfg.SessionSecret, sessionTTL, logger)
	httpHandler = sessions.Middleware()(httpHandler)
	httpHandler = middleware.Recovery(logger)(httpHandler)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
	})
	httpHandler = corsHandler.Handler(httpHandler)

	// Create HTTP server. Write timeout covers the worst case completion
	// call: 3 attempts x 30s plus backoff.
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 100 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
