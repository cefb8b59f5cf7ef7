package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aussieguide-backend/cmd"
	"aussieguide-backend/internal/api"
	"aussieguide-backend/internal/auth"
	"aussieguide-backend/internal/chat"
	"aussieguide-backend/internal/config"
	"aussieguide-backend/internal/database"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type APIConfig struct {
	DBConfigPath  string `env:"DB_CONFIG" envDefault:"db.yaml"`
	OpenAIAPIKey  string `env:"OPENAI_API_KEY,notEmpty,required"`
	JWTSecret     string `env:"JWT_SECRET,notEmpty,required"`
	ChatModel     string `env:"CHAT_MODEL" envDefault:"gpt-4o"`
	HistoryFile   string `env:"HISTORY_FILE" envDefault:"conversation_history.json"`
	TokenTTLHours int    `env:"TOKEN_TTL_HOURS" envDefault:"24"`
	APIPort       string `env:"API_PORT" envDefault:"8000"`
}

func main() {
	log.Println("Starting API Server...")

	cmd.LoadEnvFile()

	var cfg APIConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	databaseURL, err := config.LoadDatabaseURL(cfg.DBConfigPath)
	if err != nil {
		log.Fatalf("Failed to load database config: %v", err)
	}

	db, err := database.NewDatabase(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	history := chat.NewConversationManager(cfg.HistoryFile)

	bot, err := chat.NewBot(cfg.OpenAIAPIKey, cfg.ChatModel, db, history)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)

	// --- Chi Router Setup ---
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)                    // Log requests
	r.Use(middleware.Recoverer)                 // Recover from panics
	r.Use(middleware.Timeout(60 * time.Second)) // Set request timeout
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	// API Handlers (dependency injection)
	api.NewAuthService(db, tokens).AddRoutes(r)
	api.NewChatService(db, bot, tokens).AddRoutes(r)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: r,
	}

	// Goroutine for graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	log.Printf("API server listening on port %s", cfg.APIPort)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %s: %v\n", cfg.APIPort, err)
	}

	log.Println("Server stopped.")
}
