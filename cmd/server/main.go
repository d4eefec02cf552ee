package main

import (
	"context"
	"errors"
	"finai-backend/internal/api"
	"finai-backend/internal/checklist"
	"finai-backend/internal/config"
	"finai-backend/internal/crypto"
	"finai-backend/internal/handlers"
	"finai-backend/internal/llm"
	"finai-backend/internal/services"
	"finai-backend/internal/store"
	"finai-backend/internal/store/memory"
	"finai-backend/internal/store/postgres"
	"finai-backend/internal/store/sqlite"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	log.Println("Starting FinAI Backend...")

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	// 2. Initialize the Store
	st, err := openStore(cfg.Store)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	defer st.Close()

	// --- Optional sealing of stored financial profiles ---
	var sealer *crypto.Sealer
	if cfg.ProfileEncryptionKey != nil {
		sealer, err = crypto.NewSealer(cfg.ProfileEncryptionKey)
		if err != nil {
			log.Fatalf("FATAL: Failed to create profile sealer: %v", err)
		}
		log.Println("AES-GCM profile sealer initialized.")
	} else {
		log.Println("WARN: PROFILE_ENCRYPTION_KEY not set, financial profiles are stored in clear.")
	}

	// 3. Initialize the Model Provider
	// A missing provider does not stop the server: /chat answers 503 until it is configured.
	var provider llm.Provider
	modelCtx, modelCancel := context.WithTimeout(context.Background(), 10*time.Second)
	eino, err := llm.DefaultRegistry().Build(modelCtx, cfg.LLM)
	modelCancel()
	if err != nil {
		log.Printf("WARN: Chat model unavailable, /chat will answer 503: %v", err)
	} else {
		provider = eino
	}

	// 4. Initialize Services
	resolver := services.NewLatestSessionResolver(st, cfg.Chat)
	authService := services.NewAuthService(st, cfg)
	log.Println("AuthService initialized.")
	chatService := services.NewChatService(provider, resolver, st, services.ComposeDirective(cfg.Advisor), cfg.Chat)
	log.Println("ChatService initialized.")
	historyFormatter := services.NewHistoryFormatter(st, resolver)
	profileService := services.NewProfileService(st, sealer)
	log.Println("ProfileService initialized.")

	definition := checklist.DefaultDefinition()
	if err := definition.Validate(); err != nil {
		log.Fatalf("FATAL: Invalid checklist definition: %v", err)
	}

	// 5. Setup Router & Inject Dependencies
	router := api.NewRouter(api.RouterDependencies{
		AuthHandler:      handlers.NewAuthHandler(authService),
		ChatHandler:      handlers.NewChatHandlers(chatService, historyFormatter),
		ChecklistHandler: handlers.NewChecklistHandler(profileService, definition),
		Config:           cfg,
	})
	log.Println("HTTP router configured.")

	// 6. Configure and Start HTTP Server
	// Streaming replies may run for the whole generation budget.
	writeTimeout := cfg.Chat.GenerationTimeout + cfg.Chat.PersistTimeout + 10*time.Second
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  120 * time.Second,
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting and listening on port %s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: Could not listen on %s: %v\n", cfg.HTTPPort, err)
		}
		log.Println("Server listener routine stopped.")
	}()

	<-stopChan
	log.Println("Shutdown signal received, initiating graceful shutdown...")

	// In-flight streams get up to 30s to finish and persist their replies.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("WARN: Server graceful shutdown failed: %v", err)
	}

	log.Println("Server shutdown complete.")
}

// openStore connects the configured backend and makes sure its schema exists.
func openStore(cfg config.StoreConfig) (store.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch cfg.Driver {
	case config.DriverPostgres:
		dbpool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("unable to create database connection pool: %w", err)
		}
		if err := dbpool.Ping(ctx); err != nil {
			dbpool.Close()
			return nil, fmt.Errorf("unable to ping database: %w", err)
		}
		log.Println("Database connection pool established and pinged successfully.")
		pgStore := postgres.NewPostgresStore(dbpool)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			pgStore.Close()
			return nil, fmt.Errorf("unable to apply database schema: %w", err)
		}
		log.Println("Postgres store initialized.")
		return pgStore, nil

	case config.DriverSQLite:
		sqliteStore, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("unable to open sqlite database %s: %w", cfg.SQLitePath, err)
		}
		log.Printf("SQLite store initialized at %s.", cfg.SQLitePath)
		return sqliteStore, nil

	case config.DriverMemory:
		log.Println("WARN: Using the in-memory store, nothing survives a restart.")
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
}
