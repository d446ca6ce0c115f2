package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"dreamweaver-server/internal/ai"
	"dreamweaver-server/internal/api"
	"dreamweaver-server/internal/config"
	"dreamweaver-server/internal/database"
	"dreamweaver-server/internal/logger"
	"dreamweaver-server/internal/prompts"
	"dreamweaver-server/internal/safety"
	"dreamweaver-server/internal/service"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.LogLevel,
		Encoding:   cfg.LogEncoding,
		OutputPath: cfg.LogPath,
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	log.Info("Starting Dreamweaver server",
		zap.String("port", cfg.Port),
		zap.String("db", cfg.GetMaskedDSN()))

	ctx := context.Background()

	pool, err := database.NewPool(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, cfg.MigrationsDir, log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	tiers := buildTiers(cfg, log)
	orchestrator := ai.NewOrchestrator(tiers, log)
	validator := safety.NewValidator(orchestrator, log)
	composer := prompts.NewComposer(nil)

	profileRepo := database.NewPgProfileRepository(pool, log)
	storyRepo := database.NewPgStoryRepository(pool, log)

	storyService := service.NewStoryService(orchestrator, composer, validator, storyRepo, profileRepo, log)

	profileHandler := api.NewProfileHandler(profileRepo, log)
	storyHandler := api.NewStoryHandler(storyService, log)
	router := api.NewRouter(cfg, profileHandler, storyHandler, log)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("Shutdown signal received", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shut down", zap.Error(err))
	}
	log.Info("Server stopped")
}

// buildTiers assembles the ordered generation tiers from configuration.
// Hosted tiers without an API key are skipped so a local-only setup still
// works; the Ollama tier is always attached last.
func buildTiers(cfg *config.Config, log *zap.Logger) []ai.Tier {
	var tiers []ai.Tier

	if cfg.AIPrimaryAPIKey != "" {
		tiers = append(tiers, ai.Tier{
			Name:   "primary",
			Client: ai.NewOpenAIClient(cfg.AIPrimaryBaseURL, cfg.AIPrimaryAPIKey, cfg.AIPrimaryModel, "primary", cfg.AITimeout, log),
		})
	}
	if cfg.AISecondaryAPIKey != "" {
		tiers = append(tiers, ai.Tier{
			Name:   "secondary",
			Client: ai.NewOpenAIClient(cfg.AISecondaryBaseURL, cfg.AISecondaryAPIKey, cfg.AISecondaryModel, "secondary", cfg.AITimeout, log),
		})
	}

	ollama, err := ai.NewOllamaClient(cfg.AIOllamaBaseURL, cfg.AIOllamaModel, "local", cfg.AITimeout, log)
	if err != nil {
		log.Fatal("Failed to create Ollama client", zap.Error(err))
	}
	tiers = append(tiers, ai.Tier{Name: "local", Client: ollama})

	return tiers
}
