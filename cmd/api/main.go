package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"creativelab/internal/auth"
	"creativelab/internal/creative"
	"creativelab/internal/history"
	"creativelab/internal/http/handlers"
	"creativelab/internal/http/httpapi"
	"creativelab/internal/infra"
	"creativelab/internal/providers/genai"
	"creativelab/internal/sqlinline"
	"creativelab/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()

	if err := infra.ApplyMigrations(pool, logger); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply migrations")
	}
	runner := infra.NewSQLRunner(pool, logger)

	if cfg.GeminiAPIKey == "" {
		logger.Warn().Msg("GEMINI_API_KEY is empty; generation calls will be rejected upstream")
	}
	geminiClient, err := genai.NewClient(genai.Options{
		APIKey:         cfg.GeminiAPIKey,
		BaseURL:        cfg.GeminiBaseURL,
		CopyModel:      cfg.CopyModel,
		ImageModel:     cfg.ImageModel,
		ImageEditModel: cfg.ImageEditModel,
		HTTPClient:     &http.Client{Timeout: 120 * time.Second},
		Logger:         &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure gemini client")
	}

	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure token issuer")
	}
	var creds auth.CredentialStore = auth.NewPostgresStore(runner)
	if cfg.StaticCredsJSON != "" {
		static, err := auth.NewStaticStoreFromJSON(cfg.StaticCredsJSON)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to parse static credentials")
		}
		// Static accounts must exist in employees too, or history inserts
		// for them would violate the foreign key.
		for email, hash := range static.Accounts() {
			if _, err := runner.Exec(ctx, sqlinline.QUpsertEmployee, email, "", hash); err != nil {
				logger.Fatal().Err(err).Str("email", email).Msg("failed to mirror static account")
			}
		}
		creds = static
		logger.Info().Msg("using static credential store")
	}

	fileStore, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure storage")
	}

	app := &handlers.App{
		Logger:   logger,
		Auth:     auth.NewService(creds, tokens, 24*time.Hour),
		Pipeline: creative.NewPipeline(geminiClient, creative.NewPromptBuilder(""), logger),
		History:  history.NewPostgresStore(runner),
		Files:    fileStore,
	}

	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app, tokens, cfg))

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
