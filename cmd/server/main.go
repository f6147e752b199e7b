// @title           Site Generator API
// @version         1.0.0
// @description     Backend API for the AI website generator. Generates sites from a prompt, applies modifications as immutable versions, serves watermarked previews and releases the code behind download tokens.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"site-generator-backend/docs"
	"site-generator-backend/internal/config"
	"site-generator-backend/internal/crm"
	"site-generator-backend/internal/downloadtoken"
	"site-generator-backend/internal/generator"
	"site-generator-backend/internal/handlers"
	"site-generator-backend/internal/llm"
	"site-generator-backend/internal/logger"
	"site-generator-backend/internal/middleware"
	"site-generator-backend/internal/preview"
	"site-generator-backend/internal/services"
	"site-generator-backend/internal/supabase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Update Swagger docs with dynamic base URL
	if cfg.BaseURL != "" {
		if baseURL, err := url.Parse(cfg.BaseURL); err == nil {
			docs.SwaggerInfo.Host = baseURL.Host
			if baseURL.Scheme == "https" {
				docs.SwaggerInfo.Schemes = []string{"https", "http"}
			} else {
				docs.SwaggerInfo.Schemes = []string{"http", "https"}
			}
		}
	}

	store, closeStore, err := openStore(cfg, zl)
	if err != nil {
		return err
	}
	defer closeStore()

	provider, err := llm.NewProvider(cfg.LLMProvider, providerKey(cfg), cfg.LLMModel)
	if err != nil {
		return fmt.Errorf("failed to initialize llm provider: %w", err)
	}
	zl.Info("llm provider ready", zap.String("provider", provider.Name()), zap.String("model", cfg.LLMModel))

	renderer := preview.NewRenderer(cfg.ScriptAllowList, preview.WatermarkOptions{
		Text:     cfg.WatermarkText,
		Opacity:  cfg.WatermarkOpacity,
		Position: preview.PositionCenter,
		Guard:    true,
	})
	tokens := downloadtoken.NewManager(cfg.DownloadTokenSecret, cfg.DownloadTokenTTL)

	// Export archiving and CRM push are optional
	var archive services.ExportArchive
	if cfg.SupabaseURL != "" {
		storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket)
		if err != nil {
			zl.Warn("export archiving disabled", zap.Error(err))
		} else {
			archive = storageClient
		}
	}

	var crmClient services.CRM
	if cfg.HubSpotAccessToken != "" {
		crmClient = crm.NewClient(cfg.HubSpotBaseURL, cfg.HubSpotAccessToken)
	} else {
		zl.Warn("HUBSPOT_ACCESS_TOKEN not set, leads will not be pushed to the CRM")
	}

	router := handlers.NewRouter(handlers.Dependencies{
		Sites:          services.NewSiteService(store, generator.New(provider, cfg.LLMTimeout), renderer, tokens, archive),
		Leads:          services.NewLeadService(store, crmClient),
		JWTSecret:      cfg.SupabaseJWTSecret,
		RateLimiter:    middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		TrustedProxies: cfg.TrustedProxies,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout(cfg.LLMTimeout),
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server starting", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case sig := <-stop:
		zl.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.LLMTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

// openStore prefers a direct database connection, which also runs the
// migrations, and falls back to Supabase PostgREST.
func openStore(cfg *config.Config, zl *zap.Logger) (services.Store, func(), error) {
	if cfg.DatabaseURL != "" {
		dbClient, err := supabase.NewDatabaseClient(cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database client: %w", err)
		}
		if err := dbClient.Migrate(); err != nil {
			dbClient.Close()
			return nil, nil, fmt.Errorf("migration failed: %w", err)
		}
		zl.Info("migrations completed successfully", zap.String("driver", cfg.DatabaseDriver))
		return dbClient, func() { dbClient.Close() }, nil
	}

	zl.Warn("DATABASE_URL not set, using Supabase REST; migrations are skipped")
	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize Supabase client: %w", err)
	}
	return supabase.NewRESTStore(supabaseClient), func() {}, nil
}

// generationCalls is the number of sequential LLM calls a generate request
// makes: profile extraction, then the site itself.
const generationCalls = 2

// writeTimeout leaves room for every LLM call of a generate request, each
// bounded by llmTimeout, plus the store writes around them.
func writeTimeout(llmTimeout time.Duration) time.Duration {
	return generationCalls*llmTimeout + 30*time.Second
}

func providerKey(cfg *config.Config) string {
	if cfg.LLMProvider == "anthropic" {
		return cfg.AnthropicAPIKey
	}
	return cfg.OpenAIAPIKey
}
