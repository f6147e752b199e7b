package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// LLM
	LLMProvider     string
	LLMModel        string
	LLMTimeout      time.Duration
	OpenAIAPIKey    string
	AnthropicAPIKey string

	// Supabase
	SupabaseURL            string
	SupabasePublishableKey string
	SupabaseJWTSecret      string
	SupabaseStorageBucket  string

	// Database
	DatabaseURL    string
	DatabaseDriver string

	// Download gate
	DownloadTokenSecret string
	DownloadTokenTTL    time.Duration

	// Preview
	WatermarkText    string
	WatermarkOpacity float64
	ScriptAllowList  []string

	// CRM
	HubSpotAccessToken string
	HubSpotBaseURL     string

	// Rate limiting (requests per second per client IP on generation routes)
	RateLimitRPS   float64
	RateLimitBurst int

	// Proxies whose X-Forwarded-For is believed when resolving the client IP
	TrustedProxies []string

	// Server
	Port        string
	Environment string
	BaseURL     string
	LogLevel    string
	LogFormat   string
}

func Load() (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	llmTimeout, err := time.ParseDuration(getEnv("LLM_TIMEOUT", "90s"))
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_TIMEOUT: %w", err)
	}
	tokenTTL, err := time.ParseDuration(getEnv("DOWNLOAD_TOKEN_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid DOWNLOAD_TOKEN_TTL: %w", err)
	}
	opacity, err := strconv.ParseFloat(getEnv("WATERMARK_OPACITY", "0.25"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid WATERMARK_OPACITY: %w", err)
	}
	rps, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "0.5"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}
	burst, err := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	cfg := &Config{
		LLMProvider:     getEnv("LLM_PROVIDER", "openai"),
		LLMModel:        getEnv("LLM_MODEL", ""),
		LLMTimeout:      llmTimeout,
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),

		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabasePublishableKey: getEnv("SUPABASE_PUBLISHABLE_KEY", ""),
		SupabaseJWTSecret:      getEnv("SUPABASE_JWT_SECRET", ""),
		SupabaseStorageBucket:  getEnv("SUPABASE_STORAGE_BUCKET", "site-exports"),

		DatabaseURL:    getEnv("DATABASE_URL", ""),
		DatabaseDriver: getEnv("DATABASE_DRIVER", "postgres"),

		DownloadTokenSecret: getEnv("DOWNLOAD_TOKEN_SECRET", ""),
		DownloadTokenTTL:    tokenTTL,

		WatermarkText:    getEnv("WATERMARK_TEXT", "PREVIEW - NOT FOR DISTRIBUTION"),
		WatermarkOpacity: opacity,
		ScriptAllowList:  splitList(getEnv("PREVIEW_SCRIPT_ALLOWLIST", "cdn.tailwindcss.com")),

		HubSpotAccessToken: getEnv("HUBSPOT_ACCESS_TOKEN", ""),
		HubSpotBaseURL:     getEnv("HUBSPOT_BASE_URL", "https://api.hubapi.com"),

		RateLimitRPS:   rps,
		RateLimitBurst: burst,
		TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "")),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
	}

	if cfg.LLMModel == "" {
		cfg.LLMModel = DefaultModel(cfg.LLMProvider)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.LLMProvider {
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required")
		}
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required")
		}
	default:
		return fmt.Errorf("LLM_PROVIDER must be openai or anthropic, got %q", c.LLMProvider)
	}
	if c.DatabaseURL == "" && c.SupabaseURL == "" {
		return fmt.Errorf("DATABASE_URL or SUPABASE_URL is required")
	}
	if c.SupabaseURL != "" && c.SupabasePublishableKey == "" {
		return fmt.Errorf("SUPABASE_PUBLISHABLE_KEY is required")
	}
	if c.DatabaseDriver != "postgres" && c.DatabaseDriver != "sqlite" {
		return fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite, got %q", c.DatabaseDriver)
	}
	if c.SupabaseJWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	if len(c.DownloadTokenSecret) < 32 {
		return fmt.Errorf("DOWNLOAD_TOKEN_SECRET must be at least 32 characters")
	}
	if c.DownloadTokenTTL <= 0 {
		return fmt.Errorf("DOWNLOAD_TOKEN_TTL must be positive")
	}
	if c.WatermarkOpacity < 0 || c.WatermarkOpacity > 1 {
		return fmt.Errorf("WATERMARK_OPACITY must be between 0 and 1")
	}
	for _, p := range c.TrustedProxies {
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				return fmt.Errorf("TRUSTED_PROXIES entry %q is not an IP or CIDR", p)
			}
		}
	}
	return nil
}

// DefaultModel returns the model used when LLM_MODEL is unset.
func DefaultModel(provider string) string {
	switch provider {
	case "anthropic":
		return "claude-sonnet-4-5-20250929"
	default:
		return "gpt-4o"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
