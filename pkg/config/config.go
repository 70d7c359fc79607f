package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds environment-driven settings for the autobot core.
type Config struct {
	Port string

	// Database
	DBPath string

	// Auth
	JWTSecret string

	// Credential encryption key (32 bytes, base64) for stored API secrets.
	EncryptionKey string

	// Exchanges
	BinanceBaseURL string
	LunoBaseURL    string
	// Global fallback credentials; per-user credentials in the registry win.
	BinanceAPIKey    string
	BinanceAPISecret string
	LunoAPIKeyID     string
	LunoAPISecret    string
	UseMockExchange  bool

	// Scheduling
	ReconcileInterval  time.Duration
	RunnerSleep        time.Duration
	InterStrategyDelay time.Duration
	AdapterTimeout     time.Duration

	// Arbitrage
	MinArbSpreadPct float64 // percentage, e.g. 0.5
	FiatRate        float64 // USDT -> ZAR conversion for cross-venue comparison

	// Strategy defaults file (YAML), optional
	StrategyDefaultsPath string

	// Notifications
	TelegramBotToken string
}

// Load reads environment variables (optionally via .env) into Config.
func Load() (*Config, error) {
	// Ignore error so the app still starts when .env is missing.
	_ = godotenv.Load()

	return &Config{
		Port:                 getEnv("PORT", "8080"),
		DBPath:               getEnv("DB_PATH", "./data/autobot.db"),
		JWTSecret:            getEnv("JWT_SECRET", "dev-secret"),
		EncryptionKey:        os.Getenv("ENCRYPTION_KEY"),
		BinanceBaseURL:       getEnv("BINANCE_BASE_URL", "https://api.binance.com"),
		LunoBaseURL:          getEnv("LUNO_BASE_URL", "https://api.luno.com"),
		BinanceAPIKey:        os.Getenv("BINANCE_API_KEY"),
		BinanceAPISecret:     os.Getenv("BINANCE_API_SECRET"),
		LunoAPIKeyID:         os.Getenv("LUNO_API_KEY_ID"),
		LunoAPISecret:        os.Getenv("LUNO_API_SECRET"),
		UseMockExchange:      getEnv("MOCK_EXCHANGE", "false") == "true",
		ReconcileInterval:    getEnvDuration("RECONCILE_INTERVAL", 10*time.Second),
		RunnerSleep:          getEnvDuration("RUNNER_SLEEP", 20*time.Second),
		InterStrategyDelay:   getEnvDuration("INTER_STRATEGY_DELAY", 5*time.Second),
		AdapterTimeout:       getEnvDuration("ADAPTER_TIMEOUT", 10*time.Second),
		MinArbSpreadPct:      getEnvFloat("MIN_ARB_SPREAD_PCT", 0.5),
		FiatRate:             getEnvFloat("FIAT_RATE", 18.5),
		StrategyDefaultsPath: getEnv("STRATEGY_DEFAULTS_PATH", ""),
		TelegramBotToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
