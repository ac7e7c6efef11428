package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingToken   = errors.New("TELEGRAM_BOT_TOKEN is required")
	ErrInvalidTarget  = errors.New("TARGET_MRR must be positive")
	ErrMissingDataDir = errors.New("DATA_DIR must not be empty")
)

type Config struct {
	Telegram   TelegramConfig
	Database   DatabaseConfig
	LLM        LLMConfig
	Tribute    TributeConfig
	Connectors ConnectorsConfig
	Monitor    MonitorConfig
	Revenue    RevenueConfig
	Log        LogConfig
	Timeouts   TimeoutConfig
	RateLimit  RateLimitConfig
	DataDir    string
}

type TelegramConfig struct {
	Token       string
	OwnerChatID int64
}

type DatabaseConfig struct {
	URL string // пусто = работаем только с JSON-файлами
}

type LLMConfig struct {
	Provider   string
	OpenRouter OpenRouterConfig
	Groq       GroqConfig
	CEOModel   string
	TeamModel  string
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type GroqConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// TributeConfig - ключи верификации вебхуков, по одному на проект
type TributeConfig struct {
	DefaultKey  string
	ProjectKeys map[string]string // project key -> api key
}

// ConnectorsConfig - ключи внешних финансовых API и TON-кошельки.
type ConnectorsConfig struct {
	CoinGeckoAPIKey string
	TonAPIKey       string
	TonWallets      []string // TON_WALLETS, адреса через запятую
}

type MonitorConfig struct {
	Addr string
}

type RevenueConfig struct {
	TargetMRR float64
	Deadline  string // YYYY-MM-DD
}

type LogConfig struct {
	Level string
}

type TimeoutConfig struct {
	LLM       time.Duration
	Connector time.Duration
}

type RateLimitConfig struct {
	RequestsPerMinute int
}

func Load() (*Config, error) {
	cfg := &Config{
		Telegram: TelegramConfig{
			Token:       os.Getenv("TELEGRAM_BOT_TOKEN"),
			OwnerChatID: getEnvInt64OrDefault("TELEGRAM_OWNER_CHAT_ID", 0),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		LLM: LLMConfig{
			Provider: getEnvOrDefault("LLM_PROVIDER", "openrouter"),
			OpenRouter: OpenRouterConfig{
				APIKey:  os.Getenv("OPENROUTER_API_KEY"),
				Model:   getEnvOrDefault("OPENROUTER_MODEL", "anthropic/claude-sonnet-4"),
				BaseURL: getEnvOrDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			},
			Groq: GroqConfig{
				APIKey:  os.Getenv("GROQ_API_KEY"),
				Model:   getEnvOrDefault("GROQ_MODEL", "llama-3.3-70b-versatile"),
				BaseURL: getEnvOrDefault("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
			},
			CEOModel:  getEnvOrDefault("CEO_MODEL", "anthropic/claude-sonnet-4"),
			TeamModel: getEnvOrDefault("TEAM_MODEL", "anthropic/claude-3.5-haiku"),
		},
		Tribute: TributeConfig{
			DefaultKey: os.Getenv("TRIBUTE_API_KEY"),
			ProjectKeys: map[string]string{
				"krmktl":   os.Getenv("TRIBUTE_API_KEY_KRMKTL"),
				"sborka":   os.Getenv("TRIBUTE_API_KEY_SBORKA"),
				"botanica": os.Getenv("TRIBUTE_API_KEY_BOTANICA"),
			},
		},
		Connectors: ConnectorsConfig{
			CoinGeckoAPIKey: os.Getenv("COINGECKO_API_KEY"),
			TonAPIKey:       os.Getenv("TONAPI_KEY"),
			TonWallets:      splitList(os.Getenv("TON_WALLETS")),
		},
		Monitor: MonitorConfig{
			Addr: getEnvOrDefault("MONITOR_ADDR", "0.0.0.0:8080"),
		},
		Revenue: RevenueConfig{
			TargetMRR: getEnvFloatOrDefault("TARGET_MRR", 2500),
			Deadline:  getEnvOrDefault("MRR_DEADLINE", "2026-03-02"),
		},
		Log: LogConfig{
			Level: getEnvOrDefault("LOG_LEVEL", "info"),
		},
		Timeouts: TimeoutConfig{
			LLM:       time.Duration(getEnvIntOrDefault("LLM_TIMEOUT_SEC", 120)) * time.Second,
			Connector: time.Duration(getEnvIntOrDefault("CONNECTOR_TIMEOUT_SEC", 20)) * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvIntOrDefault("RATE_LIMIT_PER_MINUTE", 10),
		},
		DataDir: getEnvOrDefault("DATA_DIR", "data"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет общие для всех бинарников поля. Токен бота
// нужен только боту, его проверяет ValidateBot.
func (c *Config) Validate() error {
	if c.Revenue.TargetMRR <= 0 {
		return ErrInvalidTarget
	}
	if c.DataDir == "" {
		return ErrMissingDataDir
	}
	return nil
}

// ValidateBot дополнительно требует учётные данные Telegram.
func (c *Config) ValidateBot() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Telegram.Token == "" {
		return ErrMissingToken
	}
	return nil
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
