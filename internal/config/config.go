package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Provider ProviderConfig
	Chat     ChatConfig
	Lock     LockConfig
	Events   EventsConfig
}

type AppConfig struct {
	Port                string
	Environment         string
	LogFilePath         string
	ProviderLogFilePath string
	CorsAllowedOrigins  string
}

type DatabaseConfig struct {
	Driver     string // "postgres" or "sqlite"
	Connection string
}

type ProviderConfig struct {
	Name    string // "azure" or "openai"
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type ChatConfig struct {
	PreserveRoles bool
	HistoryWindow int      // 0 = send the whole conversation
	Temperature   *float64 // nil = provider default
	MaxTokens     int      // 0 = provider default
}

type LockConfig struct {
	Backend  string // "memory" or "redis"
	TTL      time.Duration
	IdleTTL  time.Duration // memory backend only
	RedisURL string
}

type EventsConfig struct {
	Topic   string
	NatsURL string
}

// Load reads the process configuration once. The returned value is treated as read-only.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:                getEnv("APP_PORT", "8080"),
			Environment:         getEnv("GO_ENV", "development"),
			LogFilePath:         getEnv("LOG_FILE_PATH", "logs/app.log"),
			ProviderLogFilePath: getEnv("PROVIDER_LOG_FILE_PATH", "logs/provider.log"),
			CorsAllowedOrigins:  getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			Driver:     strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Provider: ProviderConfig{
			Name:    strings.ToLower(getEnv("PROVIDER_NAME", "azure")),
			BaseURL: getEnvWithAlias("PROVIDER_BASE_URL", "AZURE_OPENAI_API_URL", ""),
			APIKey:  getEnvWithAlias("PROVIDER_API_KEY", "AZURE_OPENAI_API_KEY", ""),
			Model:   getEnvWithAlias("PROVIDER_MODEL", "AZURE_OPENAI_API_MODEL", "gpt-4o"),
			Timeout: time.Duration(getEnvAsInt("PROVIDER_TIMEOUT_SECONDS", 60)) * time.Second,
		},
		Chat: ChatConfig{
			PreserveRoles: getEnvAsBool("CHAT_PRESERVE_ROLES", true),
			HistoryWindow: getEnvAsInt("CHAT_HISTORY_WINDOW", 0),
			Temperature:   getEnvAsFloatPtr("CHAT_TEMPERATURE"),
			MaxTokens:     getEnvAsInt("CHAT_MAX_TOKENS", 0),
		},
		Lock: LockConfig{
			Backend:  strings.ToLower(getEnv("LOCK_BACKEND", "memory")),
			TTL:      time.Duration(getEnvAsInt("LOCK_TTL_SECONDS", 120)) * time.Second,
			IdleTTL:  time.Duration(getEnvAsInt("LOCK_IDLE_TTL_SECONDS", 3600)) * time.Second,
			RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Events: EventsConfig{
			Topic:   getEnv("CHAT_EVENTS_TOPIC", "chat.events"),
			NatsURL: getEnv("NATS_URL", ""),
		},
	}
}

// Validate reports settings the service cannot start without.
func (c *Config) Validate() error {
	var missing []string
	if c.Provider.BaseURL == "" {
		missing = append(missing, "PROVIDER_BASE_URL")
	}
	if c.Database.Driver == "postgres" && c.Database.Connection == "" {
		missing = append(missing, "DB_CONNECTION_STRING")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Lock.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported LOCK_BACKEND %q", c.Lock.Backend)
	}
	if c.Chat.HistoryWindow < 0 {
		return fmt.Errorf("CHAT_HISTORY_WINDOW must not be negative")
	}
	if c.Chat.MaxTokens < 0 {
		return fmt.Errorf("CHAT_MAX_TOKENS must not be negative")
	}
	// A redis lock that expires mid-call lets another instance interleave turns.
	if c.Lock.Backend == "redis" && c.Lock.TTL <= c.Provider.Timeout {
		return fmt.Errorf("LOCK_TTL_SECONDS (%s) must exceed PROVIDER_TIMEOUT_SECONDS (%s)", c.Lock.TTL, c.Provider.Timeout)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvWithAlias prefers key and falls back to the legacy alias.
func getEnvWithAlias(key, alias, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return getEnv(alias, fallback)
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloatPtr(key string) *float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return &value
	}
	return nil
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
