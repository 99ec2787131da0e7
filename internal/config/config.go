package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is loaded once at start-up and passed by pointer to the components
// that need it. Nothing mutates it after Load returns.
type Config struct {
	ListenAddr    string
	StoreMode     string
	DatabaseURL   string
	AdminUsername string
	AdminPassword string
	JWTSecret     string

	APIBaseURL         string
	APIBotToken        string
	APITimeout         time.Duration
	CredentialCacheTTL time.Duration
	ConfirmTimeout     time.Duration

	DiscordApplicationID    string
	DiscordPublicKey        string
	DiscordBotToken         string
	DiscordAPIBase          string
	DiscordRegisterCommands bool

	EventsWebhookURL        string
	EventsWebhookTimeout    time.Duration
	EventsWebhookMaxRetries int
	EventsWebhookRetryBase  time.Duration
	EventsWebhookRetryMax   time.Duration
}

func Load() Config {
	return Config{
		ListenAddr:    getEnv("LISTEN_ADDR", ":18080"),
		StoreMode:     getEnv("STORE_MODE", "memory"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "change-me"),
		JWTSecret:     getEnv("JWT_SECRET", "change-this-secret"),

		APIBaseURL:         strings.TrimRight(getEnv("API_BASE_URL", "https://votre-domaine.com/api"), "/"),
		APIBotToken:        getEnv("API_BOT_TOKEN", ""),
		APITimeout:         getDuration("API_TIMEOUT", 10*time.Second),
		CredentialCacheTTL: getDuration("CREDENTIAL_CACHE_TTL", 0),
		ConfirmTimeout:     getDuration("CONFIRM_TIMEOUT", 60*time.Second),

		DiscordApplicationID:    getEnv("DISCORD_APPLICATION_ID", ""),
		DiscordPublicKey:        getEnv("DISCORD_PUBLIC_KEY", ""),
		DiscordBotToken:         getEnv("DISCORD_BOT_TOKEN", ""),
		DiscordAPIBase:          strings.TrimRight(getEnv("DISCORD_API_BASE", "https://discord.com/api/v10"), "/"),
		DiscordRegisterCommands: getBool("DISCORD_REGISTER_COMMANDS", false),

		EventsWebhookURL:        getEnv("EVENTS_WEBHOOK_URL", ""),
		EventsWebhookTimeout:    getDuration("EVENTS_WEBHOOK_TIMEOUT", 5*time.Second),
		EventsWebhookMaxRetries: getInt("EVENTS_WEBHOOK_MAX_RETRIES", 3),
		EventsWebhookRetryBase:  getDuration("EVENTS_WEBHOOK_RETRY_BASE", 500*time.Millisecond),
		EventsWebhookRetryMax:   getDuration("EVENTS_WEBHOOK_RETRY_MAX", 5*time.Second),
	}
}

// Validate reports every required setting that is missing.
func (c Config) Validate() error {
	var missing []string
	if c.APIBaseURL == "" {
		missing = append(missing, "API_BASE_URL")
	}
	if c.APIBotToken == "" {
		missing = append(missing, "API_BOT_TOKEN")
	}
	if c.DiscordPublicKey == "" {
		missing = append(missing, "DISCORD_PUBLIC_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing environment variables: %s", strings.Join(missing, ", "))
	}
	if c.ConfirmTimeout <= 0 {
		return errors.New("CONFIRM_TIMEOUT must be positive")
	}
	return nil
}

// WebsiteURL is the public site hosting the account linking page. The API is
// served under /api on the same host.
func (c Config) WebsiteURL() string {
	return strings.TrimSuffix(c.APIBaseURL, "/api")
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
