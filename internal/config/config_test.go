package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("CONFIRM_TIMEOUT", "")
	t.Setenv("CREDENTIAL_CACHE_TTL", "")

	cfg := Load()
	if cfg.ConfirmTimeout != 60*time.Second {
		t.Fatalf("ConfirmTimeout = %v, want 60s", cfg.ConfirmTimeout)
	}
	if cfg.CredentialCacheTTL != 0 {
		t.Fatalf("CredentialCacheTTL = %v, want disabled", cfg.CredentialCacheTTL)
	}
	if cfg.DiscordAPIBase != "https://discord.com/api/v10" {
		t.Fatalf("DiscordAPIBase = %q", cfg.DiscordAPIBase)
	}
}

func TestLoad_ParsesTypedValues(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://bank.example/api/")
	t.Setenv("CREDENTIAL_CACHE_TTL", "5m")
	t.Setenv("DISCORD_REGISTER_COMMANDS", "true")
	t.Setenv("EVENTS_WEBHOOK_MAX_RETRIES", "not-a-number")

	cfg := Load()
	if cfg.APIBaseURL != "https://bank.example/api" {
		t.Fatalf("APIBaseURL = %q, want trailing slash trimmed", cfg.APIBaseURL)
	}
	if cfg.CredentialCacheTTL != 5*time.Minute {
		t.Fatalf("CredentialCacheTTL = %v", cfg.CredentialCacheTTL)
	}
	if !cfg.DiscordRegisterCommands {
		t.Fatalf("expected DiscordRegisterCommands")
	}
	if cfg.EventsWebhookMaxRetries != 3 {
		t.Fatalf("EventsWebhookMaxRetries = %d, want fallback 3", cfg.EventsWebhookMaxRetries)
	}
	if got := cfg.WebsiteURL(); got != "https://bank.example" {
		t.Fatalf("WebsiteURL = %q", got)
	}
}

func TestValidate_ReportsMissing(t *testing.T) {
	cfg := Config{ConfirmTimeout: time.Minute}
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, key := range []string{"API_BASE_URL", "API_BOT_TOKEN", "DISCORD_PUBLIC_KEY"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("error %q does not mention %s", err, key)
		}
	}

	cfg = Config{
		APIBaseURL:       "https://bank.example/api",
		APIBotToken:      "secret",
		DiscordPublicKey: "abcd",
		ConfirmTimeout:   time.Minute,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
