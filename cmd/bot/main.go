package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bankbot/internal/audit"
	"bankbot/internal/bankapi"
	"bankbot/internal/bot"
	"bankbot/internal/confirm"
	"bankbot/internal/config"
	"bankbot/internal/discord"
	apphttp "bankbot/internal/http"
	"bankbot/internal/integrations/webhook"
	storepkg "bankbot/internal/store"
	"bankbot/internal/store/memory"
	"bankbot/internal/store/postgres"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	st, closeStore := openStore(cfg)
	defer closeStore()

	apiClient := bankapi.NewClient(&cfg)
	defer apiClient.Close()
	resolver := bankapi.NewResolver(apiClient, &cfg)
	flows := confirm.NewRegistry(cfg.ConfirmTimeout)

	var publisher audit.Publisher
	if hook := webhook.NewClient(
		cfg.EventsWebhookURL,
		cfg.EventsWebhookTimeout,
		cfg.EventsWebhookMaxRetries,
		cfg.EventsWebhookRetryBase,
		cfg.EventsWebhookRetryMax,
	); hook.Enabled() {
		publisher = hook
	}
	// Publishing covers every retry of one event.
	publishBudget := (cfg.EventsWebhookTimeout + cfg.EventsWebhookRetryMax) * time.Duration(cfg.EventsWebhookMaxRetries+1)
	recorder := audit.NewRecorder(st, publisher, publishBudget)

	b := bot.New(&cfg, apiClient, resolver, flows, recorder)

	verifier, err := discord.NewVerifier(cfg.DiscordPublicKey)
	if err != nil {
		log.Fatalf("invalid DISCORD_PUBLIC_KEY: %v", err)
	}
	discordClient := discord.NewClient(&cfg)
	interactions := discord.NewInteractionHandler(verifier, b, discordClient)

	if cfg.DiscordRegisterCommands {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := discordClient.RegisterCommands(ctx, discord.Commands()); err != nil {
			log.Printf("slash command registration failed: %v", err)
		} else {
			log.Printf("registered %d slash commands", len(discord.Commands()))
		}
		cancel()
	}

	srv := apphttp.NewServer(cfg, st, interactions, flows)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("bank bot listening on %s (api=%s)", cfg.ListenAddr, cfg.APIBaseURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
	if err := interactions.Wait(ctx); err != nil {
		log.Printf("in-flight interactions abandoned: %v", err)
	}
	flows.Close()
	if err := recorder.Flush(ctx); err != nil {
		log.Printf("pending event deliveries abandoned: %v", err)
	}
}

func openStore(cfg config.Config) (storepkg.Store, func()) {
	if cfg.StoreMode != "postgres" || cfg.DatabaseURL == "" {
		return memory.NewStore(), func() {}
	}
	pgStore, err := postgres.NewStore(cfg.DatabaseURL)
	if err != nil {
		log.Printf("postgres store unavailable, falling back to memory store: %v", err)
		return memory.NewStore(), func() {}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := pgStore.EnsureSchema(ctx); err != nil {
		log.Printf("postgres schema unavailable, falling back to memory store: %v", err)
		_ = pgStore.Close()
		return memory.NewStore(), func() {}
	}
	return pgStore, func() { _ = pgStore.Close() }
}
