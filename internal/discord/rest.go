package discord

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"

	"bankbot/internal/config"
)

const maxRateLimitWait = 5 * time.Second

// Client calls the Discord REST API: webhook edits for deferred interaction
// responses and command registration.
type Client struct {
	apiBase  string
	appID    string
	botToken string
	client   *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		apiBase:  cfg.DiscordAPIBase,
		appID:    cfg.DiscordApplicationID,
		botToken: cfg.DiscordBotToken,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// EditOriginal replaces the message created by a deferred response.
func (c *Client) EditOriginal(ctx context.Context, interactionToken string, msg WebhookMessage) error {
	path := fmt.Sprintf("/webhooks/%s/%s/messages/@original", c.appID, interactionToken)
	return c.do(ctx, "edit original", http.MethodPatch, path, false, msg)
}

// FollowUp posts an extra message on an interaction.
func (c *Client) FollowUp(ctx context.Context, interactionToken string, msg WebhookMessage) error {
	path := fmt.Sprintf("/webhooks/%s/%s", c.appID, interactionToken)
	return c.do(ctx, "follow-up", http.MethodPost, path, false, msg)
}

// RegisterCommands overwrites the global slash commands of the application.
func (c *Client) RegisterCommands(ctx context.Context, cmds []ApplicationCommand) error {
	if c.appID == "" || c.botToken == "" {
		return errors.New("register commands: application id and bot token are required")
	}
	return c.do(ctx, "register commands", http.MethodPut, "/applications/"+c.appID+"/commands", true, cmds)
}

// do sends payload to path. name labels errors; webhook paths embed the
// interaction token and are never logged.
func (c *Client) do(ctx context.Context, name, method, path string, auth bool, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, c.apiBase+path, bytes.NewReader(raw))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if auth {
			req.Header.Set("Authorization", "Bot "+c.botToken)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			var ue *url.Error
			if errors.As(err, &ue) {
				err = ue.Err
			}
			return fmt.Errorf("discord %s: %w", name, err)
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests && attempt == 0 {
			if err := sleepCtx(ctx, retryAfter(body)); err != nil {
				return err
			}
			continue
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("discord %s: status=%d body=%s", name, resp.StatusCode, string(body))
		}
		return nil
	}
}

func retryAfter(body []byte) time.Duration {
	var payload struct {
		RetryAfter float64 `json:"retry_after"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.RetryAfter <= 0 {
		return time.Second
	}
	d := time.Duration(payload.RetryAfter * float64(time.Second))
	if d > maxRateLimitWait {
		d = maxRateLimitWait
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
