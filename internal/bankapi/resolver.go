package bankapi

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"

	"bankbot/internal/config"
)

// expirySkew keeps a cached credential from being used right up to its exp.
const expirySkew = 30 * time.Second

type tokenRequest struct {
	DiscordID string `json:"discord_id"`
	BotToken  string `json:"bot_token"`
}

type cachedCredential struct {
	token     string
	expiresAt time.Time
}

// Resolver exchanges a Discord user id for a backend bearer token. With a
// zero TTL every call goes to the backend.
type Resolver struct {
	client   *Client
	botToken string
	ttl      time.Duration
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]cachedCredential
}

func NewResolver(client *Client, cfg *config.Config) *Resolver {
	return &Resolver{
		client:   client,
		botToken: cfg.APIBotToken,
		ttl:      cfg.CredentialCacheTTL,
		now:      time.Now,
		cache:    make(map[string]cachedCredential),
	}
}

// Resolve returns the bearer token for externalID, or false when the user
// is not linked or the backend could not be asked.
func (r *Resolver) Resolve(ctx context.Context, externalID string) (string, bool) {
	if externalID == "" {
		return "", false
	}
	if token, ok := r.cached(externalID); ok {
		return token, true
	}

	res := r.client.Request(ctx, http.MethodPost, "/auth/discord/token", "",
		tokenRequest{DiscordID: externalID, BotToken: r.botToken}, nil)
	if !res.Success {
		if res.Code == http.StatusNotFound {
			log.Printf("resolver: user=%s is not linked", externalID)
		} else {
			log.Printf("resolver: token request failed user=%s code=%d error=%q", externalID, res.Code, res.Error)
		}
		return "", false
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(res.Raw, &body); err != nil || body.AccessToken == "" {
		log.Printf("resolver: token response without access_token user=%s", externalID)
		return "", false
	}
	r.store(externalID, body.AccessToken)
	return body.AccessToken, true
}

// Forget drops any cached credential for externalID.
func (r *Resolver) Forget(externalID string) {
	r.mu.Lock()
	delete(r.cache, externalID)
	r.mu.Unlock()
}

func (r *Resolver) cached(externalID string) (string, bool) {
	if r.ttl <= 0 {
		return "", false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.cache[externalID]
	if !ok {
		return "", false
	}
	if !r.now().Before(entry.expiresAt) {
		delete(r.cache, externalID)
		return "", false
	}
	return entry.token, true
}

func (r *Resolver) store(externalID, token string) {
	if r.ttl <= 0 {
		return
	}
	now := r.now()
	expiresAt := now.Add(r.ttl)
	if exp, ok := tokenExpiry(token); ok {
		if bound := exp.Add(-expirySkew); bound.Before(expiresAt) {
			expiresAt = bound
		}
	}
	if !expiresAt.After(now) {
		return
	}
	r.mu.Lock()
	r.cache[externalID] = cachedCredential{token: token, expiresAt: expiresAt}
	r.mu.Unlock()
}

// tokenExpiry reads the exp claim without verifying the signature; the bot
// does not hold the backend's signing key.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
