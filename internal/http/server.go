package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bankbot/internal/config"
	storepkg "bankbot/internal/store"
)

type contextKey string

const contextKeyAdminSubject contextKey = "admin_subject"

const maxEventsLimit = 200

// FlowCounter reports how many confirmation flows are awaiting a decision.
type FlowCounter interface {
	Pending() int
}

type Server struct {
	cfg          config.Config
	store        storepkg.Store
	interactions http.Handler
	flows        FlowCounter
	startedAt    time.Time
}

func NewServer(cfg config.Config, store storepkg.Store, interactions http.Handler, flows FlowCounter) *Server {
	return &Server{
		cfg:          cfg,
		store:        store,
		interactions: interactions,
		flows:        flows,
		startedAt:    time.Now().UTC(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)

	// Discord retries unacknowledged interactions, so this route stays out of
	// the request logger and its timeout budget.
	r.Method(http.MethodPost, "/interactions", s.interactions)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Logger)
		r.Get("/health", s.handleHealth)
		r.Handle("/metrics", promhttp.Handler())
		r.Post("/admin/login", s.handleAdminLogin)

		r.Group(func(protected chi.Router) {
			protected.Use(s.requireAdmin)
			protected.Post("/admin/logout", s.handleAdminLogout)
			protected.Get("/events", s.handleListEvents)
			protected.Get("/dashboard/summary", s.handleDashboardSummary)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Username != s.cfg.AdminUsername || req.Password != s.cfg.AdminPassword {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, expiresAt, err := s.signAdminToken(req.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create admin token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
		"type":       "Bearer",
	})
}

func (s *Server) handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	limit := min(parseInt(r.URL.Query().Get("limit"), 20), maxEventsLimit)
	events := s.store.ListEvents(limit)
	if user := r.URL.Query().Get("user_id"); user != "" {
		filtered := events[:0:0]
		for _, e := range events {
			if e.UserID == user {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}

func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	pending := 0
	if s.flows != nil {
		pending = s.flows.Pending()
	}
	byType := map[string]int{}
	for _, e := range s.store.ListEvents(maxEventsLimit) {
		byType[string(e.Type)]++
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pending_flows":  pending,
		"recent_events":  byType,
		"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
	})
}

func (s *Server) signAdminToken(subject string) (string, time.Time, error) {
	expiresAt := time.Now().UTC().Add(12 * time.Hour)
	claims := jwt.MapClaims{
		"sub": subject,
		"exp": expiresAt.Unix(),
		"iat": time.Now().UTC().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
			return []byte(s.cfg.JWTSecret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !parsed.Valid {
			writeError(w, http.StatusUnauthorized, "invalid admin token")
			return
		}
		sub, err := parsed.Claims.GetSubject()
		if err != nil || sub == "" {
			writeError(w, http.StatusUnauthorized, "invalid admin claims")
			return
		}
		ctx := context.WithValue(r.Context(), contextKeyAdminSubject, sub)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func decodeJSON(r *http.Request, target interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
