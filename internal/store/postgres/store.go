package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"bankbot/internal/domain"
)

const schema = `
create table if not exists bot_events (
	id         uuid primary key,
	user_id    text not null default '',
	event_type text not null,
	payload    jsonb not null default '{}'::jsonb,
	created_at timestamptz not null
);
create index if not exists bot_events_created_at_idx on bot_events (created_at desc);
`

type Store struct {
	db *sql.DB
}

func NewStore(databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{db: db}, nil
}

// EnsureSchema creates the event table when it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", describe(err))
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) AppendEvent(eventType domain.EventType, userID string, payload map[string]interface{}) domain.Event {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	event := domain.Event{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      eventType,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = []byte("{}")
	}
	_, err = s.db.Exec(
		`insert into bot_events(id, user_id, event_type, payload, created_at)
		 values ($1, $2, $3, $4::jsonb, $5)`,
		event.ID, userID, string(eventType), string(raw), event.CreatedAt,
	)
	if err != nil {
		log.Printf("store: append %s failed: %v", eventType, describe(err))
	}
	return event
}

func (s *Store) ListEvents(limit int) []domain.Event {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`select id, user_id, event_type, payload, created_at
		 from bot_events order by created_at desc limit $1`,
		limit,
	)
	if err != nil {
		log.Printf("store: list events failed: %v", describe(err))
		return []domain.Event{}
	}
	defer rows.Close()

	out := make([]domain.Event, 0, limit)
	for rows.Next() {
		var e domain.Event
		var eventType string
		var payloadRaw []byte
		if err := rows.Scan(&e.ID, &e.UserID, &eventType, &payloadRaw, &e.CreatedAt); err != nil {
			continue
		}
		e.Type = domain.EventType(eventType)
		_ = json.Unmarshal(payloadRaw, &e.Payload)
		if e.Payload == nil {
			e.Payload = map[string]interface{}{}
		}
		out = append(out, e)
	}
	return out
}

// describe adds the SQLSTATE to driver errors.
func describe(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%s (sqlstate %s): %w", pqErr.Message, pqErr.Code, err)
	}
	return err
}
