package memory

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"bankbot/internal/domain"
)

const defaultMaxEvents = 10_000

// Store is an in-process event log. The oldest events are dropped once
// maxEvents is reached.
type Store struct {
	mu        sync.RWMutex
	events    []domain.Event
	maxEvents int
	now       func() time.Time
}

func NewStore() *Store {
	return &Store{
		events:    make([]domain.Event, 0, 256),
		maxEvents: defaultMaxEvents,
		now:       time.Now,
	}
}

func (s *Store) AppendEvent(eventType domain.EventType, userID string, payload map[string]interface{}) domain.Event {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	event := domain.Event{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      eventType,
		Payload:   payload,
		CreatedAt: s.now().UTC(),
	}
	s.events = append(s.events, event)
	if over := len(s.events) - s.maxEvents; over > 0 {
		s.events = slices.Delete(s.events, 0, over)
	}
	return event
}

// ListEvents returns up to limit events, newest first.
func (s *Store) ListEvents(limit int) []domain.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 20
	}
	if len(s.events) == 0 {
		return []domain.Event{}
	}
	start := max(len(s.events)-limit, 0)
	out := slices.Clone(s.events[start:])
	slices.Reverse(out)
	return out
}
