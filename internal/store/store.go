package store

import "bankbot/internal/domain"

// Store keeps the audit trail of confirmation flows. Implementations must be
// safe for concurrent use.
type Store interface {
	AppendEvent(eventType domain.EventType, userID string, payload map[string]interface{}) domain.Event
	ListEvents(limit int) []domain.Event
}
