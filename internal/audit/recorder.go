// Package audit persists confirmation flow events and forwards them to the
// configured webhook.
package audit

import (
	"context"
	"log"
	"sync"
	"time"

	"bankbot/internal/domain"
	storepkg "bankbot/internal/store"
)

// Publisher delivers a stored event to an external system.
type Publisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

type Recorder struct {
	store          storepkg.Store
	publisher      Publisher
	publishTimeout time.Duration
	wg             sync.WaitGroup
}

// NewRecorder returns a recorder backed by store. publisher may be nil.
func NewRecorder(store storepkg.Store, publisher Publisher, publishTimeout time.Duration) *Recorder {
	return &Recorder{store: store, publisher: publisher, publishTimeout: publishTimeout}
}

// Record stores the event synchronously and publishes it in the background.
// The caller's context only scopes the log line; publishing outlives it.
func (r *Recorder) Record(ctx context.Context, eventType domain.EventType, userID string, payload map[string]interface{}) {
	event := r.store.AppendEvent(eventType, userID, payload)
	if r.publisher == nil {
		return
	}
	r.wg.Add(1)
	go func(evt domain.Event) {
		defer r.wg.Done()
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.publishTimeout)
		defer cancel()
		if err := r.publisher.Publish(pctx, evt); err != nil {
			log.Printf("audit: event %s not delivered: %v", evt.ID, err)
		}
	}(event)
}

// Flush waits for in-flight publications or until ctx is done.
func (r *Recorder) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
