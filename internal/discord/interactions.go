package discord

import (
	"context"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"bankbot/internal/bot"
	"bankbot/internal/reply"
)

const (
	// Discord drops interactions not acknowledged within three seconds.
	defaultAckTimeout = 2500 * time.Millisecond
	// Interaction tokens stay valid for fifteen minutes.
	interactionLifetime = 15 * time.Minute

	maxInteractionBody = 1 << 20
)

// Dispatcher runs commands and prompt answers. *bot.Bot implements it.
type Dispatcher interface {
	Handle(ctx context.Context, inv bot.Invocation, rsp bot.Responder)
	HandleAction(ctx context.Context, act bot.Action, rsp bot.Responder)
}

// Messenger edits and follows up deferred interaction responses. *Client
// implements it.
type Messenger interface {
	EditOriginal(ctx context.Context, interactionToken string, msg WebhookMessage) error
	FollowUp(ctx context.Context, interactionToken string, msg WebhookMessage) error
}

// InteractionHandler is the HTTP endpoint Discord posts interactions to.
// Work runs in its own goroutine; the HTTP response is the deferral.
type InteractionHandler struct {
	verifier   *Verifier
	dispatcher Dispatcher
	messenger  Messenger
	ackTimeout time.Duration

	wg sync.WaitGroup
}

func NewInteractionHandler(v *Verifier, d Dispatcher, m Messenger) *InteractionHandler {
	return &InteractionHandler{
		verifier:   v,
		dispatcher: d,
		messenger:  m,
		ackTimeout: defaultAckTimeout,
	}
}

func (h *InteractionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxInteractionBody))
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if !h.verifier.Verify(r.Header.Get("X-Signature-Ed25519"), r.Header.Get("X-Signature-Timestamp"), body) {
		http.Error(w, "invalid request signature", http.StatusUnauthorized)
		return
	}

	var in Interaction
	if err := json.Unmarshal(body, &in); err != nil {
		http.Error(w, "invalid interaction", http.StatusBadRequest)
		return
	}

	switch in.Type {
	case InteractionPing:
		writeResponse(w, InteractionResponse{Type: ResponsePong})
	case InteractionApplicationCommand:
		inv := bot.Invocation{UserID: in.UserID(), Command: in.Data.Name, Options: decodeOptions(in.Data.Options)}
		h.dispatch(w, r, in, InteractionResponse{Type: ResponseDeferredChannelMessage, Data: deferredData{Flags: flagEphemeral}},
			func(ctx context.Context, rsp bot.Responder) { h.dispatcher.Handle(ctx, inv, rsp) })
	case InteractionMessageComponent:
		flowID, confirm, ok := ParseCustomID(in.Data.CustomID)
		if !ok {
			http.Error(w, "unknown component", http.StatusBadRequest)
			return
		}
		act := bot.Action{UserID: in.UserID(), FlowID: flowID, Confirm: confirm}
		h.dispatch(w, r, in, InteractionResponse{Type: ResponseDeferredUpdateMessage},
			func(ctx context.Context, rsp bot.Responder) { h.dispatcher.HandleAction(ctx, act, rsp) })
	default:
		http.Error(w, "unsupported interaction type", http.StatusBadRequest)
	}
}

// dispatch starts run and answers with ack as soon as run has deferred, or
// after ackTimeout at the latest.
func (h *InteractionHandler) dispatch(w http.ResponseWriter, r *http.Request, in Interaction, ack InteractionResponse, run func(context.Context, bot.Responder)) {
	rsp := newResponder(h.messenger, in.Token)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), interactionLifetime)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer cancel()
		run(ctx, rsp)
	}()

	timer := time.NewTimer(h.ackTimeout)
	defer timer.Stop()
	select {
	case <-rsp.deferred:
	case <-timer.C:
		log.Printf("discord: interaction=%s not deferred in time, acknowledging", in.ID)
	}

	writeResponse(w, ack)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	close(rsp.acked)
}

// Wait blocks until every in-flight interaction has finished or ctx ends.
func (h *InteractionHandler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func writeResponse(w http.ResponseWriter, resp InteractionResponse) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("discord: write interaction response: %v", err)
	}
}

// decodeOptions types option values the way the bot reads them.
func decodeOptions(opts []InteractionOption) bot.Options {
	out := bot.Options{}
	for _, o := range opts {
		switch o.Type {
		case optionInteger:
			var n int64
			if err := json.Unmarshal(o.Value, &n); err == nil {
				out[o.Name] = n
				continue
			}
			var f float64
			if err := json.Unmarshal(o.Value, &f); err == nil {
				out[o.Name] = f
			}
		case optionNumber:
			var f float64
			if err := json.Unmarshal(o.Value, &f); err == nil {
				out[o.Name] = f
			}
		case optionString:
			var s string
			if err := json.Unmarshal(o.Value, &s); err == nil {
				out[o.Name] = s
			}
		}
	}
	return out
}

// responder delivers a bot's replies for one interaction through webhook
// edits. Nothing is sent before the interaction has been acknowledged.
type responder struct {
	messenger Messenger
	token     string

	deferOnce sync.Once
	deferred  chan struct{}
	acked     chan struct{}
}

func newResponder(m Messenger, token string) *responder {
	return &responder{
		messenger: m,
		token:     token,
		deferred:  make(chan struct{}),
		acked:     make(chan struct{}),
	}
}

func (r *responder) Defer(context.Context) error {
	r.deferOnce.Do(func() { close(r.deferred) })
	return nil
}

func (r *responder) Respond(ctx context.Context, rep reply.Reply) error {
	if err := r.waitAcked(ctx); err != nil {
		return err
	}
	return r.messenger.EditOriginal(ctx, r.token, Render(rep))
}

func (r *responder) Notify(ctx context.Context, rep reply.Reply) error {
	if err := r.waitAcked(ctx); err != nil {
		return err
	}
	return r.messenger.FollowUp(ctx, r.token, Render(rep))
}

func (r *responder) waitAcked(ctx context.Context) error {
	select {
	case <-r.acked:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
