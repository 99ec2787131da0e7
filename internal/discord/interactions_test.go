package discord

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"bankbot/internal/bot"
	"bankbot/internal/reply"
)

type signer struct {
	priv     ed25519.PrivateKey
	verifier *Verifier
}

func newSigner(t *testing.T) signer {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	v, err := NewVerifier(hex.EncodeToString(pub))
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}
	return signer{priv: priv, verifier: v}
}

func (s signer) request(t *testing.T, body string) *http.Request {
	t.Helper()
	ts := "1767225600"
	sig := ed25519.Sign(s.priv, append([]byte(ts), body...))
	req := httptest.NewRequest(http.MethodPost, "/interactions", bytes.NewBufferString(body))
	req.Header.Set("X-Signature-Ed25519", hex.EncodeToString(sig))
	req.Header.Set("X-Signature-Timestamp", ts)
	return req
}

type fakeDispatcher struct {
	mu        sync.Mutex
	invs      []bot.Invocation
	actions   []bot.Action
	skipDefer bool
}

func (d *fakeDispatcher) Handle(ctx context.Context, inv bot.Invocation, rsp bot.Responder) {
	d.mu.Lock()
	d.invs = append(d.invs, inv)
	skip := d.skipDefer
	d.mu.Unlock()
	if !skip {
		_ = rsp.Defer(ctx)
	}
	_ = rsp.Respond(ctx, reply.New(reply.Info, "handled "+inv.Command, ""))
}

func (d *fakeDispatcher) HandleAction(ctx context.Context, act bot.Action, rsp bot.Responder) {
	d.mu.Lock()
	d.actions = append(d.actions, act)
	d.mu.Unlock()
	_ = rsp.Defer(ctx)
	_ = rsp.Respond(ctx, reply.New(reply.Success, "done", ""))
}

type sentMessage struct {
	token string
	msg   WebhookMessage
}

type fakeMessenger struct {
	edits   chan sentMessage
	follows chan sentMessage
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{edits: make(chan sentMessage, 4), follows: make(chan sentMessage, 4)}
}

func (m *fakeMessenger) EditOriginal(_ context.Context, token string, msg WebhookMessage) error {
	m.edits <- sentMessage{token: token, msg: msg}
	return nil
}

func (m *fakeMessenger) FollowUp(_ context.Context, token string, msg WebhookMessage) error {
	m.follows <- sentMessage{token: token, msg: msg}
	return nil
}

func (m *fakeMessenger) nextEdit(t *testing.T) sentMessage {
	t.Helper()
	select {
	case s := <-m.edits:
		return s
	case <-time.After(2 * time.Second):
		t.Fatalf("no edit received")
	}
	return sentMessage{}
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestPingGetsPong(t *testing.T) {
	s := newSigner(t)
	h := NewInteractionHandler(s.verifier, &fakeDispatcher{}, newFakeMessenger())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, s.request(t, `{"id":"1","type":1}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := decodeResponse(t, rec); got["type"] != float64(ResponsePong) {
		t.Fatalf("expected pong, got %v", got)
	}
}

func TestTamperedBodyIsRejected(t *testing.T) {
	s := newSigner(t)
	h := NewInteractionHandler(s.verifier, &fakeDispatcher{}, newFakeMessenger())

	signed := s.request(t, `{"id":"1","type":1}`)
	req := httptest.NewRequest(http.MethodPost, "/interactions", bytes.NewBufferString(`{"id":"1","type":2}`))
	req.Header = signed.Header.Clone()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestMissingSignatureIsRejected(t *testing.T) {
	s := newSigner(t)
	h := NewInteractionHandler(s.verifier, &fakeDispatcher{}, newFakeMessenger())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/interactions", bytes.NewBufferString(`{"type":1}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestCommandIsDeferredThenEdited(t *testing.T) {
	s := newSigner(t)
	d := &fakeDispatcher{}
	m := newFakeMessenger()
	h := NewInteractionHandler(s.verifier, d, m)

	body := `{"id":"2","type":2,"token":"itok","member":{"user":{"id":"42"}},"data":{"name":"balance","options":[{"name":"compte_id","type":4,"value":5},{"name":"montant","type":10,"value":12.5},{"name":"nature","type":3,"value":"rent"}]}}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, s.request(t, body))

	got := decodeResponse(t, rec)
	if got["type"] != float64(ResponseDeferredChannelMessage) {
		t.Fatalf("expected deferred channel message, got %v", got)
	}
	data, _ := got["data"].(map[string]interface{})
	if data["flags"] != float64(flagEphemeral) {
		t.Fatalf("expected ephemeral deferral, got %v", got)
	}

	edit := m.nextEdit(t)
	if edit.token != "itok" || len(edit.msg.Embeds) != 1 || edit.msg.Embeds[0].Title != "ℹ️ handled balance" {
		t.Fatalf("unexpected edit: %+v", edit)
	}
	if err := h.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	inv := d.invs[0]
	if inv.UserID != "42" || inv.Options["compte_id"] != int64(5) || inv.Options["montant"] != 12.5 || inv.Options["nature"] != "rent" {
		t.Fatalf("unexpected invocation: %+v", inv)
	}
}

func TestSlowHandlerIsAcknowledgedOnItsBehalf(t *testing.T) {
	s := newSigner(t)
	m := newFakeMessenger()
	h := NewInteractionHandler(s.verifier, &fakeDispatcher{skipDefer: true}, m)
	h.ackTimeout = 20 * time.Millisecond

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, s.request(t, `{"id":"3","type":2,"token":"t3","user":{"id":"7"},"data":{"name":"stats"}}`))

	if got := decodeResponse(t, rec); got["type"] != float64(ResponseDeferredChannelMessage) {
		t.Fatalf("expected deferral, got %v", got)
	}
	m.nextEdit(t)
}

func TestComponentPressIsDeferredUpdate(t *testing.T) {
	s := newSigner(t)
	d := &fakeDispatcher{}
	m := newFakeMessenger()
	h := NewInteractionHandler(s.verifier, d, m)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, s.request(t, `{"id":"4","type":3,"token":"t4","user":{"id":"42"},"data":{"custom_id":"confirm:flow-9"}}`))

	if got := decodeResponse(t, rec); got["type"] != float64(ResponseDeferredUpdateMessage) {
		t.Fatalf("expected deferred update, got %v", got)
	}
	m.nextEdit(t)
	_ = h.Wait(context.Background())

	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.actions) != 1 || d.actions[0] != (bot.Action{UserID: "42", FlowID: "flow-9", Confirm: true}) {
		t.Fatalf("unexpected actions: %+v", d.actions)
	}
}

func TestUnknownComponentIsRejected(t *testing.T) {
	s := newSigner(t)
	h := NewInteractionHandler(s.verifier, &fakeDispatcher{}, newFakeMessenger())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, s.request(t, `{"id":"5","type":3,"token":"t5","user":{"id":"42"},"data":{"custom_id":"other"}}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
