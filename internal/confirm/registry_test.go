package confirm

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"bankbot/internal/reply"
)

func countingAction(calls *int32) Action {
	return func(ctx context.Context, info Info) reply.Reply {
		atomic.AddInt32(calls, 1)
		return reply.New(reply.Success, "done", "")
	}
}

func TestConfirm_RunsActionExactlyOnce(t *testing.T) {
	r := NewRegistry(time.Minute)
	defer r.Close()

	var calls int32
	info, err := r.Open(Proposal{Owner: "u1", Kind: "operation", Action: countingAction(&calls)})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if info.State != Proposed {
		t.Fatalf("expected proposed, got %s", info.State)
	}

	got, rep, err := r.Confirm(context.Background(), info.ID, "u1")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if got.State != Confirmed || rep.Category != reply.Success {
		t.Fatalf("unexpected confirm result: %+v %+v", got, rep)
	}

	if _, _, err := r.Confirm(context.Background(), info.ID, "u1"); !errors.Is(err, ErrUnknown) {
		t.Fatalf("second confirm should find nothing, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected 1 action call, got %d", calls)
	}
	if r.Pending() != 0 {
		t.Fatalf("terminal flow must leave the registry")
	}
}

func TestConfirm_ConcurrentPressesRunOnce(t *testing.T) {
	r := NewRegistry(time.Minute)
	defer r.Close()

	var calls int32
	info, _ := r.Open(Proposal{Owner: "u1", Kind: "operation", Action: countingAction(&calls)})

	var wg sync.WaitGroup
	var ok int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := r.Confirm(context.Background(), info.ID, "u1"); err == nil {
				atomic.AddInt32(&ok, 1)
			}
		}()
	}
	wg.Wait()

	if ok != 1 || calls != 1 {
		t.Fatalf("expected one successful confirm and one call, got ok=%d calls=%d", ok, calls)
	}
}

func TestConfirm_AfterDeadlineIsRefused(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	r := NewRegistry(time.Hour)
	r.now = func() time.Time { return now }
	defer r.Close()

	var calls, expired int32
	info, _ := r.Open(Proposal{
		Owner:    "u1",
		Kind:     "operation",
		Action:   countingAction(&calls),
		OnExpire: func(Info) { atomic.AddInt32(&expired, 1) },
	})

	now = now.Add(time.Hour + time.Second)
	got, _, err := r.Confirm(context.Background(), info.ID, "u1")
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if got.State != Expired {
		t.Fatalf("expected expired state, got %s", got.State)
	}
	if calls != 0 {
		t.Fatalf("expired flow must not run its action")
	}
	if expired != 1 {
		t.Fatalf("expected expiry hook once, got %d", expired)
	}
	if _, _, err := r.Confirm(context.Background(), info.ID, "u1"); !errors.Is(err, ErrUnknown) {
		t.Fatalf("expired flow must be gone, got %v", err)
	}
}

func TestExpiryTimerFiresHook(t *testing.T) {
	r := NewRegistry(20 * time.Millisecond)
	defer r.Close()

	var calls int32
	fired := make(chan Info, 1)
	info, _ := r.Open(Proposal{
		Owner:    "u1",
		Kind:     "unlink",
		Action:   countingAction(&calls),
		OnExpire: func(i Info) { fired <- i },
	})

	select {
	case got := <-fired:
		if got.ID != info.ID || got.State != Expired || got.Kind != "unlink" {
			t.Fatalf("unexpected expiry info: %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expiry hook did not fire")
	}

	if _, _, err := r.Confirm(context.Background(), info.ID, "u1"); err == nil {
		t.Fatalf("confirm after expiry must fail")
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("expired flow must not run its action")
	}
}

func TestCancel_NeverRunsAction(t *testing.T) {
	r := NewRegistry(time.Minute)
	defer r.Close()

	var calls int32
	info, _ := r.Open(Proposal{Owner: "u1", Kind: "unlink", Action: countingAction(&calls)})

	got, err := r.Cancel(info.ID, "u1")
	if err != nil || got.State != Cancelled {
		t.Fatalf("cancel: %+v %v", got, err)
	}
	if _, _, err := r.Confirm(context.Background(), info.ID, "u1"); !errors.Is(err, ErrUnknown) {
		t.Fatalf("confirm after cancel should fail with ErrUnknown, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("cancelled flow must not run its action")
	}
}

func TestOnlyOwnerCanAct(t *testing.T) {
	r := NewRegistry(time.Minute)
	defer r.Close()

	var calls int32
	info, _ := r.Open(Proposal{Owner: "u1", Kind: "operation", Action: countingAction(&calls)})

	if _, _, err := r.Confirm(context.Background(), info.ID, "intruder"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if _, err := r.Cancel(info.ID, "intruder"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if _, _, err := r.Confirm(context.Background(), info.ID, "u1"); err != nil {
		t.Fatalf("owner confirm after intruder attempt: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestClosedRegistryRefusesFlows(t *testing.T) {
	r := NewRegistry(time.Minute)
	var calls int32
	r.Open(Proposal{Owner: "u1", Kind: "operation", Action: countingAction(&calls)})
	r.Close()

	if r.Pending() != 0 {
		t.Fatalf("close must drop pending flows")
	}
	if _, err := r.Open(Proposal{Owner: "u1", Kind: "operation", Action: countingAction(&calls)}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	for _, s := range []State{Confirmed, Cancelled, Expired} {
		f := &flow{state: s}
		for _, to := range []State{Proposed, Confirmed, Cancelled, Expired} {
			if err := f.transition(to); err == nil {
				t.Fatalf("transition %s -> %s must be illegal", s, to)
			}
		}
	}
}
