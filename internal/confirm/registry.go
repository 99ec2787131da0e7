package confirm

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"bankbot/internal/reply"
)

// Proposal is what a command hands over when it needs the user's go-ahead.
type Proposal struct {
	Owner  string
	Kind   string
	Action Action
	// OnExpire, if set, is called once when the flow times out.
	OnExpire func(Info)
}

// Registry holds the live flows. Flows leave the registry as soon as they
// reach a terminal state.
type Registry struct {
	timeout time.Duration
	now     func() time.Time

	mu     sync.Mutex
	flows  map[string]*flow
	closed bool
}

func NewRegistry(timeout time.Duration) *Registry {
	return &Registry{
		timeout: timeout,
		now:     time.Now,
		flows:   make(map[string]*flow),
	}
}

// Open registers a new flow in Proposed and arms its expiry timer.
func (r *Registry) Open(p Proposal) (Info, error) {
	if p.Action == nil {
		return Info{}, errors.New("confirm: proposal without action")
	}
	f := &flow{
		id:       uuid.NewString(),
		owner:    p.Owner,
		kind:     p.Kind,
		deadline: r.now().Add(r.timeout),
		action:   p.Action,
		onExpire: p.OnExpire,
		state:    Proposed,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return Info{}, ErrClosed
	}
	r.flows[f.id] = f
	f.mu.Lock()
	f.timer = time.AfterFunc(r.timeout, func() { r.expire(f) })
	info := f.info()
	f.mu.Unlock()
	return info, nil
}

// Confirm moves the flow to Confirmed and runs its action. The state change
// happens before the action starts, so a second confirm finds nothing.
func (r *Registry) Confirm(ctx context.Context, id, user string) (Info, reply.Reply, error) {
	f, err := r.lookup(id, user)
	if err != nil {
		return Info{}, reply.Reply{}, err
	}

	f.mu.Lock()
	if !r.now().Before(f.deadline) {
		expired := f.transition(Expired) == nil
		info := f.info()
		f.mu.Unlock()
		if expired {
			r.remove(f.id)
			r.notifyExpired(f, info)
		}
		return info, reply.Reply{}, ErrExpired
	}
	if err := f.transition(Confirmed); err != nil {
		f.mu.Unlock()
		return Info{}, reply.Reply{}, ErrUnknown
	}
	info := f.info()
	f.mu.Unlock()
	r.remove(f.id)

	return info, f.action(ctx, info), nil
}

// Cancel moves the flow to Cancelled. The action never runs.
func (r *Registry) Cancel(id, user string) (Info, error) {
	f, err := r.lookup(id, user)
	if err != nil {
		return Info{}, err
	}

	f.mu.Lock()
	if err := f.transition(Cancelled); err != nil {
		f.mu.Unlock()
		return Info{}, ErrUnknown
	}
	info := f.info()
	f.mu.Unlock()
	r.remove(f.id)
	return info, nil
}

// Pending reports the number of flows still awaiting an answer.
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flows)
}

// Close stops every timer and refuses new flows. Pending flows are dropped
// without running their action or expiry hook.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	for id, f := range r.flows {
		f.mu.Lock()
		if f.timer != nil {
			f.timer.Stop()
		}
		f.mu.Unlock()
		delete(r.flows, id)
	}
}

func (r *Registry) lookup(id, user string) (*flow, error) {
	r.mu.Lock()
	f, ok := r.flows[id]
	r.mu.Unlock()
	if !ok {
		return nil, ErrUnknown
	}
	if f.owner != user {
		return nil, ErrNotOwner
	}
	return f, nil
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	delete(r.flows, id)
	r.mu.Unlock()
}

func (r *Registry) expire(f *flow) {
	f.mu.Lock()
	if err := f.transition(Expired); err != nil {
		f.mu.Unlock()
		return
	}
	info := f.info()
	f.mu.Unlock()
	r.remove(f.id)
	r.notifyExpired(f, info)
}

func (r *Registry) notifyExpired(f *flow, info Info) {
	if f.onExpire == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("confirm: expiry hook panicked flow=%s kind=%s: %v", info.ID, info.Kind, rec)
		}
	}()
	f.onExpire(info)
}
