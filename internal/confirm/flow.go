// Package confirm implements single-use confirmation flows: a mutating
// action is proposed, then either confirmed, cancelled or left to expire.
// Only a confirmed flow runs its action, and it does so exactly once.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bankbot/internal/reply"
)

type State string

const (
	Proposed  State = "proposed"
	Confirmed State = "confirmed"
	Cancelled State = "cancelled"
	Expired   State = "expired"
)

// transitions lists the legal moves. Terminal states have no outgoing edges.
var transitions = map[State]map[State]bool{
	Proposed: {
		Confirmed: true,
		Cancelled: true,
		Expired:   true,
	},
	Confirmed: {},
	Cancelled: {},
	Expired:   {},
}

var (
	ErrUnknown  = errors.New("confirmation flow not found")
	ErrExpired  = errors.New("confirmation flow expired")
	ErrNotOwner = errors.New("confirmation flow belongs to another user")
	ErrClosed   = errors.New("confirmation registry closed")
	errIllegal  = errors.New("illegal flow transition")
)

// Action is the deferred mutating call. It runs at most once, after the flow
// has reached Confirmed.
type Action func(ctx context.Context, info Info) reply.Reply

// Info describes a flow to hooks and callers without exposing its action.
type Info struct {
	ID       string
	Owner    string
	Kind     string
	State    State
	Deadline time.Time
}

type flow struct {
	id       string
	owner    string
	kind     string
	deadline time.Time
	action   Action
	onExpire func(Info)

	mu    sync.Mutex
	state State
	timer *time.Timer
}

func (f *flow) info() Info {
	return Info{ID: f.id, Owner: f.owner, Kind: f.kind, State: f.state, Deadline: f.deadline}
}

// transition must be called with f.mu held.
func (f *flow) transition(to State) error {
	if !transitions[f.state][to] {
		return fmt.Errorf("%w: %s -> %s", errIllegal, f.state, to)
	}
	f.state = to
	if f.timer != nil {
		f.timer.Stop()
	}
	return nil
}
