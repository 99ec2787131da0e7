// Package reply builds the structured replies shown to users. Builders are
// pure: no I/O, and the only clock read is the reply timestamp.
package reply

import "time"

type Category string

const (
	Success Category = "success"
	Error   Category = "error"
	Info    Category = "info"
	Warning Category = "warning"
)

func (c Category) Color() int {
	switch c {
	case Success:
		return 0x00FF00
	case Error:
		return 0xFF0000
	case Warning:
		return 0xFFAA00
	default:
		return 0x0099FF
	}
}

func (c Category) Emoji() string {
	switch c {
	case Success:
		return "✅"
	case Error:
		return "❌"
	case Warning:
		return "⚠️"
	default:
		return "ℹ️"
	}
}

type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Actions attaches confirm/cancel affordances bound to a confirmation flow.
type Actions struct {
	FlowID       string
	Disabled     bool
	ConfirmLabel string
	CancelLabel  string
	Destructive  bool
}

type Reply struct {
	Title       string
	Description string
	Category    Category
	Fields      []Field
	Footer      string
	Timestamp   time.Time
	Actions     *Actions
}

func (r *Reply) AddField(name, value string, inline bool) {
	r.Fields = append(r.Fields, Field{Name: name, Value: value, Inline: inline})
}

// WithActionsDisabled returns a copy whose buttons, if any, are disabled.
func (r Reply) WithActionsDisabled() Reply {
	if r.Actions != nil {
		a := *r.Actions
		a.Disabled = true
		r.Actions = &a
	}
	return r
}

func newReply(c Category, title, description string) Reply {
	return Reply{
		Title:       title,
		Description: description,
		Category:    c,
		Timestamp:   time.Now().UTC(),
	}
}

// New builds a plain reply whose title carries the category's emoji.
func New(c Category, title, description string) Reply {
	return newReply(c, c.Emoji()+" "+title, description)
}
