package bot

import (
	"math"
	"strconv"
	"strings"
)

// Invocation is one slash command as received from the chat gateway.
type Invocation struct {
	UserID  string
	Command string
	Options Options
}

// Options holds typed command arguments by name. Integer options arrive as
// int64, number options as float64 and text options as string.
type Options map[string]any

func (o Options) Int(name string) (int64, bool) {
	switch v := o[name].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	}
	return 0, false
}

func (o Options) Float(name string) (float64, bool) {
	switch v := o[name].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// String returns the option as given; missing and non-string options are
// reported as absent.
func (o Options) String(name string) (string, bool) {
	v, ok := o[name].(string)
	return v, ok
}

// Action is a press on one of a confirmation prompt's buttons.
type Action struct {
	UserID  string
	FlowID  string
	Confirm bool
}
