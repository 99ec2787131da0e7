package reply

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"bankbot/internal/validate"
)

const (
	emojiMoney    = "💰"
	emojiBank     = "🏦"
	emojiCard     = "💳"
	emojiChart    = "📊"
	emojiCalendar = "📅"
	emojiUp       = "📈"
	emojiDown     = "📉"

	// MaxListed caps every operation listing.
	MaxListed = 10
	// maxListedDescription is the rune budget of a description inside a listing.
	maxListedDescription = 50
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// FormatCurrency renders 1234.5 as "1 234.50 €".
func FormatCurrency(amount float64) string {
	return humanize.FormatFloat("# ###.##", amount) + " €"
}

// FormatDate renders a backend timestamp as "02/01/2006 15:04". Values that
// match no known layout are returned unchanged.
func FormatDate(raw string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("02/01/2006 15:04")
		}
	}
	return raw
}

// Indicator is the directional emoji for an operation type.
func Indicator(opType string) string {
	switch strings.ToLower(opType) {
	case "credit", "depot":
		return emojiUp
	case "debit", "retrait":
		return emojiDown
	default:
		return emojiMoney
	}
}

func isIncoming(opType string) bool {
	return Indicator(opType) == emojiUp
}

func signedAmount(opType string, amount float64) string {
	if isIncoming(opType) {
		return "+" + FormatCurrency(amount)
	}
	return "-" + FormatCurrency(amount)
}

// Truncate shortens s to n runes followed by "...".
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func typeLabel(opType string) string {
	return validate.OperationTypeLabel(opType)
}
