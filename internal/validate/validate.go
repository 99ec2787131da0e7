// Package validate checks and cleans user-supplied command arguments before
// they reach a mutating backend call. Every function is pure.
package validate

import (
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

const MaxAmount = 1_000_000

// OperationTypes are the canonical operation types accepted by the backend.
var OperationTypes = []string{"debit", "credit", "virement", "prelevement", "depot", "retrait"}

var operationLabels = map[string]string{
	"debit":       "Débit",
	"credit":      "Crédit",
	"virement":    "Virement",
	"prelevement": "Prélèvement",
	"depot":       "Dépôt",
	"retrait":     "Retrait",
}

// Error is a user-facing validation failure.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string { return e.Message }

func invalid(field, format string, args ...any) error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Amount rejects non-positive amounts, amounts above MaxAmount and amounts
// with sub-cent precision.
func Amount(x float64) error {
	if math.IsNaN(x) || x <= 0 {
		return invalid("amount", "The amount must be greater than 0")
	}
	if x > MaxAmount {
		return invalid("amount", "The amount cannot exceed 1 000 000 €")
	}
	if math.Round(x*100)/100 != x {
		return invalid("amount", "The amount can have at most 2 decimal places")
	}
	return nil
}

// OperationType accepts the canonical types case-insensitively.
func OperationType(t string) error {
	if _, ok := operationLabels[strings.ToLower(t)]; !ok {
		return invalid("type_operation", "Invalid operation type. Valid types: %s", strings.Join(OperationTypes, ", "))
	}
	return nil
}

// StringLength counts characters, not bytes.
func StringLength(s string, minLen, maxLen int, field string) error {
	n := utf8.RuneCountInString(s)
	if n < minLen {
		return invalid(field, "%s must contain at least %d characters", field, minLen)
	}
	if n > maxLen {
		return invalid(field, "%s cannot exceed %d characters", field, maxLen)
	}
	return nil
}

func AccountID(id int64) error {
	if id <= 0 {
		return invalid("compte_id", "The account ID must be a positive number")
	}
	return nil
}

// Sanitize trims s, turns newlines, carriage returns and tabs into spaces and
// collapses runs of spaces. Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(s)
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return s
}

// OperationTypeLabel returns the display label of a canonical type, or the
// input capitalised when the type is unknown.
func OperationTypeLabel(t string) string {
	if label, ok := operationLabels[strings.ToLower(t)]; ok {
		return label
	}
	return Capitalize(t)
}

// Capitalize upper-cases the first letter and lower-cases the rest.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
