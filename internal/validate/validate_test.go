package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAmount(t *testing.T) {
	for _, ok := range []float64{0.01, 1, 10.5, 100.00, 999_999.99, 1_000_000, 0.29, 100.1} {
		require.NoError(t, Amount(ok), "amount %v", ok)
	}
	for _, bad := range []float64{0, -1, -0.01, 1_000_000.01, 2_000_000, 10.005, 0.001} {
		require.Error(t, Amount(bad), "amount %v", bad)
	}
}

func TestAmount_ReportsFirstFailingCheck(t *testing.T) {
	err := Amount(-0.005)
	var verr *Error
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "The amount must be greater than 0", verr.Message)

	require.EqualError(t, Amount(10.005), "The amount can have at most 2 decimal places")
	require.EqualError(t, Amount(1_500_000.005), "The amount cannot exceed 1 000 000 €")
}

func TestOperationType(t *testing.T) {
	for _, ok := range []string{"debit", "credit", "CREDIT", "Virement", "prelevement", "depot", "RETRAIT"} {
		require.NoError(t, OperationType(ok), ok)
	}
	for _, bad := range []string{"transfer", "", "crédit", "debits"} {
		require.Error(t, OperationType(bad), bad)
	}
}

func TestStringLength(t *testing.T) {
	require.NoError(t, StringLength("", 0, 10, "Nature"))
	require.NoError(t, StringLength("éééé", 0, 4, "Nature"))
	require.EqualError(t, StringLength("ab", 3, 10, "Nature"), "Nature must contain at least 3 characters")
	require.EqualError(t, StringLength("abcdef", 0, 5, "Nature"), "Nature cannot exceed 5 characters")
}

func TestSanitize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"a  \n  b", "a b"},
		{"  hello  ", "hello"},
		{"a\tb\r\nc", "a b c"},
		{"one     two   three", "one two three"},
		{"", ""},
		{"\n\t ", ""},
	}
	for _, tc := range cases {
		got := Sanitize(tc.in)
		require.Equal(t, tc.want, got, "Sanitize(%q)", tc.in)
		require.Equal(t, got, Sanitize(got), "Sanitize is not idempotent for %q", tc.in)
		require.NotContains(t, got, "  ")
	}
}

func TestOperationTypeLabel(t *testing.T) {
	require.Equal(t, "Prélèvement", OperationTypeLabel("prelevement"))
	require.Equal(t, "Crédit", OperationTypeLabel("CREDIT"))
	require.Equal(t, "Transfer", OperationTypeLabel("tRANSFER"))
	require.Equal(t, "", OperationTypeLabel(""))
}

func TestAccountID(t *testing.T) {
	require.NoError(t, AccountID(5))
	require.Error(t, AccountID(0))
	require.Error(t, AccountID(-3))
}
