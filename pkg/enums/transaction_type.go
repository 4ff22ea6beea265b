package enums

import (
	"fmt"
	"strings"
)

// TransactionType classifies a stock movement recorded in the ledger.
type TransactionType string

const (
	TransactionTypeIn     TransactionType = "IN"
	TransactionTypeOut    TransactionType = "OUT"
	TransactionTypeAdjust TransactionType = "ADJUST"
)

var validTransactionTypes = []TransactionType{
	TransactionTypeIn,
	TransactionTypeOut,
	TransactionTypeAdjust,
}

var transactionTypeLabels = map[TransactionType]string{
	TransactionTypeIn:     "Stock In",
	TransactionTypeOut:    "Stock Out",
	TransactionTypeAdjust: "Stock Adjustment",
}

// String implements fmt.Stringer.
func (t TransactionType) String() string {
	return string(t)
}

// Label returns the human readable name of the movement.
func (t TransactionType) Label() string {
	if label, ok := transactionTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

// IsValid reports whether the value is a known TransactionType.
func (t TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTransactionType converts raw input into a TransactionType. Matching is
// case-insensitive.
func ParseTransactionType(value string) (TransactionType, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validTransactionTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction type %q", value)
}
