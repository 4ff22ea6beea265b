package stock

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/angelmondragon/inventory-backend/internal/ledger"
	"github.com/angelmondragon/inventory-backend/pkg/db/models"
	"github.com/angelmondragon/inventory-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/inventory-backend/pkg/errors"
)

const maxQuantityMessage = "must be at most 2147483647"

// DeltaFor turns a submitted movement into a signed delta. For ADJUST the
// quantity is the absolute target and current is the stock read under the
// item lock.
func DeltaFor(txType enums.TransactionType, quantity, current int) (int, error) {
	switch txType {
	case enums.TransactionTypeIn:
		return quantity, nil
	case enums.TransactionTypeOut:
		return -quantity, nil
	case enums.TransactionTypeAdjust:
		return quantity - current, nil
	default:
		return 0, fmt.Errorf("invalid transaction type %q", txType)
	}
}

// ValidateSubmission checks a stock form submission before any row is read.
func ValidateSubmission(input SubmitInput) (enums.TransactionType, error) {
	fields := map[string]string{}
	txType, err := enums.ParseTransactionType(input.Type)
	switch {
	case err != nil:
		fields["transaction_type"] = "must be one of IN, OUT, ADJUST"
	case input.Quantity > models.MaxQuantity:
		fields["quantity"] = maxQuantityMessage
	case txType == enums.TransactionTypeAdjust && input.Quantity < 0:
		fields["quantity"] = "must be greater than or equal to 0"
	case txType != enums.TransactionTypeAdjust && input.Quantity < 1:
		fields["quantity"] = "must be greater than or equal to 1"
	}
	checkReason(input.Reason, fields)
	if len(fields) > 0 {
		return "", pkgerrors.Validation("invalid stock update", fields)
	}
	return txType, nil
}

func validateApply(input ApplyInput) error {
	fields := map[string]string{}
	switch input.Type {
	case enums.TransactionTypeIn:
		if input.Delta <= 0 {
			fields["delta"] = "must be positive for IN"
		}
	case enums.TransactionTypeOut:
		if input.Delta >= 0 {
			fields["delta"] = "must be negative for OUT"
		}
	case enums.TransactionTypeAdjust:
	default:
		fields["transaction_type"] = "must be one of IN, OUT, ADJUST"
	}
	if input.Delta > models.MaxQuantity || input.Delta < -models.MaxQuantity {
		fields["delta"] = maxQuantityMessage
	}
	checkReason(input.Reason, fields)
	if len(fields) > 0 {
		return pkgerrors.Validation("invalid stock update", fields)
	}
	return nil
}

func checkReason(reason string, fields map[string]string) {
	if utf8.RuneCountInString(strings.TrimSpace(reason)) > ledger.MaxReasonLength {
		fields["reason"] = "must be at most 200 characters"
	}
}
