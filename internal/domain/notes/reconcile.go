package notes

import (
	"fmt"

	"github.com/promissory/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AmountToSchedule reconciles a note's face value with payments made before
// the note entered the system. For a non-legacy note the whole face value is
// scheduled. For a legacy note the paid amount must be at least zero and
// strictly below the face value; a fully paid note has no business entering
// the scheduler. The returned amount, not the face value, is what flows into
// GenerateSchedule.
func AmountToSchedule(totalAmount decimal.Decimal, isLegacy bool, paidAmount decimal.Decimal) (decimal.Decimal, error) {
	if !isLegacy {
		return totalAmount, nil
	}
	if paidAmount.IsNegative() {
		return decimal.Zero, shared.NewDomainError("INVALID_PAYMENT_AMOUNT",
			fmt.Sprintf("Paid amount %s cannot be negative", paidAmount))
	}
	if paidAmount.GreaterThanOrEqual(totalAmount) {
		return decimal.Zero, shared.NewDomainError("INVALID_PAYMENT_AMOUNT",
			fmt.Sprintf("Paid amount %s must be strictly less than the total amount %s", paidAmount, totalAmount))
	}
	return totalAmount.Sub(paidAmount), nil
}
