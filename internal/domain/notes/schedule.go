package notes

import (
	"fmt"
	"strings"
	"time"

	"github.com/promissory/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Interval is the calendar cadence between installments
type Interval string

const (
	// IntervalMonthly advances the due date one calendar month per step using
	// Go's normalized date arithmetic: when the start day does not exist in a
	// target month the date rolls over into the next month (Jan 31 + 1 month
	// is Mar 2 or Mar 3). Successive due dates still strictly increase.
	IntervalMonthly Interval = "MONTHLY"
	// IntervalWeekly advances the due date seven days per step.
	IntervalWeekly Interval = "WEEKLY"
)

// IsValid checks if the interval is a valid Interval
func (iv Interval) IsValid() bool {
	return iv == IntervalMonthly || iv == IntervalWeekly
}

// String returns the string representation of Interval
func (iv Interval) String() string {
	return string(iv)
}

// dueDateAt returns the due date for the step-th installment counted from start
func (iv Interval) dueDateAt(start time.Time, step int) time.Time {
	if iv == IntervalWeekly {
		return start.AddDate(0, 0, 7*step)
	}
	return start.AddDate(0, step, 0)
}

type splitMode int

const (
	splitByCount splitMode = iota + 1
	splitByAmount
)

// SplitPolicy determines how an amount is divided into installments: fix the
// number of installments and derive their amount, or fix the per-installment
// amount and derive their number.
type SplitPolicy struct {
	mode  splitMode
	count int
	per   decimal.Decimal
}

// SplitByCount fixes the number of installments
func SplitByCount(n int) SplitPolicy {
	return SplitPolicy{mode: splitByCount, count: n}
}

// SplitByAmount fixes the per-installment amount
func SplitByAmount(per decimal.Decimal) SplitPolicy {
	return SplitPolicy{mode: splitByAmount, per: per}
}

// ByCount reports whether the policy fixes the installment count
func (p SplitPolicy) ByCount() bool { return p.mode == splitByCount }

// Mode returns the wire name of the split mode, or "" for the zero policy
func (p SplitPolicy) Mode() string {
	switch p.mode {
	case splitByCount:
		return "BY_COUNT"
	case splitByAmount:
		return "BY_AMOUNT"
	}
	return ""
}

// Count returns the fixed installment count for a by-count policy
func (p SplitPolicy) Count() int { return p.count }

// PerInstallment returns the fixed amount for a by-amount policy
func (p SplitPolicy) PerInstallment() decimal.Decimal { return p.per }

// ParseSplitPolicy normalizes a loose (mode, count, amount) triple from the
// boundary into a SplitPolicy. Mode is matched case-insensitively.
func ParseSplitPolicy(mode string, count int, per decimal.Decimal) (SplitPolicy, error) {
	switch strings.ToUpper(mode) {
	case "BY_COUNT", "COUNT":
		return SplitByCount(count), nil
	case "BY_AMOUNT", "AMOUNT":
		return SplitByAmount(per), nil
	}
	return SplitPolicy{}, shared.NewDomainError("INVALID_SPLIT_MODE",
		fmt.Sprintf("Split mode must be BY_COUNT or BY_AMOUNT, got %q", mode))
}

// split resolves the installment count and the unrounded per-installment
// amount. The by-amount per is normalized to two decimal places before the
// count is derived, so the count and the emitted amounts always agree and the
// absorbing last installment stays positive. ok is false for degenerate
// inputs: amount fixed at or below zero, count below one, per-installment
// rounding to zero or below.
func (p SplitPolicy) split(amount decimal.Decimal) (n int, per decimal.Decimal, ok bool) {
	switch p.mode {
	case splitByCount:
		if p.count < 1 {
			return 0, decimal.Zero, false
		}
		return p.count, amount.Div(decimal.NewFromInt(int64(p.count))), true
	case splitByAmount:
		per = p.per.Round(2)
		if per.LessThanOrEqual(decimal.Zero) {
			return 0, decimal.Zero, false
		}
		n = int(amount.Div(per).Ceil().IntPart())
		return n, per, true
	}
	return 0, decimal.Zero, false
}

// GenerateSchedule splits amountToSplit into a dated installment sequence.
// It is a pure function: no clock, no I/O.
//
// Degenerate inputs (non-positive amount, count or per-installment amount,
// or an unknown interval) yield an empty sequence rather than an error;
// callers display "nothing scheduled yet".
//
// Every installment amount is the per-installment share rounded half-up to
// two decimal places, except the last, which carries whatever remains so the
// sequence sums to amountToSplit exactly, to the cent.
func GenerateSchedule(amountToSplit decimal.Decimal, startDate time.Time, policy SplitPolicy, interval Interval) []Installment {
	if amountToSplit.LessThanOrEqual(decimal.Zero) || !interval.IsValid() {
		return []Installment{}
	}
	n, per, ok := policy.split(amountToSplit)
	if !ok || n < 1 {
		return []Installment{}
	}

	rounded := per.Round(2)
	cadence := strings.ToLower(string(interval))

	installments := make([]Installment, n)
	allocated := decimal.Zero
	for i := 0; i < n; i++ {
		amount := rounded
		if i == n-1 {
			// The last installment absorbs the rounding remainder.
			amount = amountToSplit.Sub(allocated)
		}
		allocated = allocated.Add(amount)

		installments[i] = Installment{
			BaseEntity:    shared.NewBaseEntity(),
			SequenceIndex: i,
			Amount:        amount,
			DueDate:       interval.dueDateAt(startDate, i),
			Status:        InstallmentStatusPending,
			Description:   fmt.Sprintf("installment %d of %d, %s", i+1, n, cadence),
		}
	}
	return installments
}
