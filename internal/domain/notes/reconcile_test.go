package notes

import (
	"errors"
	"testing"
	"time"

	"github.com/promissory/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountToSchedule_NonLegacy(t *testing.T) {
	total := decimal.RequireFromString("1000.00")

	// The paid amount is not meaningful for non-legacy notes.
	got, err := AmountToSchedule(total, false, decimal.RequireFromString("400.00"))
	require.NoError(t, err)
	assert.True(t, got.Equal(total))
}

func TestAmountToSchedule_Legacy(t *testing.T) {
	tests := []struct {
		name    string
		total   string
		paid    string
		want    string
		wantErr bool
	}{
		{"partial payment", "1000.00", "400.00", "600.00", false},
		{"nothing paid yet", "1000.00", "0.00", "1000.00", false},
		{"one cent remaining", "1000.00", "999.99", "0.01", false},
		{"negative paid amount", "1000.00", "-1.00", "", true},
		{"paid equals total", "1000.00", "1000.00", "", true},
		{"paid above total", "1000.00", "1200.00", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AmountToSchedule(
				decimal.RequireFromString(tt.total),
				true,
				decimal.RequireFromString(tt.paid),
			)
			if tt.wantErr {
				require.Error(t, err)
				var domainErr *shared.DomainError
				require.True(t, errors.As(err, &domainErr))
				assert.Equal(t, "INVALID_PAYMENT_AMOUNT", domainErr.Code)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)))
		})
	}
}

func TestAmountToSchedule_FlowsIntoSchedule(t *testing.T) {
	// A legacy note of 1000 with 400 already paid schedules 600, not 1000.
	remaining, err := AmountToSchedule(decimal.RequireFromString("1000.00"), true, decimal.RequireFromString("400.00"))
	require.NoError(t, err)

	got := GenerateSchedule(remaining, date(2025, time.April, 1), SplitByCount(2), IntervalMonthly)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"300.00", "300.00"}, amounts(got))
}

func TestAmountToSchedule_FullyPaidLegacySchedulesNothing(t *testing.T) {
	// A legacy note fully paid off never reaches the scheduler; the
	// reconciler rejects it before an empty schedule could be produced.
	_, err := AmountToSchedule(decimal.RequireFromString("500.00"), true, decimal.RequireFromString("500.00"))
	assert.Error(t, err)
}
