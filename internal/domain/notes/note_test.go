package notes

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestNote(t *testing.T) *PromissoryNote {
	t.Helper()
	note, err := NewPromissoryNote(
		uuid.New(),
		"Test Debtor",
		decimal.RequireFromString("300.00"),
		date(2025, time.May, 1),
		false,
		decimal.Zero,
	)
	require.NoError(t, err)

	note.SplitPolicy = SplitByCount(3)
	note.Interval = IntervalMonthly
	schedule := GenerateSchedule(note.RemainingAmount(), note.IssueDate, note.SplitPolicy, note.Interval)
	require.NoError(t, note.ReplaceSchedule(schedule))
	return note
}

func TestNewPromissoryNote_Validation(t *testing.T) {
	issue := date(2025, time.May, 1)

	t.Run("rejects empty customer", func(t *testing.T) {
		_, err := NewPromissoryNote(uuid.Nil, "Debtor", decimal.NewFromInt(100), issue, false, decimal.Zero)
		assert.Error(t, err)
	})

	t.Run("rejects empty debtor name", func(t *testing.T) {
		_, err := NewPromissoryNote(uuid.New(), "", decimal.NewFromInt(100), issue, false, decimal.Zero)
		assert.Error(t, err)
	})

	t.Run("rejects non-positive total", func(t *testing.T) {
		_, err := NewPromissoryNote(uuid.New(), "Debtor", decimal.Zero, issue, false, decimal.Zero)
		assert.Error(t, err)
	})

	t.Run("rejects zero issue date", func(t *testing.T) {
		_, err := NewPromissoryNote(uuid.New(), "Debtor", decimal.NewFromInt(100), time.Time{}, false, decimal.Zero)
		assert.Error(t, err)
	})

	t.Run("rejects legacy paid at face value", func(t *testing.T) {
		_, err := NewPromissoryNote(uuid.New(), "Debtor", decimal.NewFromInt(100), issue, true, decimal.NewFromInt(100))
		assert.Error(t, err)
	})

	t.Run("clears paid amount for non-legacy notes", func(t *testing.T) {
		note, err := NewPromissoryNote(uuid.New(), "Debtor", decimal.NewFromInt(100), issue, false, decimal.NewFromInt(40))
		require.NoError(t, err)
		assert.True(t, note.PaidAmount.IsZero())
		assert.Equal(t, NoteStatusActive, note.Status)
	})
}

func TestPromissoryNote_RemainingAmount(t *testing.T) {
	issue := date(2025, time.May, 1)

	legacy, err := NewPromissoryNote(uuid.New(), "Debtor", decimal.RequireFromString("1000.00"), issue, true, decimal.RequireFromString("400.00"))
	require.NoError(t, err)
	assert.True(t, legacy.RemainingAmount().Equal(decimal.RequireFromString("600.00")))

	fresh, err := NewPromissoryNote(uuid.New(), "Debtor", decimal.RequireFromString("1000.00"), issue, false, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, fresh.RemainingAmount().Equal(decimal.RequireFromString("1000.00")))
}

func TestPromissoryNote_ToggleInstallment(t *testing.T) {
	note := createTestNote(t)
	target := note.Installments[1].ID

	status, err := note.ToggleInstallment(target)
	require.NoError(t, err)
	assert.Equal(t, InstallmentStatusPaid, status)
	assert.Equal(t, NoteStatusActive, note.Status)

	// Toggling twice restores the original state.
	status, err = note.ToggleInstallment(target)
	require.NoError(t, err)
	assert.Equal(t, InstallmentStatusPending, status)

	t.Run("unknown installment", func(t *testing.T) {
		_, err := note.ToggleInstallment(uuid.New())
		assert.Error(t, err)
	})

	t.Run("late flips to paid, then back to pending", func(t *testing.T) {
		require.NoError(t, note.Installments[0].SetLate())

		status, err := note.ToggleInstallment(note.Installments[0].ID)
		require.NoError(t, err)
		assert.Equal(t, InstallmentStatusPaid, status)

		status, err = note.ToggleInstallment(note.Installments[0].ID)
		require.NoError(t, err)
		assert.Equal(t, InstallmentStatusPending, status)
	})
}

func TestPromissoryNote_CompletionDerivation(t *testing.T) {
	note := createTestNote(t)

	for i := range note.Installments {
		_, err := note.ToggleInstallment(note.Installments[i].ID)
		require.NoError(t, err)
	}
	assert.Equal(t, NoteStatusCompleted, note.Status)
	require.NotNil(t, note.CompletedAt)

	// Flipping any installment back reopens the note.
	_, err := note.ToggleInstallment(note.Installments[2].ID)
	require.NoError(t, err)
	assert.Equal(t, NoteStatusActive, note.Status)
	assert.Nil(t, note.CompletedAt)
}

func TestPromissoryNote_Defaulted(t *testing.T) {
	note := createTestNote(t)
	require.NoError(t, note.MarkDefaulted("missed three consecutive payments"))
	assert.Equal(t, NoteStatusDefaulted, note.Status)
	require.NotNil(t, note.DefaultedAt)

	t.Run("terminal override survives installment state", func(t *testing.T) {
		assert.Equal(t, NoteStatusDefaulted, note.RefreshStatus())
	})

	t.Run("rejects payments", func(t *testing.T) {
		_, err := note.ToggleInstallment(note.Installments[0].ID)
		assert.Error(t, err)
	})

	t.Run("rejects regeneration", func(t *testing.T) {
		err := note.ReplaceSchedule(GenerateSchedule(note.RemainingAmount(), note.IssueDate, SplitByCount(2), IntervalMonthly))
		assert.Error(t, err)
	})

	t.Run("rejects a second default", func(t *testing.T) {
		assert.Error(t, note.MarkDefaulted("again"))
	})

	t.Run("requires a reason", func(t *testing.T) {
		fresh := createTestNote(t)
		assert.Error(t, fresh.MarkDefaulted(""))
	})
}

func TestPromissoryNote_CheckScheduleInvariants(t *testing.T) {
	t.Run("valid schedule passes", func(t *testing.T) {
		note := createTestNote(t)
		assert.NoError(t, note.CheckScheduleInvariants())
	})

	t.Run("sum drift detected", func(t *testing.T) {
		note := createTestNote(t)
		note.Installments[0].Amount = note.Installments[0].Amount.Add(decimal.RequireFromString("0.01"))
		assert.Error(t, note.CheckScheduleInvariants())
	})

	t.Run("gap in sequence detected", func(t *testing.T) {
		note := createTestNote(t)
		note.Installments[1].SequenceIndex = 5
		assert.Error(t, note.CheckScheduleInvariants())
	})

	t.Run("non-increasing due dates detected", func(t *testing.T) {
		note := createTestNote(t)
		note.Installments[1].DueDate = note.Installments[0].DueDate
		assert.Error(t, note.CheckScheduleInvariants())
	})

	t.Run("sub-cent amount detected", func(t *testing.T) {
		note := createTestNote(t)
		note.Installments[0].Amount = decimal.RequireFromString("99.999")
		assert.Error(t, note.CheckScheduleInvariants())
	})

	t.Run("non-positive amount detected", func(t *testing.T) {
		note := createTestNote(t)
		// Shift value onto the first installment so the sum still matches.
		note.Installments[0].Amount = decimal.RequireFromString("300.50")
		note.Installments[1].Amount = decimal.RequireFromString("-0.50")
		note.Installments[2].Amount = decimal.Zero
		assert.Error(t, note.CheckScheduleInvariants())
	})

	t.Run("unscheduled balance with no installments detected", func(t *testing.T) {
		note := createTestNote(t)
		note.Installments = nil
		assert.Error(t, note.CheckScheduleInvariants())
	})
}

func TestReplaceSchedule_AssignsOwnership(t *testing.T) {
	note := createTestNote(t)
	for _, inst := range note.Installments {
		assert.Equal(t, note.ID, inst.NoteID)
	}
}

func TestNoteStatus(t *testing.T) {
	assert.True(t, NoteStatusActive.IsValid())
	assert.True(t, NoteStatusCompleted.IsValid())
	assert.True(t, NoteStatusDefaulted.IsValid())
	assert.False(t, NoteStatus("CLOSED").IsValid())

	assert.False(t, NoteStatusActive.IsTerminal())
	assert.True(t, NoteStatusCompleted.IsTerminal())
	assert.True(t, NoteStatusDefaulted.IsTerminal())
}

func TestInstallmentStatus_Toggled(t *testing.T) {
	tests := []struct {
		from InstallmentStatus
		want InstallmentStatus
	}{
		{InstallmentStatusPending, InstallmentStatusPaid},
		{InstallmentStatusLate, InstallmentStatusPaid},
		{InstallmentStatusPaid, InstallmentStatusPending},
	}
	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.Toggled())
		})
	}
}
