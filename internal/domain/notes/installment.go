package notes

import (
	"time"

	"github.com/google/uuid"
	"github.com/promissory/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InstallmentStatus represents the payment status of a single installment
type InstallmentStatus string

const (
	InstallmentStatusPending InstallmentStatus = "PENDING" // Not yet paid, not yet overdue-flagged
	InstallmentStatusLate    InstallmentStatus = "LATE"    // Set by an external audit, never derived here
	InstallmentStatusPaid    InstallmentStatus = "PAID"    // Payment recorded
)

// IsValid checks if the status is a valid InstallmentStatus
func (s InstallmentStatus) IsValid() bool {
	switch s {
	case InstallmentStatusPending, InstallmentStatusLate, InstallmentStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of InstallmentStatus
func (s InstallmentStatus) String() string {
	return string(s)
}

// IsPaid returns true if the installment has a recorded payment
func (s InstallmentStatus) IsPaid() bool {
	return s == InstallmentStatusPaid
}

// Toggled returns the status after recording (or un-recording) a payment.
// PENDING and LATE both flip to PAID; PAID flips back to PENDING, never to
// LATE, since lateness is owned by an external audit process. Applying the
// toggle twice always restores the pre-toggle payment state.
func (s InstallmentStatus) Toggled() InstallmentStatus {
	if s == InstallmentStatusPaid {
		return InstallmentStatusPending
	}
	return InstallmentStatusPaid
}

// Installment is one dated portion of a note's scheduled balance.
// It is created only as part of a note's schedule (re)generation; after
// creation only its status changes, through TogglePayment.
type Installment struct {
	shared.BaseEntity
	NoteID        uuid.UUID         `json:"note_id"`
	SequenceIndex int               `json:"sequence_index"`
	Amount        decimal.Decimal   `json:"amount"`
	DueDate       time.Time         `json:"due_date"`
	Status        InstallmentStatus `json:"status"`
	Description   string            `json:"description"`
}

// TogglePayment flips the installment's payment state and returns the new status.
func (i *Installment) TogglePayment() InstallmentStatus {
	i.Status = i.Status.Toggled()
	i.Touch()
	return i.Status
}

// SetLate marks the installment late. It is a no-op for paid installments;
// the engine accepts the flag but never computes it from the clock.
func (i *Installment) SetLate() error {
	if i.Status == InstallmentStatusPaid {
		return shared.NewDomainError("INVALID_STATE", "Cannot mark a paid installment as late")
	}
	i.Status = InstallmentStatusLate
	i.Touch()
	return nil
}
