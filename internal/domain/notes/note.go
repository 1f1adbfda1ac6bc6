package notes

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/promissory/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// NoteStatus represents the lifecycle status of a promissory note
type NoteStatus string

const (
	NoteStatusActive    NoteStatus = "ACTIVE"    // Open, with unpaid installments
	NoteStatusCompleted NoteStatus = "COMPLETED" // Every installment paid
	NoteStatusDefaulted NoteStatus = "DEFAULTED" // Operator decision, terminal override
)

// IsValid checks if the status is a valid NoteStatus
func (s NoteStatus) IsValid() bool {
	switch s {
	case NoteStatusActive, NoteStatusCompleted, NoteStatusDefaulted:
		return true
	}
	return false
}

// String returns the string representation of NoteStatus
func (s NoteStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the note no longer accepts schedule regeneration
func (s NoteStatus) IsTerminal() bool {
	return s == NoteStatusCompleted || s == NoteStatusDefaulted
}

// PromissoryNote is the aggregate root for a debt instrument repaid through a
// schedule of installments. The face value, legacy flag and pre-system paid
// amount are fixed at creation; scheduling inputs may change through a
// NoteEditSession, and installment payment state changes through the toggle.
type PromissoryNote struct {
	shared.BaseAggregateRoot
	CustomerID     uuid.UUID       `json:"customer_id"`
	DebtorName     string          `json:"debtor_name"`
	DebtorIDNumber string          `json:"debtor_id_number"`
	DebtorAddress  string          `json:"debtor_address"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	IssueDate      time.Time       `json:"issue_date"`
	IsLegacy       bool            `json:"is_legacy"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	SplitPolicy    SplitPolicy     `json:"-"`
	Interval       Interval        `json:"interval"`
	Status         NoteStatus      `json:"status"`
	Installments   []Installment   `json:"installments"`
	Remark         string          `json:"remark"`
	ImageURL       string          `json:"image_url"`
	CompletedAt    *time.Time      `json:"completed_at"`
	DefaultedAt    *time.Time      `json:"defaulted_at"`
	DefaultReason  string          `json:"default_reason"`
}

// NewPromissoryNote creates a new promissory note without a schedule attached.
// For legacy notes issueDate is the date of the first still-pending
// installment, not the true origination date.
func NewPromissoryNote(
	customerID uuid.UUID,
	debtorName string,
	totalAmount decimal.Decimal,
	issueDate time.Time,
	isLegacy bool,
	paidAmount decimal.Decimal,
) (*PromissoryNote, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if debtorName == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_NAME", "Debtor name cannot be empty")
	}
	if totalAmount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Total amount must be positive")
	}
	if issueDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_ISSUE_DATE", "Issue date is required")
	}
	if _, err := AmountToSchedule(totalAmount, isLegacy, paidAmount); err != nil {
		return nil, err
	}
	if !isLegacy {
		paidAmount = decimal.Zero
	}

	return &PromissoryNote{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		DebtorName:        debtorName,
		TotalAmount:       totalAmount,
		IssueDate:         issueDate,
		IsLegacy:          isLegacy,
		PaidAmount:        paidAmount,
		Status:            NoteStatusActive,
		Installments:      []Installment{},
	}, nil
}

// RemainingAmount is the amount actually scheduled into installments:
// the face value minus, for legacy notes, what was paid before entry.
func (n *PromissoryNote) RemainingAmount() decimal.Decimal {
	if n.IsLegacy {
		return n.TotalAmount.Sub(n.PaidAmount)
	}
	return n.TotalAmount
}

// HasPaidInstallments returns true if any installment payment has been recorded
func (n *PromissoryNote) HasPaidInstallments() bool {
	for i := range n.Installments {
		if n.Installments[i].Status.IsPaid() {
			return true
		}
	}
	return false
}

// ReplaceSchedule swaps in a freshly generated installment set, discarding the
// previous installment identities and statuses. Callers go through a
// NoteEditSession, which guards against discarding recorded payments.
func (n *PromissoryNote) ReplaceSchedule(installments []Installment) error {
	if n.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot regenerate the schedule of a %s note", n.Status))
	}
	for i := range installments {
		installments[i].NoteID = n.ID
	}
	n.Installments = installments
	if err := n.CheckScheduleInvariants(); err != nil {
		return err
	}
	n.Touch()
	n.IncrementVersion()
	return nil
}

// ToggleInstallment records (or un-records) a payment on one installment and
// re-derives the note status. Returns the installment's new status.
func (n *PromissoryNote) ToggleInstallment(installmentID uuid.UUID) (InstallmentStatus, error) {
	if n.Status == NoteStatusDefaulted {
		return "", shared.NewDomainError("INVALID_STATE", "Cannot record payments on a DEFAULTED note")
	}
	for i := range n.Installments {
		if n.Installments[i].ID == installmentID {
			status := n.Installments[i].TogglePayment()
			n.RefreshStatus()
			n.Touch()
			n.IncrementVersion()
			return status, nil
		}
	}
	return "", shared.NewDomainError("NOT_FOUND",
		fmt.Sprintf("Installment %s does not belong to this note", installmentID))
}

// RefreshStatus re-derives the note status from its installments: COMPLETED
// exactly when every installment is paid, otherwise ACTIVE. DEFAULTED is a
// terminal operator override and is never changed here.
func (n *PromissoryNote) RefreshStatus() NoteStatus {
	if n.Status == NoteStatusDefaulted {
		return n.Status
	}
	if len(n.Installments) > 0 && n.allInstallmentsPaid() {
		if n.Status != NoteStatusCompleted {
			now := time.Now()
			n.Status = NoteStatusCompleted
			n.CompletedAt = &now
		}
		return n.Status
	}
	n.Status = NoteStatusActive
	n.CompletedAt = nil
	return n.Status
}

func (n *PromissoryNote) allInstallmentsPaid() bool {
	for i := range n.Installments {
		if !n.Installments[i].Status.IsPaid() {
			return false
		}
	}
	return true
}

// MarkDefaulted records an operator's default decision. Terminal.
func (n *PromissoryNote) MarkDefaulted(reason string) error {
	if n.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot default a note in %s status", n.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Default reason is required")
	}
	now := time.Now()
	n.Status = NoteStatusDefaulted
	n.DefaultedAt = &now
	n.DefaultReason = reason
	n.Touch()
	n.IncrementVersion()
	return nil
}

// SetImageURL attaches the stored image of the physical note
func (n *PromissoryNote) SetImageURL(url string) {
	n.ImageURL = url
	n.Touch()
	n.IncrementVersion()
}

// SetRemark sets the free-text remark
func (n *PromissoryNote) SetRemark(remark string) {
	n.Remark = remark
	n.Touch()
	n.IncrementVersion()
}

// CheckScheduleInvariants validates the persisted-note invariants: the
// installment amounts sum exactly to the remaining amount, sequence indexes
// are a contiguous 0..n-1 range, due dates strictly increase with the index,
// and every amount is positive with at most two fractional digits. A
// remaining amount above zero requires a non-empty schedule.
func (n *PromissoryNote) CheckScheduleInvariants() error {
	remaining := n.RemainingAmount()
	if remaining.GreaterThan(decimal.Zero) && len(n.Installments) == 0 {
		return shared.NewDomainError("SCHEDULE_EMPTY",
			"A note with an unscheduled balance must have at least one installment")
	}

	sum := decimal.Zero
	for i := range n.Installments {
		inst := &n.Installments[i]
		if inst.SequenceIndex != i {
			return shared.NewDomainError("INVALID_SCHEDULE",
				fmt.Sprintf("Installment at position %d has sequence index %d", i, inst.SequenceIndex))
		}
		if i > 0 && !inst.DueDate.After(n.Installments[i-1].DueDate) {
			return shared.NewDomainError("INVALID_SCHEDULE",
				fmt.Sprintf("Due date of installment %d does not follow installment %d", i, i-1))
		}
		if inst.Amount.LessThanOrEqual(decimal.Zero) {
			return shared.NewDomainError("INVALID_SCHEDULE",
				fmt.Sprintf("Installment %d amount %s is not positive", i, inst.Amount))
		}
		if inst.Amount.Exponent() < -2 {
			return shared.NewDomainError("INVALID_SCHEDULE",
				fmt.Sprintf("Installment %d amount %s has more than two decimal places", i, inst.Amount))
		}
		sum = sum.Add(inst.Amount)
	}
	if len(n.Installments) > 0 && !sum.Equal(remaining) {
		return shared.NewDomainError("INVALID_SCHEDULE",
			fmt.Sprintf("Installments sum to %s but the scheduled amount is %s", sum, remaining))
	}
	return nil
}
