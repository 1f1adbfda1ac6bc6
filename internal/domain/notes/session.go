package notes

import (
	"time"

	"github.com/google/uuid"
	"github.com/promissory/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RegenerationPolicy decides what happens when scheduling inputs change on a
// note that already has recorded payments.
type RegenerationPolicy string

const (
	// RegenGuarded refuses to regenerate over a paid installment unless the
	// operator explicitly confirmed via AllowRegeneration. Default.
	RegenGuarded RegenerationPolicy = "GUARDED"
	// RegenDestructive replaces installment identities and statuses freely,
	// but only while no installment payment has been recorded.
	RegenDestructive RegenerationPolicy = "DESTRUCTIVE"
)

// IsValid checks if the policy is a valid RegenerationPolicy
func (p RegenerationPolicy) IsValid() bool {
	return p == RegenGuarded || p == RegenDestructive
}

// ScheduleInputs are the note-level form inputs that drive schedule generation
type ScheduleInputs struct {
	TotalAmount decimal.Decimal
	IssueDate   time.Time
	IsLegacy    bool
	PaidAmount  decimal.Decimal
	Policy      SplitPolicy
	Interval    Interval
}

// NoteEditSession is the stateful orchestrator for creating or editing one
// promissory note. It recomputes the installment preview whenever a
// scheduling input changes, and is the single place that guards recorded
// payments against silent loss: a preview seeded from persisted installments
// keeps their identities and statuses until an input change forces
// regeneration, and regeneration over a paid installment is refused unless
// the operator explicitly allows it.
//
// The session never persists anything itself. Confirm returns the assembled
// note for the caller to hand to the store; when that write fails the session
// still holds the preview, so the operator's edits survive a retry.
type NoteEditSession struct {
	note   *PromissoryNote // nil while creating
	inputs ScheduleInputs

	customerID     uuid.UUID
	debtorName     string
	debtorIDNumber string
	debtorAddress  string
	remark         string

	preview      []Installment
	regenPolicy  RegenerationPolicy
	regenAllowed bool
	regenRefused bool
	dirty        bool
}

// NewCreateSession starts a session for a brand-new note. The initial preview
// is computed immediately; degenerate split inputs simply yield an empty
// preview, while invalid legacy amounts are a blocking validation error.
func NewCreateSession(inputs ScheduleInputs) (*NoteEditSession, error) {
	s := &NoteEditSession{
		inputs:      inputs,
		regenPolicy: RegenGuarded,
		preview:     []Installment{},
	}
	if err := s.regenerate(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewEditSession starts a session over an existing note. The preview is
// seeded directly from the note's persisted installments, preserving each
// installment's identity and payment status, and the scheduling inputs are
// seeded from the note's persisted split policy and interval, so changing a
// single input regenerates with the others as they were. Nothing is
// regenerated until a scheduling input actually changes. Completed and
// defaulted notes cannot be edited.
func NewEditSession(note *PromissoryNote, policy RegenerationPolicy) (*NoteEditSession, error) {
	if note == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Note is required for an edit session")
	}
	if note.Status.IsTerminal() {
		return nil, shared.NewDomainError("INVALID_STATE",
			"Cannot edit a note in "+note.Status.String()+" status")
	}
	if !policy.IsValid() {
		policy = RegenGuarded
	}
	preview := make([]Installment, len(note.Installments))
	copy(preview, note.Installments)
	return &NoteEditSession{
		note: note,
		inputs: ScheduleInputs{
			TotalAmount: note.TotalAmount,
			IssueDate:   note.IssueDate,
			IsLegacy:    note.IsLegacy,
			PaidAmount:  note.PaidAmount,
			Policy:      note.SplitPolicy,
			Interval:    note.Interval,
		},
		customerID:     note.CustomerID,
		debtorName:     note.DebtorName,
		debtorIDNumber: note.DebtorIDNumber,
		debtorAddress:  note.DebtorAddress,
		remark:         note.Remark,
		preview:        preview,
		regenPolicy:    policy,
	}, nil
}

// SetDebtor sets the debtor identity resolved from the customer directory
func (s *NoteEditSession) SetDebtor(customerID uuid.UUID, name, idNumber, address string) {
	s.customerID = customerID
	s.debtorName = name
	s.debtorIDNumber = idNumber
	s.debtorAddress = address
}

// SetRemark sets the note's free-text remark
func (s *NoteEditSession) SetRemark(remark string) {
	s.remark = remark
}

// SetTotalAmount changes the face value. Only valid while creating; the face
// value of a persisted note is immutable.
func (s *NoteEditSession) SetTotalAmount(amount decimal.Decimal) error {
	if s.note != nil {
		return shared.NewDomainError("INVALID_STATE", "The face value of an existing note cannot be changed")
	}
	s.inputs.TotalAmount = amount
	return s.regenerate()
}

// SetLegacy changes the legacy flag. Only valid while creating.
func (s *NoteEditSession) SetLegacy(isLegacy bool) error {
	if s.note != nil {
		return shared.NewDomainError("INVALID_STATE", "The legacy flag of an existing note cannot be changed")
	}
	s.inputs.IsLegacy = isLegacy
	return s.regenerate()
}

// SetPaidAmount changes the amount paid before the note entered the system
func (s *NoteEditSession) SetPaidAmount(amount decimal.Decimal) error {
	s.inputs.PaidAmount = amount
	return s.regenerate()
}

// SetIssueDate changes the date of the first installment
func (s *NoteEditSession) SetIssueDate(date time.Time) error {
	s.inputs.IssueDate = date
	return s.regenerate()
}

// SetSplitPolicy changes how the scheduled amount is divided
func (s *NoteEditSession) SetSplitPolicy(policy SplitPolicy) error {
	s.inputs.Policy = policy
	return s.regenerate()
}

// SetInterval changes the cadence between installments
func (s *NoteEditSession) SetInterval(interval Interval) error {
	s.inputs.Interval = interval
	return s.regenerate()
}

// AllowRegeneration records the operator's explicit consent to discard
// recorded payments under the guarded policy, and recomputes the preview.
func (s *NoteEditSession) AllowRegeneration() error {
	s.regenAllowed = true
	if s.dirty {
		return s.regenerate()
	}
	return nil
}

// Preview returns a copy of the current installment preview in sequence order
func (s *NoteEditSession) Preview() []Installment {
	out := make([]Installment, len(s.preview))
	copy(out, s.preview)
	return out
}

// Dirty reports whether a scheduling input changed since the session started
func (s *NoteEditSession) Dirty() bool {
	return s.dirty
}

func errRegenerationOverPaid() error {
	return shared.NewDomainError("REGENERATION_OVER_PAID",
		"Regenerating the schedule would discard recorded installment payments; confirm explicitly to proceed")
}

// regenerate recomputes the preview from the current inputs. The previous
// preview is kept when validation fails, so a typo does not wipe the form.
// A guarded refusal keeps the changed input but marks the session refused;
// Confirm stays blocked until a later regeneration succeeds, so the stale
// preview can never be committed against the new inputs.
func (s *NoteEditSession) regenerate() error {
	if s.note != nil && s.note.HasPaidInstallments() {
		if s.regenPolicy == RegenDestructive || !s.regenAllowed {
			s.dirty = true
			s.regenRefused = true
			return errRegenerationOverPaid()
		}
	}
	amount, err := AmountToSchedule(s.inputs.TotalAmount, s.inputs.IsLegacy, s.inputs.PaidAmount)
	if err != nil {
		s.dirty = true
		return err
	}
	s.preview = GenerateSchedule(amount, s.inputs.IssueDate, s.inputs.Policy, s.inputs.Interval)
	s.dirty = true
	s.regenRefused = false
	return nil
}

// Confirm validates the session and assembles the final note with its
// installments. The caller persists the result; the session keeps its state,
// so a failed write can be retried without losing the operator's edits.
func (s *NoteEditSession) Confirm() (*PromissoryNote, error) {
	if s.regenRefused {
		return nil, errRegenerationOverPaid()
	}
	if _, err := AmountToSchedule(s.inputs.TotalAmount, s.inputs.IsLegacy, s.inputs.PaidAmount); err != nil {
		return nil, err
	}
	if len(s.preview) == 0 {
		return nil, shared.NewDomainError("SCHEDULE_EMPTY",
			"Cannot confirm a note with no installments; check the amount, split policy and interval")
	}

	if s.note == nil {
		note, err := NewPromissoryNote(
			s.customerID,
			s.debtorName,
			s.inputs.TotalAmount,
			s.inputs.IssueDate,
			s.inputs.IsLegacy,
			s.inputs.PaidAmount,
		)
		if err != nil {
			return nil, err
		}
		note.DebtorIDNumber = s.debtorIDNumber
		note.DebtorAddress = s.debtorAddress
		note.Remark = s.remark
		note.SplitPolicy = s.inputs.Policy
		note.Interval = s.inputs.Interval
		if err := note.ReplaceSchedule(s.Preview()); err != nil {
			return nil, err
		}
		return note, nil
	}

	s.note.PaidAmount = s.inputs.PaidAmount
	s.note.IssueDate = s.inputs.IssueDate
	s.note.SplitPolicy = s.inputs.Policy
	s.note.Interval = s.inputs.Interval
	s.note.DebtorIDNumber = s.debtorIDNumber
	s.note.DebtorAddress = s.debtorAddress
	s.note.Remark = s.remark
	if s.dirty {
		if err := s.note.ReplaceSchedule(s.Preview()); err != nil {
			return nil, err
		}
		s.note.RefreshStatus()
	} else if err := s.note.CheckScheduleInvariants(); err != nil {
		return nil, err
	}
	return s.note, nil
}
