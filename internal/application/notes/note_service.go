package notes

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/promissory/backend/internal/domain/notes"
	"github.com/promissory/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DebtorInfo is the directory projection used to prefill a note's debtor fields
type DebtorInfo struct {
	Name     string `json:"name"`
	IDNumber string `json:"id_number"`
	Address  string `json:"address"`
}

// DebtorDirectory resolves a customer id into debtor display fields.
// Read-only; implementations may cache.
type DebtorDirectory interface {
	ResolveDebtor(ctx context.Context, customerID uuid.UUID) (DebtorInfo, error)
}

// NoteService orchestrates note edit sessions against the persistence
// collaborator and the customer directory.
type NoteService struct {
	noteRepo    notes.NoteRepository
	directory   DebtorDirectory
	regenPolicy notes.RegenerationPolicy
}

// NewNoteService creates a new NoteService with the guarded regeneration policy
func NewNoteService(noteRepo notes.NoteRepository, directory DebtorDirectory) *NoteService {
	return &NoteService{
		noteRepo:    noteRepo,
		directory:   directory,
		regenPolicy: notes.RegenGuarded,
	}
}

// ScheduleRequest carries the scheduling inputs shared by previews, creates
// and updates. SplitMode is BY_COUNT or BY_AMOUNT.
type ScheduleRequest struct {
	TotalAmount    decimal.Decimal
	IssueDate      time.Time
	IsLegacy       bool
	PaidAmount     decimal.Decimal
	SplitMode      string
	Count          int
	PerInstallment decimal.Decimal
	Interval       string
}

func (r ScheduleRequest) inputs() (notes.ScheduleInputs, error) {
	policy, err := notes.ParseSplitPolicy(r.SplitMode, r.Count, r.PerInstallment)
	if err != nil {
		return notes.ScheduleInputs{}, err
	}
	interval := notes.Interval(r.Interval)
	if !interval.IsValid() {
		return notes.ScheduleInputs{}, shared.NewDomainError("INVALID_INTERVAL",
			fmt.Sprintf("Interval must be MONTHLY or WEEKLY, got %q", r.Interval))
	}
	return notes.ScheduleInputs{
		TotalAmount: r.TotalAmount,
		IssueDate:   r.IssueDate,
		IsLegacy:    r.IsLegacy,
		PaidAmount:  r.PaidAmount,
		Policy:      policy,
		Interval:    interval,
	}, nil
}

// CreateNoteRequest represents a request to create a note
type CreateNoteRequest struct {
	CustomerID uuid.UUID
	Schedule   ScheduleRequest
	Remark     string
}

// UpdateNoteRequest represents a request to re-edit a note's scheduling
// inputs. Nil fields are left untouched. ConfirmRegeneration is the
// operator's explicit consent to discard recorded payments when the schedule
// must be regenerated.
type UpdateNoteRequest struct {
	IssueDate           *time.Time
	PaidAmount          *decimal.Decimal
	SplitMode           *string
	Count               *int
	PerInstallment      *decimal.Decimal
	Interval            *string
	Remark              *string
	ConfirmRegeneration bool
}

// PreviewSchedule computes the installment preview for the given inputs
// without persisting anything. Degenerate inputs yield an empty preview.
func (s *NoteService) PreviewSchedule(ctx context.Context, req ScheduleRequest) ([]notes.Installment, error) {
	inputs, err := req.inputs()
	if err != nil {
		return nil, err
	}
	session, err := notes.NewCreateSession(inputs)
	if err != nil {
		return nil, err
	}
	return session.Preview(), nil
}

// CreateNote resolves the debtor from the directory, runs a create session
// and persists the confirmed note atomically with its installments.
func (s *NoteService) CreateNote(ctx context.Context, req CreateNoteRequest) (*notes.PromissoryNote, error) {
	debtor, err := s.directory.ResolveDebtor(ctx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve debtor: %w", err)
	}

	inputs, err := req.Schedule.inputs()
	if err != nil {
		return nil, err
	}
	session, err := notes.NewCreateSession(inputs)
	if err != nil {
		return nil, err
	}
	session.SetDebtor(req.CustomerID, debtor.Name, debtor.IDNumber, debtor.Address)
	session.SetRemark(req.Remark)

	note, err := session.Confirm()
	if err != nil {
		return nil, err
	}
	if err := s.noteRepo.Save(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to persist note: %w", err)
	}
	return note, nil
}

// UpdateNote re-edits an existing note under the guarded regeneration policy.
func (s *NoteService) UpdateNote(ctx context.Context, id uuid.UUID, req UpdateNoteRequest) (*notes.PromissoryNote, error) {
	note, err := s.noteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	session, err := notes.NewEditSession(note, s.regenPolicy)
	if err != nil {
		return nil, err
	}
	if req.ConfirmRegeneration {
		if err := session.AllowRegeneration(); err != nil {
			return nil, err
		}
	}
	if req.Remark != nil {
		session.SetRemark(*req.Remark)
	}
	if req.SplitMode != nil {
		count := 0
		if req.Count != nil {
			count = *req.Count
		}
		per := decimal.Zero
		if req.PerInstallment != nil {
			per = *req.PerInstallment
		}
		policy, err := notes.ParseSplitPolicy(*req.SplitMode, count, per)
		if err != nil {
			return nil, err
		}
		if err := session.SetSplitPolicy(policy); err != nil {
			return nil, err
		}
	}
	if req.Interval != nil {
		interval := notes.Interval(*req.Interval)
		if !interval.IsValid() {
			return nil, shared.NewDomainError("INVALID_INTERVAL",
				fmt.Sprintf("Interval must be MONTHLY or WEEKLY, got %q", *req.Interval))
		}
		if err := session.SetInterval(interval); err != nil {
			return nil, err
		}
	}
	if req.PaidAmount != nil {
		if err := session.SetPaidAmount(*req.PaidAmount); err != nil {
			return nil, err
		}
	}
	if req.IssueDate != nil {
		if err := session.SetIssueDate(*req.IssueDate); err != nil {
			return nil, err
		}
	}

	updated, err := session.Confirm()
	if err != nil {
		return nil, err
	}
	if err := s.noteRepo.Save(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to persist note: %w", err)
	}
	return updated, nil
}

// GetNote returns a note with its installments in sequence order
func (s *NoteService) GetNote(ctx context.Context, id uuid.UUID) (*notes.PromissoryNote, error) {
	return s.noteRepo.FindByID(ctx, id)
}

// ListNotes returns a page of notes matching the filter
func (s *NoteService) ListNotes(ctx context.Context, filter notes.NoteFilter) (shared.Paginated[notes.PromissoryNote], error) {
	items, err := s.noteRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[notes.PromissoryNote]{}, err
	}
	total, err := s.noteRepo.Count(ctx, filter)
	if err != nil {
		return shared.Paginated[notes.PromissoryNote]{}, err
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// DeleteNote removes a note together with its installments
func (s *NoteService) DeleteNote(ctx context.Context, id uuid.UUID) error {
	if _, err := s.noteRepo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.noteRepo.Delete(ctx, id)
}

// ToggleInstallment records (or un-records) a payment on one installment.
// The installment transition and the note's derived status are written in one
// transaction with a compare-and-set on the installment's current status, so
// two concurrent toggles resolve to a single well-defined transition.
func (s *NoteService) ToggleInstallment(ctx context.Context, noteID, installmentID uuid.UUID) (*notes.PromissoryNote, error) {
	note, err := s.noteRepo.FindByID(ctx, noteID)
	if err != nil {
		return nil, err
	}

	var from notes.InstallmentStatus
	for i := range note.Installments {
		if note.Installments[i].ID == installmentID {
			from = note.Installments[i].Status
			break
		}
	}

	to, err := note.ToggleInstallment(installmentID)
	if err != nil {
		return nil, err
	}
	if err := s.noteRepo.SetInstallmentStatus(ctx, noteID, installmentID, from, to, note.Status); err != nil {
		return nil, err
	}
	return note, nil
}

// MarkDefaulted records an operator's default decision on a note
func (s *NoteService) MarkDefaulted(ctx context.Context, id uuid.UUID, reason string) (*notes.PromissoryNote, error) {
	note, err := s.noteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := note.MarkDefaulted(reason); err != nil {
		return nil, err
	}
	if err := s.noteRepo.Save(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to persist note: %w", err)
	}
	return note, nil
}

// AttachImage stores the uploaded image URL on the note
func (s *NoteService) AttachImage(ctx context.Context, id uuid.UUID, url string) (*notes.PromissoryNote, error) {
	if url == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Image URL cannot be empty")
	}
	note, err := s.noteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	note.SetImageURL(url)
	if err := s.noteRepo.Save(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to persist note: %w", err)
	}
	return note, nil
}
