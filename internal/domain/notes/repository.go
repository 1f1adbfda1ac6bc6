package notes

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/promissory/backend/internal/domain/shared"
)

// NoteFilter defines filtering options for note queries
type NoteFilter struct {
	shared.Filter
	CustomerID *uuid.UUID  // Filter by customer
	Status     *NoteStatus // Filter by note status
	IsLegacy   *bool       // Filter legacy notes
	IssuedFrom *time.Time  // Filter by issue date range start
	IssuedTo   *time.Time  // Filter by issue date range end
}

// NoteRepository is the persistence collaborator for promissory notes.
//
// Save and Delete are atomic over the note header and its installment rows: a
// note is never observable with a stale or missing installment set.
// SetInstallmentStatus is a compare-and-set so concurrent toggles on the same
// installment resolve to one well-defined transition.
type NoteRepository interface {
	// FindByID finds a note with its installments ordered by sequence index
	FindByID(ctx context.Context, id uuid.UUID) (*PromissoryNote, error)

	// FindAll finds notes matching the filter, installments included
	FindAll(ctx context.Context, filter NoteFilter) ([]PromissoryNote, error)

	// Count counts notes matching the filter
	Count(ctx context.Context, filter NoteFilter) (int64, error)

	// Save creates or updates a note together with its full installment set
	Save(ctx context.Context, note *PromissoryNote) error

	// Delete removes a note and all of its installments
	Delete(ctx context.Context, id uuid.UUID) error

	// SetInstallmentStatus transitions one installment from a known status to
	// a new one and writes the owning note's derived status in the same
	// transaction. Returns shared.ErrConcurrencyConflict when the installment
	// is no longer in the expected status.
	SetInstallmentStatus(ctx context.Context, noteID, installmentID uuid.UUID, from, to InstallmentStatus, noteStatus NoteStatus) error
}
