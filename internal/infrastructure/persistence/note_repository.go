package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/promissory/backend/internal/domain/notes"
	"github.com/promissory/backend/internal/domain/shared"
	"github.com/promissory/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// noteSortFields is the whitelist of columns exposed for ordering note lists
var noteSortFields = map[string]bool{
	"created_at":   true,
	"updated_at":   true,
	"issue_date":   true,
	"total_amount": true,
	"debtor_name":  true,
	"status":       true,
}

// GormNoteRepository implements NoteRepository using GORM
type GormNoteRepository struct {
	db *gorm.DB
}

// NewGormNoteRepository creates a new GormNoteRepository
func NewGormNoteRepository(db *gorm.DB) *GormNoteRepository {
	return &GormNoteRepository{db: db}
}

func preloadInstallments(db *gorm.DB) *gorm.DB {
	return db.Preload("Installments", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence_index ASC")
	})
}

// FindByID finds a note with its installments ordered by sequence index
func (r *GormNoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*notes.PromissoryNote, error) {
	var model models.PromissoryNoteModel
	if err := preloadInstallments(r.db.WithContext(ctx)).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds notes matching the filter, installments included
func (r *GormNoteRepository) FindAll(ctx context.Context, filter notes.NoteFilter) ([]notes.PromissoryNote, error) {
	var noteModels []models.PromissoryNoteModel
	query := r.applyFilter(preloadInstallments(r.db.WithContext(ctx)).Model(&models.PromissoryNoteModel{}), filter)

	if err := query.Find(&noteModels).Error; err != nil {
		return nil, err
	}

	result := make([]notes.PromissoryNote, len(noteModels))
	for i := range noteModels {
		result[i] = *noteModels[i].ToDomain()
	}
	return result, nil
}

// Count counts notes matching the filter
func (r *GormNoteRepository) Count(ctx context.Context, filter notes.NoteFilter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.PromissoryNoteModel{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a note together with its full installment set.
// The note header and the installment replacement are written in one
// transaction, so readers never see a note with a stale schedule.
func (r *GormNoteRepository) Save(ctx context.Context, note *notes.PromissoryNote) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.PromissoryNoteModelFromDomain(note)
		if err := tx.Save(model).Error; err != nil {
			return err
		}

		// Replace the installment rows wholesale. Rows keep their identity
		// because the domain assigns installment IDs before Save.
		if err := tx.Delete(&models.InstallmentModel{}, "note_id = ?", note.ID).Error; err != nil {
			return err
		}
		if len(note.Installments) == 0 {
			return nil
		}
		rows := make([]*models.InstallmentModel, len(note.Installments))
		for i := range note.Installments {
			rows[i] = models.InstallmentModelFromDomain(&note.Installments[i])
		}
		return tx.Create(rows).Error
	})
}

// Delete removes a note and all of its installments
func (r *GormNoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.InstallmentModel{}, "note_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.PromissoryNoteModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// SetInstallmentStatus transitions one installment from a known status to a
// new one with a compare-and-set, and writes the owning note's derived status
// in the same transaction. A lost race returns ErrConcurrencyConflict.
func (r *GormNoteRepository) SetInstallmentStatus(ctx context.Context, noteID, installmentID uuid.UUID, from, to notes.InstallmentStatus, noteStatus notes.NoteStatus) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		result := tx.Model(&models.InstallmentModel{}).
			Where("id = ? AND note_id = ? AND status = ?", installmentID, noteID, from).
			Updates(map[string]any{"status": to, "updated_at": now})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.InstallmentModel{}).
				Where("id = ? AND note_id = ?", installmentID, noteID).
				Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return shared.ErrNotFound
			}
			return shared.ErrConcurrencyConflict
		}

		noteUpdates := map[string]any{
			"status":     noteStatus,
			"updated_at": now,
			"version":    gorm.Expr("version + 1"),
		}
		if noteStatus == notes.NoteStatusCompleted {
			noteUpdates["completed_at"] = now
		} else {
			noteUpdates["completed_at"] = nil
		}
		return tx.Model(&models.PromissoryNoteModel{}).
			Where("id = ?", noteID).
			Updates(noteUpdates).Error
	})
}

func (r *GormNoteRepository) applyFilter(query *gorm.DB, filter notes.NoteFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.Limit())
	}

	orderBy := filter.OrderBy
	if !noteSortFields[orderBy] {
		orderBy = "created_at"
	}
	orderDir := "ASC"
	if strings.ToLower(filter.OrderDir) == "desc" {
		orderDir = "DESC"
	}
	return query.Order(orderBy + " " + orderDir)
}

func (r *GormNoteRepository) applyFilterWithoutPagination(query *gorm.DB, filter notes.NoteFilter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(debtor_name) LIKE ? OR LOWER(debtor_id_number) LIKE ?", pattern, pattern)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.IsLegacy != nil {
		query = query.Where("is_legacy = ?", *filter.IsLegacy)
	}
	if filter.IssuedFrom != nil {
		query = query.Where("issue_date >= ?", *filter.IssuedFrom)
	}
	if filter.IssuedTo != nil {
		query = query.Where("issue_date <= ?", *filter.IssuedTo)
	}
	return query
}
