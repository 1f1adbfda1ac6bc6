package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/promissory/backend/internal/domain/notes"
	"github.com/promissory/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PromissoryNoteModel is the persistence model for the PromissoryNote
// aggregate root. Installments are a separate table joined by NoteID so
// single-installment status transitions can be written without rewriting the
// whole aggregate.
type PromissoryNoteModel struct {
	AggregateModel
	CustomerID     uuid.UUID          `gorm:"type:uuid;not null;index"`
	DebtorName     string             `gorm:"type:varchar(200);not null"`
	DebtorIDNumber string             `gorm:"type:varchar(50)"`
	DebtorAddress  string             `gorm:"type:varchar(500)"`
	TotalAmount    decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	IssueDate      time.Time          `gorm:"not null;index"`
	IsLegacy       bool               `gorm:"not null;default:false;index"`
	PaidAmount     decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	SplitMode      string             `gorm:"type:varchar(20);not null;default:''"`
	SplitCount     int                `gorm:"not null;default:0"`
	PerInstallment decimal.Decimal    `gorm:"type:decimal(18,2);not null;default:0"`
	Interval       notes.Interval     `gorm:"type:varchar(20);not null;default:''"`
	Status         notes.NoteStatus   `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	Installments   []InstallmentModel `gorm:"foreignKey:NoteID;references:ID;constraint:OnDelete:CASCADE"`
	Remark         string             `gorm:"type:text"`
	ImageURL       string             `gorm:"type:varchar(1000)"`
	CompletedAt    *time.Time
	DefaultedAt    *time.Time
	DefaultReason  string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (PromissoryNoteModel) TableName() string {
	return "promissory_notes"
}

// ToDomain converts the persistence model to a domain PromissoryNote.
// Installments come back in sequence order when the query preloaded them so.
func (m *PromissoryNoteModel) ToDomain() *notes.PromissoryNote {
	installments := make([]notes.Installment, len(m.Installments))
	for i := range m.Installments {
		installments[i] = *m.Installments[i].ToDomain()
	}
	n := &notes.PromissoryNote{
		CustomerID:     m.CustomerID,
		DebtorName:     m.DebtorName,
		DebtorIDNumber: m.DebtorIDNumber,
		DebtorAddress:  m.DebtorAddress,
		TotalAmount:    m.TotalAmount,
		IssueDate:      m.IssueDate,
		IsLegacy:       m.IsLegacy,
		PaidAmount:     m.PaidAmount,
		Interval:       m.Interval,
		Status:         m.Status,
		Installments:   installments,
		Remark:         m.Remark,
		ImageURL:       m.ImageURL,
		CompletedAt:    m.CompletedAt,
		DefaultedAt:    m.DefaultedAt,
		DefaultReason:  m.DefaultReason,
	}
	// Rows written before the split policy was persisted carry an empty
	// mode and map to the zero policy.
	if policy, err := notes.ParseSplitPolicy(m.SplitMode, m.SplitCount, m.PerInstallment); err == nil {
		n.SplitPolicy = policy
	}
	m.PopulateAggregateRoot(&n.BaseAggregateRoot)
	return n
}

// FromDomain populates the persistence model from a domain PromissoryNote.
// The installment rows are converted separately by the repository so the
// header update and the installment replacement can be sequenced in one
// transaction.
func (m *PromissoryNoteModel) FromDomain(n *notes.PromissoryNote) {
	m.FromDomainAggregateRoot(n.BaseAggregateRoot)
	m.CustomerID = n.CustomerID
	m.DebtorName = n.DebtorName
	m.DebtorIDNumber = n.DebtorIDNumber
	m.DebtorAddress = n.DebtorAddress
	m.TotalAmount = n.TotalAmount
	m.IssueDate = n.IssueDate
	m.IsLegacy = n.IsLegacy
	m.PaidAmount = n.PaidAmount
	m.SplitMode = n.SplitPolicy.Mode()
	m.SplitCount = n.SplitPolicy.Count()
	m.PerInstallment = n.SplitPolicy.PerInstallment()
	m.Interval = n.Interval
	m.Status = n.Status
	m.Remark = n.Remark
	m.ImageURL = n.ImageURL
	m.CompletedAt = n.CompletedAt
	m.DefaultedAt = n.DefaultedAt
	m.DefaultReason = n.DefaultReason
}

// PromissoryNoteModelFromDomain creates a new persistence model from a domain note.
func PromissoryNoteModelFromDomain(n *notes.PromissoryNote) *PromissoryNoteModel {
	m := &PromissoryNoteModel{}
	m.FromDomain(n)
	return m
}

// InstallmentModel is the persistence model for a single installment row.
type InstallmentModel struct {
	BaseModel
	NoteID        uuid.UUID               `gorm:"type:uuid;not null;index"`
	SequenceIndex int                     `gorm:"not null"`
	Amount        decimal.Decimal         `gorm:"type:decimal(18,2);not null"`
	DueDate       time.Time               `gorm:"not null;index"`
	Status        notes.InstallmentStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Description   string                  `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (InstallmentModel) TableName() string {
	return "installments"
}

// ToDomain converts the persistence model to a domain Installment.
func (m *InstallmentModel) ToDomain() *notes.Installment {
	return &notes.Installment{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		NoteID:        m.NoteID,
		SequenceIndex: m.SequenceIndex,
		Amount:        m.Amount,
		DueDate:       m.DueDate,
		Status:        m.Status,
		Description:   m.Description,
	}
}

// FromDomain populates the persistence model from a domain Installment.
func (m *InstallmentModel) FromDomain(i *notes.Installment) {
	m.FromDomainBaseEntity(i.BaseEntity)
	m.NoteID = i.NoteID
	m.SequenceIndex = i.SequenceIndex
	m.Amount = i.Amount
	m.DueDate = i.DueDate
	m.Status = i.Status
	m.Description = i.Description
}

// InstallmentModelFromDomain creates a new persistence model from a domain installment.
func InstallmentModelFromDomain(i *notes.Installment) *InstallmentModel {
	m := &InstallmentModel{}
	m.FromDomain(i)
	return m
}
