package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/leadcrm/backend/internal/domain/document"
	"github.com/leadcrm/backend/internal/domain/shared"
)

// DocumentModel is the GORM model for the documents catalog table
type DocumentModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	Category    string    `gorm:"type:varchar(50);not null;index:idx_documents_owner"`
	OwnerID     uuid.UUID `gorm:"column:owner_id;type:uuid;not null;index:idx_documents_owner"`
	Locator     string    `gorm:"type:text;not null"`
	Strategy    string    `gorm:"type:varchar(20);not null"`
	Description string    `gorm:"type:text"`
	SizeBytes   int64     `gorm:"column:size_bytes;not null;default:0"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for DocumentModel
func (DocumentModel) TableName() string {
	return "documents"
}

// ToDomain converts DocumentModel to a domain Document
func (m *DocumentModel) ToDomain() *document.Document {
	return &document.Document{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Category:    document.Category(m.Category),
		OwnerID:     m.OwnerID,
		Locator:     m.Locator,
		Strategy:    m.Strategy,
		Description: m.Description,
		SizeBytes:   m.SizeBytes,
	}
}

// DocumentModelFromDomain creates a DocumentModel from a domain Document
func DocumentModelFromDomain(d *document.Document) *DocumentModel {
	return &DocumentModel{
		ID:          d.ID,
		Category:    string(d.Category),
		OwnerID:     d.OwnerID,
		Locator:     d.Locator,
		Strategy:    d.Strategy,
		Description: d.Description,
		SizeBytes:   d.SizeBytes,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}
