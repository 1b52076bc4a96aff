package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/leadcrm/backend/internal/domain/document"
	"github.com/leadcrm/backend/internal/domain/shared"
	"github.com/leadcrm/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormDocumentRepository implements document.DocumentRepository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// Save appends a catalog entry
func (r *GormDocumentRepository) Save(ctx context.Context, d *document.Document) error {
	return r.db.WithContext(ctx).Create(models.DocumentModelFromDomain(d)).Error
}

// FindByID finds a catalog entry by its ID
func (r *GormDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.Document, error) {
	var model models.DocumentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOwner lists catalog entries for an owning entity, newest first
func (r *GormDocumentRepository) FindByOwner(ctx context.Context, category document.Category, ownerID uuid.UUID) ([]document.Document, error) {
	var documentModels []models.DocumentModel
	if err := r.db.WithContext(ctx).
		Where("category = ? AND owner_id = ?", string(category), ownerID).
		Order("created_at DESC").
		Find(&documentModels).Error; err != nil {
		return nil, err
	}
	docs := make([]document.Document, len(documentModels))
	for i, model := range documentModels {
		docs[i] = *model.ToDomain()
	}
	return docs, nil
}

// Delete removes a catalog entry
func (r *GormDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.DocumentModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormDocumentRepository implements the repository contract
var _ document.DocumentRepository = (*GormDocumentRepository)(nil)
