package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/leadcrm/backend/internal/domain/directory"
	"github.com/leadcrm/backend/internal/domain/shared"
	"github.com/leadcrm/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormClientDirectory implements directory.ClientDirectory over the CRM's
// clients table. Read-only by contract.
type GormClientDirectory struct {
	db *gorm.DB
}

// NewGormClientDirectory creates a new GormClientDirectory
func NewGormClientDirectory(db *gorm.DB) *GormClientDirectory {
	return &GormClientDirectory{db: db}
}

// FindByID looks up a client record
func (r *GormClientDirectory) FindByID(ctx context.Context, id uuid.UUID) (*directory.Client, error) {
	var model models.ClientModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// GormProjectStore implements directory.ProjectStore over the CRM's
// projects and requirements tables. Read-only by contract.
type GormProjectStore struct {
	db *gorm.DB
}

// NewGormProjectStore creates a new GormProjectStore
func NewGormProjectStore(db *gorm.DB) *GormProjectStore {
	return &GormProjectStore{db: db}
}

// FindByID looks up a project record
func (r *GormProjectStore) FindByID(ctx context.Context, id uuid.UUID) (*directory.Project, error) {
	var model models.ProjectModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindRequirements lists a project's requirements
func (r *GormProjectStore) FindRequirements(ctx context.Context, projectID uuid.UUID) ([]directory.Requirement, error) {
	var requirementModels []models.RequirementModel
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("title ASC").
		Find(&requirementModels).Error; err != nil {
		return nil, err
	}
	reqs := make([]directory.Requirement, len(requirementModels))
	for i, model := range requirementModels {
		reqs[i] = model.ToDomain()
	}
	return reqs, nil
}

// Ensure the directory contracts are implemented
var (
	_ directory.ClientDirectory = (*GormClientDirectory)(nil)
	_ directory.ProjectStore    = (*GormProjectStore)(nil)
)
