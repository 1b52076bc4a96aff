package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/leadcrm/backend/internal/domain/quote"
	"github.com/leadcrm/backend/internal/domain/shared"
	"github.com/leadcrm/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormQuoteRepository implements quote.QuoteRepository using GORM
type GormQuoteRepository struct {
	db *gorm.DB
}

// NewGormQuoteRepository creates a new GormQuoteRepository
func NewGormQuoteRepository(db *gorm.DB) *GormQuoteRepository {
	return &GormQuoteRepository{db: db}
}

// Save persists a new quote
func (r *GormQuoteRepository) Save(ctx context.Context, q *quote.Quote) error {
	model, err := models.QuoteModelFromDomain(q)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Update persists changes to an existing quote
func (r *GormQuoteRepository) Update(ctx context.Context, q *quote.Quote) error {
	model, err := models.QuoteModelFromDomain(q)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&models.QuoteModel{}).
		Where("id = ?", q.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a quote by its ID
func (r *GormQuoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*quote.Quote, error) {
	var model models.QuoteModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindByNumber finds a quote by its human-readable number
func (r *GormQuoteRepository) FindByNumber(ctx context.Context, quoteNumber string) (*quote.Quote, error) {
	var model models.QuoteModel
	if err := r.db.WithContext(ctx).
		First(&model, "quote_number = ?", quoteNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindAll finds quotes matching the filter
func (r *GormQuoteRepository) FindAll(ctx context.Context, filter quote.QuoteFilter) ([]quote.Quote, error) {
	var quoteModels []models.QuoteModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.QuoteModel{}), filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	query = applyOrdering(query, filter.OrderBy, filter.OrderDir)

	if err := query.Find(&quoteModels).Error; err != nil {
		return nil, err
	}
	quotes := make([]quote.Quote, len(quoteModels))
	for i, model := range quoteModels {
		q, err := model.ToDomain()
		if err != nil {
			return nil, err
		}
		quotes[i] = *q
	}
	return quotes, nil
}

// Count counts quotes matching the filter
func (r *GormQuoteRepository) Count(ctx context.Context, filter quote.QuoteFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.QuoteModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Delete removes a quote record
func (r *GormQuoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.QuoteModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// NextVersionForProject resolves the next revision number for a project.
// The read is unlocked; the unique index on (project_id, version) rejects
// the loser of a concurrent creation, and the caller re-resolves and
// retries on that conflict.
func (r *GormQuoteRepository) NextVersionForProject(ctx context.Context, projectID uuid.UUID) (int, error) {
	var maxVersion int
	if err := r.db.WithContext(ctx).
		Model(&models.QuoteModel{}).
		Where("project_id = ?", projectID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&maxVersion).Error; err != nil {
		return 0, err
	}
	return maxVersion + 1, nil
}

// ExpireOverdue flips non-terminal quotes whose validity window has passed
func (r *GormQuoteRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.QuoteModel{}).
		Where("valid_until IS NOT NULL AND valid_until < ?", now).
		Where("status NOT IN ?", []string{
			string(quote.QuoteStatusAccepted),
			string(quote.QuoteStatusRejected),
			string(quote.QuoteStatusExpired),
		}).
		Updates(map[string]interface{}{
			"status":     string(quote.QuoteStatusExpired),
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

// applyFilter applies quote filter options to the query
func (r *GormQuoteRepository) applyFilter(query *gorm.DB, filter quote.QuoteFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.Search != "" {
		query = query.Where("quote_number LIKE ?", "%"+filter.Search+"%")
	}
	return query
}

// applyOrdering applies a whitelisted ORDER BY clause
func applyOrdering(query *gorm.DB, orderBy, orderDir string) *gorm.DB {
	field := ValidateSortField(orderBy, QuoteSortFields, "created_at")
	return query.Order(field + " " + ValidateSortOrder(orderDir))
}

// Ensure GormQuoteRepository implements the repository contract
var _ quote.QuoteRepository = (*GormQuoteRepository)(nil)
