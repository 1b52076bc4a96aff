// Package document provides the catalog of generated and attached files so
// quote artifacts are discoverable alongside other document types.
package document

import (
	"context"

	"github.com/google/uuid"
	"github.com/leadcrm/backend/internal/domain/shared"
)

// Category classifies catalog entries by the entity type that owns them
type Category string

const (
	CategoryQuote Category = "quote"
)

// IsValid checks if the category is valid
func (c Category) IsValid() bool {
	return c == CategoryQuote
}

// Document is a catalog entry pointing at a stored artifact
type Document struct {
	shared.BaseEntity
	Category    Category  `json:"category"`
	OwnerID     uuid.UUID `json:"owner_id"` // id of the owning entity, e.g. the quote
	Locator     string    `json:"locator"`  // where the bytes live
	Strategy    string    `json:"strategy"` // storage strategy that holds them
	Description string    `json:"description"`
	SizeBytes   int64     `json:"size_bytes"`
}

// NewDocument creates a catalog entry for a stored artifact
func NewDocument(category Category, ownerID uuid.UUID, locator, strategy, description string, sizeBytes int64) (*Document, error) {
	if !category.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid document category")
	}
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Document owner ID is required")
	}
	if locator == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Document locator cannot be empty")
	}
	return &Document{
		BaseEntity:  shared.NewBaseEntity(),
		Category:    category,
		OwnerID:     ownerID,
		Locator:     locator,
		Strategy:    strategy,
		Description: description,
		SizeBytes:   sizeBytes,
	}, nil
}

// DocumentRepository is the write-append catalog contract
type DocumentRepository interface {
	Save(ctx context.Context, d *Document) error
	FindByID(ctx context.Context, id uuid.UUID) (*Document, error)
	FindByOwner(ctx context.Context, category Category, ownerID uuid.UUID) ([]Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
