package quote

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/leadcrm/backend/internal/domain/shared"
)

// QuoteFilter holds query options for listing quotes
type QuoteFilter struct {
	shared.Filter
	Status    *QuoteStatus
	ClientID  *uuid.UUID
	ProjectID *uuid.UUID
}

// QuoteRepository is the persistence contract for quotes.
//
// Save assigns identity (number, version) and writes the record as a single
// logical step: the implementation must not leave a quote persisted without
// its number or version.
type QuoteRepository interface {
	Save(ctx context.Context, q *Quote) error
	Update(ctx context.Context, q *Quote) error
	FindByID(ctx context.Context, id uuid.UUID) (*Quote, error)
	FindByNumber(ctx context.Context, quoteNumber string) (*Quote, error)
	FindAll(ctx context.Context, filter QuoteFilter) ([]Quote, error)
	Count(ctx context.Context, filter QuoteFilter) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// NextVersionForProject resolves the revision number for a new quote:
	// 1 + max(version of quotes with the same project id), or 1 when none
	// exist. Implementations take a row lock so concurrent creations
	// against the same project cannot collide.
	NextVersionForProject(ctx context.Context, projectID uuid.UUID) (int, error)

	// ExpireOverdue flips quotes whose validity window has passed to the
	// expired status. The sweep is caller-driven, never automatic.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

// NumberAllocator hands out the year-scoped sequence behind quote numbers.
// Implementations must be atomic so concurrent creations in the same year
// never observe the same value.
type NumberAllocator interface {
	Next(ctx context.Context, year int) (int, error)
}

// FormatQuoteNumber renders the human-readable quote number
func FormatQuoteNumber(year, seq int) string {
	return fmt.Sprintf("Q%d-%04d", year, seq)
}
