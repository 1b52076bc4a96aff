// Package quote implements the quote pipeline use cases: creation from
// explicit items or project requirements, lifecycle updates, duplication
// and deletion with artifact cleanup.
package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/leadcrm/backend/internal/domain/directory"
	"github.com/leadcrm/backend/internal/domain/document"
	"github.com/leadcrm/backend/internal/domain/quote"
	"github.com/leadcrm/backend/internal/domain/shared"
	"github.com/leadcrm/backend/internal/infrastructure/config"
	"github.com/leadcrm/backend/internal/infrastructure/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// QuoteService handles quote business operations
type QuoteService struct {
	quoteRepo    quote.QuoteRepository
	clientDir    directory.ClientDirectory
	projectStore directory.ProjectStore
	docRepo      document.DocumentRepository
	allocator    quote.NumberAllocator
	chain        *storage.Chain
	cfg          config.QuoteConfig
	business     quote.BusinessInfo
	logger       *zap.Logger
}

// NewQuoteService creates a new QuoteService
func NewQuoteService(
	quoteRepo quote.QuoteRepository,
	clientDir directory.ClientDirectory,
	projectStore directory.ProjectStore,
	docRepo document.DocumentRepository,
	allocator quote.NumberAllocator,
	chain *storage.Chain,
	cfg config.QuoteConfig,
	business config.BusinessConfig,
	logger *zap.Logger,
) *QuoteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuoteService{
		quoteRepo:    quoteRepo,
		clientDir:    clientDir,
		projectStore: projectStore,
		docRepo:      docRepo,
		allocator:    allocator,
		chain:        chain,
		cfg:          cfg,
		business: quote.BusinessInfo{
			Name:     business.Name,
			Address:  business.Address,
			Phone:    business.Phone,
			Email:    business.Email,
			TaxID:    business.TaxID,
			Currency: business.Currency,
		},
		logger: logger,
	}
}

// Create creates a quote from explicit line items
func (s *QuoteService) Create(ctx context.Context, req CreateQuoteRequest, createdBy *uuid.UUID) (*QuoteResponse, error) {
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid client ID")
	}

	client, err := s.clientDir.FindByID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve client: %w", err)
	}

	var projectID *uuid.UUID
	if req.ProjectID != nil {
		id, err := uuid.Parse(*req.ProjectID)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", "Invalid project ID")
		}
		if _, err := s.projectStore.FindByID(ctx, id); err != nil {
			return nil, fmt.Errorf("failed to resolve project: %w", err)
		}
		projectID = &id
	}

	q, err := quote.NewQuote(quote.NewQuoteInput{
		ClientID:     clientID,
		ProjectID:    projectID,
		CreatedBy:    createdBy,
		BusinessInfo: s.business,
		ClientInfo:   clientSnapshot(client),
		Items:        toLineItems(req.Items),
		Discount:     req.Discount,
		DiscountType: quote.DiscountType(req.DiscountType),
		IncludeVAT:   valueOrDefault(req.IncludeVAT, true),
		VATRate:      s.vatRate(req.VATRate),
		Notes:        req.Notes,
		Terms:        req.Terms,
		ValidUntil:   s.validUntil(req.ValidUntil),
	})
	if err != nil {
		return nil, err
	}

	if err := s.assignIdentityAndSave(ctx, q); err != nil {
		return nil, err
	}
	return toQuoteResponse(q), nil
}

// GenerateFromProject builds a quote from a project's requirements. When the
// request carries no explicit requirement IDs, approved requirements are
// priced; unknown IDs are silently skipped. An empty selection is an error,
// not an empty quote.
func (s *QuoteService) GenerateFromProject(ctx context.Context, req GenerateFromProjectRequest, createdBy *uuid.UUID) (*QuoteResponse, error) {
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid project ID")
	}

	project, err := s.projectStore.FindByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project: %w", err)
	}
	client, err := s.clientDir.FindByID(ctx, project.ClientID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project client: %w", err)
	}
	requirements, err := s.projectStore.FindRequirements(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load requirements: %w", err)
	}

	explicitIDs := make([]uuid.UUID, 0, len(req.RequirementIDs))
	for _, raw := range req.RequirementIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", "Invalid requirement ID")
		}
		explicitIDs = append(explicitIDs, id)
	}

	rate := project.HourlyRate
	if !rate.IsPositive() {
		rate = decimal.NewFromFloat(s.cfg.DefaultHourlyRate)
	}

	items, linkedIDs, err := quote.MapRequirements(requirements, explicitIDs, rate)
	if err != nil {
		return nil, err
	}

	q, err := quote.NewQuote(quote.NewQuoteInput{
		ClientID:             project.ClientID,
		ProjectID:            &projectID,
		LinkedRequirementIDs: linkedIDs,
		CreatedBy:            createdBy,
		BusinessInfo:         s.business,
		ClientInfo:           clientSnapshot(client),
		Items:                items,
		Discount:             req.Discount,
		DiscountType:         quote.DiscountType(req.DiscountType),
		IncludeVAT:           valueOrDefault(req.IncludeVAT, true),
		VATRate:              s.vatRate(req.VATRate),
		Notes:                req.Notes,
		Terms:                req.Terms,
		ValidUntil:           s.validUntil(req.ValidUntil),
	})
	if err != nil {
		return nil, err
	}

	if err := s.assignIdentityAndSave(ctx, q); err != nil {
		return nil, err
	}

	s.logger.Info("quote generated from project",
		zap.String("quote_number", q.QuoteNumber),
		zap.String("project_id", projectID.String()),
		zap.Int("items", len(q.Items)))

	return toQuoteResponse(q), nil
}

// Get retrieves a quote by ID
func (s *QuoteService) Get(ctx context.Context, id uuid.UUID) (*QuoteResponse, error) {
	q, err := s.quoteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toQuoteResponse(q), nil
}

// List returns a paginated quote listing
func (s *QuoteService) List(ctx context.Context, req ListQuotesRequest) (*shared.Paginated[QuoteResponse], error) {
	filter := quote.QuoteFilter{Filter: shared.DefaultFilter()}
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	if req.OrderBy != "" {
		filter.OrderBy = req.OrderBy
	}
	if req.OrderDir != "" {
		filter.OrderDir = req.OrderDir
	}
	filter.Search = req.Search
	filter.Normalize()

	if req.Status != "" {
		status := quote.QuoteStatus(req.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError("INVALID_INPUT",
				fmt.Sprintf("Invalid quote status %q", req.Status))
		}
		filter.Status = &status
	}
	if req.ClientID != "" {
		id, err := uuid.Parse(req.ClientID)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", "Invalid client ID")
		}
		filter.ClientID = &id
	}
	if req.ProjectID != "" {
		id, err := uuid.Parse(req.ProjectID)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", "Invalid project ID")
		}
		filter.ProjectID = &id
	}

	quotes, err := s.quoteRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	total, err := s.quoteRepo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count quotes: %w", err)
	}

	items := make([]QuoteResponse, len(quotes))
	for i := range quotes {
		items[i] = *toQuoteResponse(&quotes[i])
	}
	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}

// Update applies a partial update and recomputes totals
func (s *QuoteService) Update(ctx context.Context, id uuid.UUID, req UpdateQuoteRequest) (*QuoteResponse, error) {
	q, err := s.quoteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch := quote.UpdatePatch{
		Discount:   req.Discount,
		IncludeVAT: req.IncludeVAT,
		VATRate:    req.VATRate,
		Notes:      req.Notes,
		Terms:      req.Terms,
		ValidUntil: req.ValidUntil,
	}
	if req.Items != nil {
		patch.Items = toLineItems(req.Items)
	}
	if req.DiscountType != nil {
		discountType := quote.DiscountType(*req.DiscountType)
		patch.DiscountType = &discountType
	}

	if err := q.Apply(patch); err != nil {
		return nil, err
	}
	if err := s.quoteRepo.Update(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to update quote: %w", err)
	}
	return toQuoteResponse(q), nil
}

// SetStatus moves a quote to a new lifecycle status. Any valid status value
// is accepted, including moves back to draft.
func (s *QuoteService) SetStatus(ctx context.Context, id uuid.UUID, status string) (*QuoteResponse, error) {
	q, err := s.quoteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := q.SetStatus(quote.QuoteStatus(status)); err != nil {
		return nil, err
	}
	if err := s.quoteRepo.Update(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to update quote status: %w", err)
	}

	s.logger.Info("quote status changed",
		zap.String("quote_number", q.QuoteNumber),
		zap.String("status", status))

	return toQuoteResponse(q), nil
}

// Duplicate creates a fresh draft copy with its own number and version.
// The copy carries no artifact and starts in draft regardless of the
// source's status.
func (s *QuoteService) Duplicate(ctx context.Context, id uuid.UUID, createdBy *uuid.UUID) (*QuoteResponse, error) {
	source, err := s.quoteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	dup := source.Duplicate(createdBy)
	if err := s.assignIdentityAndSave(ctx, dup); err != nil {
		return nil, err
	}

	s.logger.Info("quote duplicated",
		zap.String("source", source.QuoteNumber),
		zap.String("copy", dup.QuoteNumber))

	return toQuoteResponse(dup), nil
}

// Delete removes a quote. Artifact and catalog cleanup is best effort:
// storage failures are logged and the record is deleted regardless.
func (s *QuoteService) Delete(ctx context.Context, id uuid.UUID) error {
	q, err := s.quoteRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if q.Artifact != nil {
		if err := s.chain.Delete(ctx, q.Artifact.Strategy, artifactKey(q.ID)); err != nil {
			s.logger.Warn("artifact cleanup failed",
				zap.String("quote_number", q.QuoteNumber),
				zap.String("strategy", q.Artifact.Strategy),
				zap.Error(err))
		}
	}

	docs, err := s.docRepo.FindByOwner(ctx, document.CategoryQuote, q.ID)
	if err != nil {
		s.logger.Warn("document lookup during delete failed",
			zap.String("quote_number", q.QuoteNumber),
			zap.Error(err))
	}
	for i := range docs {
		if err := s.docRepo.Delete(ctx, docs[i].ID); err != nil {
			s.logger.Warn("document cleanup failed",
				zap.String("document_id", docs[i].ID.String()),
				zap.Error(err))
		}
	}

	if err := s.quoteRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete quote: %w", err)
	}

	s.logger.Info("quote deleted", zap.String("quote_number", q.QuoteNumber))
	return nil
}

// ListDocuments lists the catalog entries owned by a quote
func (s *QuoteService) ListDocuments(ctx context.Context, quoteID uuid.UUID) ([]DocumentResponse, error) {
	if _, err := s.quoteRepo.FindByID(ctx, quoteID); err != nil {
		return nil, err
	}
	docs, err := s.docRepo.FindByOwner(ctx, document.CategoryQuote, quoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	responses := make([]DocumentResponse, len(docs))
	for i := range docs {
		responses[i] = *toDocumentResponse(&docs[i])
	}
	return responses, nil
}

// GetDocument retrieves one catalog entry
func (s *QuoteService) GetDocument(ctx context.Context, id uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.docRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDocumentResponse(doc), nil
}

// ExpireOverdue flips quotes whose validity window has passed to expired
// and reports how many were affected
func (s *QuoteService) ExpireOverdue(ctx context.Context) (int64, error) {
	affected, err := s.quoteRepo.ExpireOverdue(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to expire overdue quotes: %w", err)
	}
	if affected > 0 {
		s.logger.Info("overdue quotes expired", zap.Int64("count", affected))
	}
	return affected, nil
}

// versionRetryLimit bounds how often a creation re-resolves its revision
// slot after losing a version race to a concurrent creation.
const versionRetryLimit = 3

// assignIdentityAndSave allocates the quote number and version and persists
// the quote in one logical step, so no quote is ever visible without its
// identity. The allocator is atomic; concurrent creations in the same year
// cannot observe the same sequence value. Versions are guarded by a unique
// index on (project_id, version): the loser of a concurrent creation gets a
// duplicate-key error, re-resolves and retries.
func (s *QuoteService) assignIdentityAndSave(ctx context.Context, q *quote.Quote) error {
	year := time.Now().Year()
	seq, err := s.allocator.Next(ctx, year)
	if err != nil {
		return fmt.Errorf("failed to allocate quote number: %w", err)
	}

	version, err := s.resolveVersion(ctx, q)
	if err != nil {
		return err
	}
	if err := q.AssignIdentity(quote.FormatQuoteNumber(year, seq), version); err != nil {
		return err
	}

	for attempt := 0; ; attempt++ {
		err = s.quoteRepo.Save(ctx, q)
		if err == nil {
			break
		}
		if q.ProjectID == nil || attempt >= versionRetryLimit || !errors.Is(err, shared.ErrAlreadyExists) {
			return fmt.Errorf("failed to save quote: %w", err)
		}
		version, err = s.resolveVersion(ctx, q)
		if err != nil {
			return err
		}
		if err := q.ReviseVersion(version); err != nil {
			return err
		}
	}

	s.logger.Info("quote created",
		zap.String("quote_number", q.QuoteNumber),
		zap.Int("version", q.Version),
		zap.String("client_id", q.ClientID.String()))
	return nil
}

// resolveVersion reads the next free revision slot for the quote's project
func (s *QuoteService) resolveVersion(ctx context.Context, q *quote.Quote) (int, error) {
	if q.ProjectID == nil {
		return 1, nil
	}
	version, err := s.quoteRepo.NextVersionForProject(ctx, *q.ProjectID)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve quote version: %w", err)
	}
	return version, nil
}

func (s *QuoteService) vatRate(override *decimal.Decimal) decimal.Decimal {
	if override != nil {
		return *override
	}
	return decimal.NewFromFloat(s.cfg.DefaultVATRate)
}

func (s *QuoteService) validUntil(override *time.Time) *time.Time {
	if override != nil {
		return override
	}
	if s.cfg.DefaultValidityDays <= 0 {
		return nil
	}
	deadline := time.Now().AddDate(0, 0, s.cfg.DefaultValidityDays)
	return &deadline
}

func toLineItems(inputs []LineItemInput) []quote.LineItem {
	items := make([]quote.LineItem, len(inputs))
	for i, input := range inputs {
		items[i] = quote.LineItem{
			Name:        input.Name,
			Description: input.Description,
			Quantity:    input.Quantity,
			UnitPrice:   input.UnitPrice,
		}
	}
	return items
}

func clientSnapshot(c *directory.Client) quote.ClientInfo {
	return quote.ClientInfo{
		Name:    c.Name,
		Company: c.Company,
		Address: c.Address,
		Phone:   c.Phone,
		Email:   c.Email,
	}
}

func valueOrDefault(v *bool, def bool) bool {
	if v != nil {
		return *v
	}
	return def
}

// artifactKey is the canonical storage key for a quote's artifact. Renders
// overwrite the same key, so re-rendering replaces the previous artifact
// instead of accumulating copies.
func artifactKey(quoteID uuid.UUID) string {
	return "quotes/" + quoteID.String() + ".pdf"
}
