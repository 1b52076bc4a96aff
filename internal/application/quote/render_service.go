package quote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/leadcrm/backend/internal/domain/document"
	"github.com/leadcrm/backend/internal/domain/quote"
	"github.com/leadcrm/backend/internal/domain/shared"
	"github.com/leadcrm/backend/internal/infrastructure/config"
	"github.com/leadcrm/backend/internal/infrastructure/rendering"
	"github.com/leadcrm/backend/internal/infrastructure/storage"
	"go.uber.org/zap"
)

const pdfContentType = "application/pdf"

// RenderService turns quotes into PDF artifacts and manages externally
// attached ones. Rendering is gated by a concurrency limiter; storage goes
// through the fallback chain and never fails the render outright.
type RenderService struct {
	quoteRepo quote.QuoteRepository
	docRepo   document.DocumentRepository
	engine    *rendering.TemplateEngine
	renderer  rendering.PDFRenderer
	limiter   *rendering.Limiter
	chain     *storage.Chain
	cfg       config.RenderConfig
	maxBytes  int64
	logger    *zap.Logger
}

// NewRenderService creates a new RenderService
func NewRenderService(
	quoteRepo quote.QuoteRepository,
	docRepo document.DocumentRepository,
	engine *rendering.TemplateEngine,
	renderer rendering.PDFRenderer,
	chain *storage.Chain,
	cfg config.RenderConfig,
	maxAttachmentBytes int64,
	logger *zap.Logger,
) *RenderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RenderService{
		quoteRepo: quoteRepo,
		docRepo:   docRepo,
		engine:    engine,
		renderer:  renderer,
		limiter:   rendering.NewLimiter(cfg.MaxConcurrent),
		chain:     chain,
		cfg:       cfg,
		maxBytes:  maxAttachmentBytes,
		logger:    logger,
	}
}

// Render builds the PDF artifact for a quote and links it into the document
// catalog. Rendering the same quote again replaces the previous artifact;
// the operation is idempotent for an unchanged quote.
func (s *RenderService) Render(ctx context.Context, quoteID uuid.UUID) (*RenderResponse, error) {
	q, err := s.quoteRepo.FindByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, shared.ErrRenderTimeout
	}
	defer s.limiter.Release()

	snapshot := q.TakeSnapshot()
	html, err := s.engine.RenderQuote(snapshot)
	if err != nil {
		return nil, shared.ErrRenderFailed
	}

	result, err := s.renderer.Render(ctx, &rendering.RenderRequest{
		HTML:    html,
		Title:   "Quote " + q.QuoteNumber,
		Timeout: s.cfg.Timeout,
	})
	if err != nil {
		if rendering.IsTimeout(err) {
			s.logger.Error("quote render timed out",
				zap.String("quote_number", q.QuoteNumber),
				zap.Duration("timeout", s.cfg.Timeout))
			return nil, shared.ErrRenderTimeout
		}
		s.logger.Error("quote render failed",
			zap.String("quote_number", q.QuoteNumber),
			zap.Error(err))
		return nil, shared.ErrRenderFailed
	}

	return s.storeArtifact(ctx, q, result.PDFData, result.PageCount)
}

// AttachExternal replaces the quote's artifact with a manually supplied PDF
func (s *RenderService) AttachExternal(ctx context.Context, quoteID uuid.UUID, data []byte) (*RenderResponse, error) {
	q, err := s.quoteRepo.FindByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	if int64(len(data)) > s.maxBytes {
		return nil, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Attachment exceeds the %d byte limit", s.maxBytes))
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Attachment must be a PDF file")
	}

	return s.storeArtifact(ctx, q, data, 0)
}

// Download streams the quote's current artifact
func (s *RenderService) Download(ctx context.Context, quoteID uuid.UUID) (io.ReadCloser, string, error) {
	q, err := s.quoteRepo.FindByID(ctx, quoteID)
	if err != nil {
		return nil, "", err
	}
	if q.Artifact == nil {
		return nil, "", shared.NewDomainError("NOT_FOUND", "Quote has no rendered artifact")
	}

	filename := strings.ReplaceAll(q.QuoteNumber, "/", "-") + ".pdf"

	if q.Artifact.Strategy == storage.StrategyInline {
		reader, err := storage.DataURIReader(q.Artifact.Locator)
		if err != nil {
			return nil, "", fmt.Errorf("failed to decode inline artifact: %w", err)
		}
		return reader, filename, nil
	}

	reader, err := s.chain.Open(ctx, q.Artifact.Strategy, artifactKey(q.ID))
	if err != nil {
		return nil, "", fmt.Errorf("failed to open artifact: %w", err)
	}
	return reader, filename, nil
}

// storeArtifact walks the storage chain, links the catalog entry and pins
// the artifact reference on the quote
func (s *RenderService) storeArtifact(ctx context.Context, q *quote.Quote, data []byte, pageCount int) (*RenderResponse, error) {
	stored, err := s.chain.Store(ctx, artifactKey(q.ID), data, pdfContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store artifact: %w", err)
	}

	doc, err := document.NewDocument(
		document.CategoryQuote,
		q.ID,
		stored.Locator,
		stored.Strategy,
		"Quote "+q.QuoteNumber,
		int64(len(data)),
	)
	if err != nil {
		return nil, err
	}
	if err := s.docRepo.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to link document: %w", err)
	}

	q.SetArtifact(quote.ArtifactRef{
		Locator:   stored.Locator,
		StorageID: &doc.ID,
		Strategy:  stored.Strategy,
	})
	if err := s.quoteRepo.Update(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to record artifact on quote: %w", err)
	}

	warnings := make([]string, 0, len(stored.Warnings))
	for _, w := range stored.Warnings {
		warnings = append(warnings, fmt.Sprintf("%s storage degraded: %v", w.Strategy, w.Err))
	}

	s.logger.Info("quote artifact stored",
		zap.String("quote_number", q.QuoteNumber),
		zap.String("strategy", stored.Strategy),
		zap.Int("size", len(data)),
		zap.Int("degraded_backends", len(warnings)))

	return &RenderResponse{
		QuoteID:    q.ID.String(),
		DocumentID: doc.ID.String(),
		Locator:    stored.Locator,
		InlineURI:  stored.InlineURI,
		Strategy:   stored.Strategy,
		PageCount:  pageCount,
		SizeBytes:  int64(len(data)),
		Warnings:   warnings,
	}, nil
}
