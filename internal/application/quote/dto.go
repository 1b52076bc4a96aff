package quote

import (
	"time"

	"github.com/leadcrm/backend/internal/domain/document"
	"github.com/leadcrm/backend/internal/domain/quote"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Request DTOs
// =============================================================================

// LineItemInput is one priced row in a create or update request.
// TotalPrice is intentionally absent: totals are always derived server-side.
type LineItemInput struct {
	Name        string          `json:"name" binding:"required,min=1,max=200"`
	Description string          `json:"description" binding:"max=1000"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// CreateQuoteRequest represents a request to create a quote from explicit items
type CreateQuoteRequest struct {
	ClientID     string           `json:"client_id" binding:"required,uuid"`
	ProjectID    *string          `json:"project_id" binding:"omitempty,uuid"`
	Items        []LineItemInput  `json:"items" binding:"dive"`
	Discount     decimal.Decimal  `json:"discount"`
	DiscountType string           `json:"discount_type" binding:"omitempty,oneof=percentage fixed"`
	IncludeVAT   *bool            `json:"include_vat"`
	VATRate      *decimal.Decimal `json:"vat_rate"`
	Notes        string           `json:"notes" binding:"max=5000"`
	Terms        string           `json:"terms" binding:"max=5000"`
	ValidUntil   *time.Time       `json:"valid_until"`
}

// GenerateFromProjectRequest represents a request to build a quote from a
// project's requirements. When RequirementIDs is empty, approved
// requirements are selected.
type GenerateFromProjectRequest struct {
	ProjectID      string           `json:"project_id" binding:"required,uuid"`
	RequirementIDs []string         `json:"requirement_ids" binding:"dive,uuid"`
	Discount       decimal.Decimal  `json:"discount"`
	DiscountType   string           `json:"discount_type" binding:"omitempty,oneof=percentage fixed"`
	IncludeVAT     *bool            `json:"include_vat"`
	VATRate        *decimal.Decimal `json:"vat_rate"`
	Notes          string           `json:"notes" binding:"max=5000"`
	Terms          string           `json:"terms" binding:"max=5000"`
	ValidUntil     *time.Time       `json:"valid_until"`
}

// UpdateQuoteRequest carries the mutable fields of a quote; nil fields are
// left untouched
type UpdateQuoteRequest struct {
	Items        []LineItemInput  `json:"items" binding:"omitempty,dive"`
	Discount     *decimal.Decimal `json:"discount"`
	DiscountType *string          `json:"discount_type" binding:"omitempty,oneof=percentage fixed"`
	IncludeVAT   *bool            `json:"include_vat"`
	VATRate      *decimal.Decimal `json:"vat_rate"`
	Notes        *string          `json:"notes" binding:"omitempty,max=5000"`
	Terms        *string          `json:"terms" binding:"omitempty,max=5000"`
	ValidUntil   *time.Time       `json:"valid_until"`
}

// SetStatusRequest moves a quote to a new lifecycle status
type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListQuotesRequest represents a request to list quotes
type ListQuotesRequest struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy   string `form:"order_by"`
	OrderDir  string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search    string `form:"search"`
	Status    string `form:"status"`
	ClientID  string `form:"client_id" binding:"omitempty,uuid"`
	ProjectID string `form:"project_id" binding:"omitempty,uuid"`
}

// =============================================================================
// Response DTOs
// =============================================================================

// LineItemResponse is one priced row in a quote response
type LineItemResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// BusinessInfoResponse is the issuing business snapshot on a quote
type BusinessInfoResponse struct {
	Name     string `json:"name"`
	Address  string `json:"address,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	TaxID    string `json:"tax_id,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// ClientInfoResponse is the client snapshot on a quote
type ClientInfoResponse struct {
	Name    string `json:"name"`
	Company string `json:"company,omitempty"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

// ArtifactResponse points at the stored rendered artifact
type ArtifactResponse struct {
	Locator    string  `json:"locator"`
	Strategy   string  `json:"strategy"`
	DocumentID *string `json:"document_id,omitempty"`
}

// QuoteResponse represents a quote in API responses
type QuoteResponse struct {
	ID                   string                `json:"id"`
	QuoteNumber          string                `json:"quote_number"`
	Version              int                   `json:"version"`
	Status               string                `json:"status"`
	ClientID             string                `json:"client_id"`
	ProjectID            *string               `json:"project_id,omitempty"`
	LinkedRequirementIDs []string              `json:"linked_requirement_ids,omitempty"`
	BusinessInfo         BusinessInfoResponse  `json:"business_info"`
	ClientInfo           ClientInfoResponse    `json:"client_info"`
	Items                []LineItemResponse    `json:"items"`
	Discount             decimal.Decimal       `json:"discount"`
	DiscountType         string                `json:"discount_type"`
	IncludeVAT           bool                  `json:"include_vat"`
	VATRate              decimal.Decimal       `json:"vat_rate"`
	Subtotal             decimal.Decimal       `json:"subtotal"`
	VATAmount            decimal.Decimal       `json:"vat_amount"`
	Total                decimal.Decimal       `json:"total"`
	Notes                string                `json:"notes,omitempty"`
	Terms                string                `json:"terms,omitempty"`
	ValidUntil           *time.Time            `json:"valid_until,omitempty"`
	Artifact             *ArtifactResponse     `json:"artifact,omitempty"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
}

// RenderResponse reports the outcome of rendering or attaching an artifact
type RenderResponse struct {
	QuoteID    string   `json:"quote_id"`
	DocumentID string   `json:"document_id"`
	Locator    string   `json:"locator"`
	InlineURI  string   `json:"inline_uri"`
	Strategy   string   `json:"strategy"`
	PageCount  int      `json:"page_count,omitempty"`
	SizeBytes  int64    `json:"size_bytes"`
	Warnings   []string `json:"warnings,omitempty"`
}

// DocumentResponse represents a catalog entry in API responses
type DocumentResponse struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	OwnerID     string    `json:"owner_id"`
	Locator     string    `json:"locator"`
	Strategy    string    `json:"strategy"`
	Description string    `json:"description,omitempty"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

// =============================================================================
// Mapping helpers
// =============================================================================

func toQuoteResponse(q *quote.Quote) *QuoteResponse {
	items := make([]LineItemResponse, len(q.Items))
	for i, item := range q.Items {
		items[i] = LineItemResponse{
			ID:          item.ID.String(),
			Name:        item.Name,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
		}
	}

	resp := &QuoteResponse{
		ID:          q.ID.String(),
		QuoteNumber: q.QuoteNumber,
		Version:     q.Version,
		Status:      string(q.Status),
		ClientID:    q.ClientID.String(),
		BusinessInfo: BusinessInfoResponse{
			Name:     q.BusinessInfo.Name,
			Address:  q.BusinessInfo.Address,
			Phone:    q.BusinessInfo.Phone,
			Email:    q.BusinessInfo.Email,
			TaxID:    q.BusinessInfo.TaxID,
			Currency: q.BusinessInfo.Currency,
		},
		ClientInfo: ClientInfoResponse{
			Name:    q.ClientInfo.Name,
			Company: q.ClientInfo.Company,
			Address: q.ClientInfo.Address,
			Phone:   q.ClientInfo.Phone,
			Email:   q.ClientInfo.Email,
		},
		Items:        items,
		Discount:     q.Discount,
		DiscountType: string(q.DiscountType),
		IncludeVAT:   q.IncludeVAT,
		VATRate:      q.VATRate,
		Subtotal:     q.Subtotal,
		VATAmount:    q.VATAmount,
		Total:        q.Total,
		Notes:        q.Notes,
		Terms:        q.Terms,
		ValidUntil:   q.ValidUntil,
		CreatedAt:    q.CreatedAt,
		UpdatedAt:    q.UpdatedAt,
	}

	if q.ProjectID != nil {
		projectID := q.ProjectID.String()
		resp.ProjectID = &projectID
	}
	for _, id := range q.LinkedRequirementIDs {
		resp.LinkedRequirementIDs = append(resp.LinkedRequirementIDs, id.String())
	}
	if q.Artifact != nil {
		artifact := &ArtifactResponse{
			Locator:  q.Artifact.Locator,
			Strategy: q.Artifact.Strategy,
		}
		if q.Artifact.StorageID != nil {
			docID := q.Artifact.StorageID.String()
			artifact.DocumentID = &docID
		}
		resp.Artifact = artifact
	}
	return resp
}

func toDocumentResponse(d *document.Document) *DocumentResponse {
	return &DocumentResponse{
		ID:          d.ID.String(),
		Category:    string(d.Category),
		OwnerID:     d.OwnerID.String(),
		Locator:     d.Locator,
		Strategy:    d.Strategy,
		Description: d.Description,
		SizeBytes:   d.SizeBytes,
		CreatedAt:   d.CreatedAt,
	}
}
