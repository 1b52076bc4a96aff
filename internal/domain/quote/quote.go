package quote

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/leadcrm/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// QuoteStatus represents the lifecycle status of a quote
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "draft"    // Being edited, not yet sent
	QuoteStatusSent     QuoteStatus = "sent"     // Delivered to the client
	QuoteStatusViewed   QuoteStatus = "viewed"   // Opened by the client
	QuoteStatusAccepted QuoteStatus = "accepted" // Client accepted
	QuoteStatusRejected QuoteStatus = "rejected" // Client rejected
	QuoteStatusExpired  QuoteStatus = "expired"  // Validity window passed
)

// IsValid checks if the status is a valid QuoteStatus
func (s QuoteStatus) IsValid() bool {
	switch s {
	case QuoteStatusDraft, QuoteStatusSent, QuoteStatusViewed,
		QuoteStatusAccepted, QuoteStatusRejected, QuoteStatusExpired:
		return true
	}
	return false
}

// String returns the string representation of QuoteStatus
func (s QuoteStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the quote is in a terminal state
func (s QuoteStatus) IsTerminal() bool {
	return s == QuoteStatusAccepted || s == QuoteStatusRejected || s == QuoteStatusExpired
}

// DiscountType determines how the discount value is interpreted
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// IsValid checks if the discount type is valid
func (d DiscountType) IsValid() bool {
	return d == DiscountTypePercentage || d == DiscountTypeFixed
}

// LineItem represents one priced row on a quote.
// TotalPrice is always recomputed from Quantity and UnitPrice; a value
// supplied by the caller is never trusted.
type LineItem struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// Validate checks line item constraints
func (i *LineItem) Validate() error {
	if i.Name == "" {
		return shared.NewDomainError("INVALID_INPUT", "Line item name cannot be empty")
	}
	if i.Quantity.LessThan(decimal.NewFromInt(1)) {
		return shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Line item %q quantity must be at least 1", i.Name))
	}
	if i.UnitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Line item %q unit price cannot be negative", i.Name))
	}
	return nil
}

// BusinessInfo is a snapshot of the issuing business, frozen at creation time
type BusinessInfo struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	TaxID    string `json:"tax_id"`
	Currency string `json:"currency"` // symbol used when rendering, e.g. "₪"
}

// ClientInfo is a snapshot of the client contact, frozen at creation time
type ClientInfo struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

// ArtifactRef points at the stored rendered artifact for a quote
type ArtifactRef struct {
	Locator   string     `json:"locator"`    // remote URL, local path or inline marker
	StorageID *uuid.UUID `json:"storage_id"` // catalog document id, when linked
	Strategy  string     `json:"strategy"`   // storage strategy that holds the bytes
}

// Quote is the aggregate root of the pricing pipeline. It owns identity
// (quote number, per-project version), the priced line items and the
// derived totals. Totals are recomputed on every mutation of the pricing
// fields and never accepted from callers.
type Quote struct {
	shared.BaseEntity
	QuoteNumber string      `json:"quote_number"` // Q{year}-{seq:04d}, assigned once at first persistence
	Version     int         `json:"version"`      // revision number scoped to ProjectID
	Status      QuoteStatus `json:"status"`

	ClientID             uuid.UUID   `json:"client_id"`
	ProjectID            *uuid.UUID  `json:"project_id"`
	LinkedRequirementIDs []uuid.UUID `json:"linked_requirement_ids"`
	CreatedBy            *uuid.UUID  `json:"created_by"`

	BusinessInfo BusinessInfo `json:"business_info"`
	ClientInfo   ClientInfo   `json:"client_info"`

	Items        []LineItem      `json:"items"`
	Discount     decimal.Decimal `json:"discount"`
	DiscountType DiscountType    `json:"discount_type"`
	IncludeVAT   bool            `json:"include_vat"`
	VATRate      decimal.Decimal `json:"vat_rate"` // percentage, e.g. 17

	Subtotal  decimal.Decimal `json:"subtotal"`
	VATAmount decimal.Decimal `json:"vat_amount"`
	Total     decimal.Decimal `json:"total"`

	Notes      string     `json:"notes"`
	Terms      string     `json:"terms"`
	ValidUntil *time.Time `json:"valid_until"`

	Artifact *ArtifactRef `json:"artifact"`
}

// NewQuoteInput carries the fields needed to construct a quote
type NewQuoteInput struct {
	ClientID             uuid.UUID
	ProjectID            *uuid.UUID
	LinkedRequirementIDs []uuid.UUID
	CreatedBy            *uuid.UUID
	BusinessInfo         BusinessInfo
	ClientInfo           ClientInfo
	Items                []LineItem
	Discount             decimal.Decimal
	DiscountType         DiscountType
	IncludeVAT           bool
	VATRate              decimal.Decimal
	Notes                string
	Terms                string
	ValidUntil           *time.Time
}

// NewQuote creates a quote in draft status and computes its totals.
// The quote number and version are assigned later, at first persistence.
func NewQuote(input NewQuoteInput) (*Quote, error) {
	if input.ClientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Client ID is required")
	}
	if input.DiscountType == "" {
		input.DiscountType = DiscountTypePercentage
	}
	if !input.DiscountType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Invalid discount type %q", input.DiscountType))
	}
	if input.Discount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Discount cannot be negative")
	}
	if input.VATRate.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "VAT rate cannot be negative")
	}
	for i := range input.Items {
		if err := input.Items[i].Validate(); err != nil {
			return nil, err
		}
		if input.Items[i].ID == uuid.Nil {
			input.Items[i].ID = uuid.New()
		}
	}

	q := &Quote{
		BaseEntity:           shared.NewBaseEntity(),
		Status:               QuoteStatusDraft,
		ClientID:             input.ClientID,
		ProjectID:            input.ProjectID,
		LinkedRequirementIDs: input.LinkedRequirementIDs,
		CreatedBy:            input.CreatedBy,
		BusinessInfo:         input.BusinessInfo,
		ClientInfo:           input.ClientInfo,
		Items:                input.Items,
		Discount:             input.Discount,
		DiscountType:         input.DiscountType,
		IncludeVAT:           input.IncludeVAT,
		VATRate:              input.VATRate,
		Notes:                input.Notes,
		Terms:                input.Terms,
		ValidUntil:           input.ValidUntil,
	}
	q.Recalculate()
	return q, nil
}

// Recalculate recomputes line totals, subtotal, VAT and grand total from
// the current pricing fields. Safe to call on every mutation.
func (q *Quote) Recalculate() {
	totals := ComputeTotals(q.Items, q.Discount, q.DiscountType, q.IncludeVAT, q.VATRate)
	q.Items = totals.Items
	q.Subtotal = totals.Subtotal
	q.VATAmount = totals.VATAmount
	q.Total = totals.Total
}

// AssignIdentity sets the quote number and version exactly once, at first
// persistence. Re-assignment is rejected to keep numbers immutable.
func (q *Quote) AssignIdentity(quoteNumber string, version int) error {
	if q.QuoteNumber != "" {
		return shared.NewDomainError("INVALID_STATE", "Quote number is already assigned")
	}
	if quoteNumber == "" {
		return shared.NewDomainError("INVALID_INPUT", "Quote number cannot be empty")
	}
	if version < 1 {
		return shared.NewDomainError("INVALID_INPUT", "Quote version must be at least 1")
	}
	q.QuoteNumber = quoteNumber
	q.Version = version
	return nil
}

// ReviseVersion moves the quote to a different revision slot. Used before
// the quote is persisted, when a concurrent creation for the same project
// claimed the version it was originally assigned.
func (q *Quote) ReviseVersion(version int) error {
	if q.QuoteNumber == "" {
		return shared.NewDomainError("INVALID_STATE", "Quote has no identity to revise")
	}
	if version < 1 {
		return shared.NewDomainError("INVALID_INPUT", "Quote version must be at least 1")
	}
	q.Version = version
	return nil
}

// UpdatePatch carries the mutable pricing and text fields of a quote.
// Nil pointers leave the corresponding field untouched.
type UpdatePatch struct {
	Items        []LineItem
	Discount     *decimal.Decimal
	DiscountType *DiscountType
	IncludeVAT   *bool
	VATRate      *decimal.Decimal
	Notes        *string
	Terms        *string
	ValidUntil   *time.Time
}

// Apply mutates the quote with the patch and recomputes totals
func (q *Quote) Apply(patch UpdatePatch) error {
	if patch.DiscountType != nil && !patch.DiscountType.IsValid() {
		return shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Invalid discount type %q", *patch.DiscountType))
	}
	if patch.Discount != nil && patch.Discount.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Discount cannot be negative")
	}
	if patch.VATRate != nil && patch.VATRate.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "VAT rate cannot be negative")
	}
	if patch.Items != nil {
		for i := range patch.Items {
			if err := patch.Items[i].Validate(); err != nil {
				return err
			}
			if patch.Items[i].ID == uuid.Nil {
				patch.Items[i].ID = uuid.New()
			}
		}
		q.Items = patch.Items
	}
	if patch.Discount != nil {
		q.Discount = *patch.Discount
	}
	if patch.DiscountType != nil {
		q.DiscountType = *patch.DiscountType
	}
	if patch.IncludeVAT != nil {
		q.IncludeVAT = *patch.IncludeVAT
	}
	if patch.VATRate != nil {
		q.VATRate = *patch.VATRate
	}
	if patch.Notes != nil {
		q.Notes = *patch.Notes
	}
	if patch.Terms != nil {
		q.Terms = *patch.Terms
	}
	if patch.ValidUntil != nil {
		q.ValidUntil = patch.ValidUntil
	}
	q.Recalculate()
	q.Touch()
	return nil
}

// SetStatus writes the lifecycle status. Any valid enum value is accepted;
// transition legality is intentionally not enforced here.
func (q *Quote) SetStatus(status QuoteStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Invalid quote status %q", status))
	}
	q.Status = status
	q.Touch()
	return nil
}

// SetArtifact records the locator of the latest rendered artifact.
// The artifact reflects the snapshot at render time and may lag behind
// later edits to the quote body.
func (q *Quote) SetArtifact(ref ArtifactRef) {
	q.Artifact = &ref
	q.Touch()
}

// ClearArtifact drops the artifact pointer, e.g. after remote cleanup
func (q *Quote) ClearArtifact() {
	q.Artifact = nil
	q.Touch()
}

// Duplicate returns a fresh draft copy of the quote. Identity (id, number,
// version), artifact pointers and timestamps are not carried over; the copy
// gets its own identity at first persistence.
func (q *Quote) Duplicate(createdBy *uuid.UUID) *Quote {
	items := make([]LineItem, len(q.Items))
	for i, item := range q.Items {
		items[i] = item
		items[i].ID = uuid.New()
	}
	linked := make([]uuid.UUID, len(q.LinkedRequirementIDs))
	copy(linked, q.LinkedRequirementIDs)

	dup := &Quote{
		BaseEntity:           shared.NewBaseEntity(),
		Status:               QuoteStatusDraft,
		ClientID:             q.ClientID,
		ProjectID:            q.ProjectID,
		LinkedRequirementIDs: linked,
		CreatedBy:            createdBy,
		BusinessInfo:         q.BusinessInfo,
		ClientInfo:           q.ClientInfo,
		Items:                items,
		Discount:             q.Discount,
		DiscountType:         q.DiscountType,
		IncludeVAT:           q.IncludeVAT,
		VATRate:              q.VATRate,
		Notes:                q.Notes,
		Terms:                q.Terms,
		ValidUntil:           q.ValidUntil,
	}
	dup.Recalculate()
	return dup
}

// IsOverdue reports whether the validity window has passed. The expired
// transition itself is driven by callers; this only evaluates the date.
func (q *Quote) IsOverdue(now time.Time) bool {
	return q.ValidUntil != nil && now.After(*q.ValidUntil) && !q.Status.IsTerminal()
}
