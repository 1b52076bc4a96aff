package quote

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is an immutable, fully-resolved copy of a quote handed to the
// artifact renderer. It carries no live references, so rendering the same
// snapshot twice produces identical output.
type Snapshot struct {
	QuoteNumber    string
	Version        int
	Status         QuoteStatus
	IssuedAt       time.Time
	ValidUntil     *time.Time
	BusinessInfo   BusinessInfo
	ClientInfo     ClientInfo
	Items          []LineItem
	Discount       decimal.Decimal
	DiscountType   DiscountType
	DiscountAmount decimal.Decimal
	IncludeVAT     bool
	VATRate        decimal.Decimal
	Subtotal       decimal.Decimal
	VATAmount      decimal.Decimal
	Total          decimal.Decimal
	Notes          string
	Terms          string
}

// TakeSnapshot freezes the quote's current state for rendering.
// The discount amount is re-derived so the snapshot is self-contained.
func (q *Quote) TakeSnapshot() Snapshot {
	items := make([]LineItem, len(q.Items))
	copy(items, q.Items)

	totals := ComputeTotals(items, q.Discount, q.DiscountType, q.IncludeVAT, q.VATRate)

	return Snapshot{
		QuoteNumber:    q.QuoteNumber,
		Version:        q.Version,
		Status:         q.Status,
		IssuedAt:       q.CreatedAt,
		ValidUntil:     q.ValidUntil,
		BusinessInfo:   q.BusinessInfo,
		ClientInfo:     q.ClientInfo,
		Items:          totals.Items,
		Discount:       q.Discount,
		DiscountType:   q.DiscountType,
		DiscountAmount: totals.DiscountAmount,
		IncludeVAT:     q.IncludeVAT,
		VATRate:        q.VATRate,
		Subtotal:       totals.Subtotal,
		VATAmount:      totals.VATAmount,
		Total:          totals.Total,
		Notes:          q.Notes,
		Terms:          q.Terms,
	}
}
