package rendering

import (
	"testing"
	"time"

	"github.com/leadcrm/backend/internal/domain/quote"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot(t *testing.T) quote.Snapshot {
	t.Helper()
	validUntil := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
	q, err := quote.NewQuote(quote.NewQuoteInput{
		ClientID: mustUUID(t),
		BusinessInfo: quote.BusinessInfo{
			Name:     "Acme Studio",
			Email:    "hello@acme.example",
			TaxID:    "123456789",
			Currency: "₪",
		},
		ClientInfo: quote.ClientInfo{
			Name:    "Dana Levi",
			Company: "Levi Consulting",
		},
		Items: []quote.LineItem{
			{
				Name:        "Backend development",
				Description: "API and data layer",
				Quantity:    decimal.NewFromInt(10),
				UnitPrice:   decimal.NewFromInt(350),
			},
			{
				Name:      "Deployment",
				Quantity:  decimal.NewFromInt(1),
				UnitPrice: decimal.NewFromInt(500),
			},
		},
		Discount:   decimal.NewFromInt(10),
		IncludeVAT: true,
		VATRate:    decimal.NewFromInt(17),
		Notes:      "Kickoff within two weeks of acceptance.",
		ValidUntil: &validUntil,
	})
	require.NoError(t, err)
	require.NoError(t, q.AssignIdentity("Q2026-0042", 2))
	return q.TakeSnapshot()
}

func TestTemplateEngine_RenderQuote(t *testing.T) {
	engine, err := NewTemplateEngine()
	require.NoError(t, err)

	t.Run("renders quote fields and formatted amounts", func(t *testing.T) {
		html, err := engine.RenderQuote(testSnapshot(t))
		require.NoError(t, err)

		assert.Contains(t, html, "Q2026-0042")
		assert.Contains(t, html, "v2")
		assert.Contains(t, html, "Acme Studio")
		assert.Contains(t, html, "Dana Levi")
		assert.Contains(t, html, "Backend development")
		assert.Contains(t, html, "Valid until: 2026-09-30")
		// subtotal 4000, 10% discount 400, VAT 17% on 3600 = 612, total 4212
		assert.Contains(t, html, "₪4,000.00")
		assert.Contains(t, html, "-₪400.00")
		assert.Contains(t, html, "₪612.00")
		assert.Contains(t, html, "₪4,212.00")
		assert.Contains(t, html, "VAT (17%)")
	})

	t.Run("escapes markup in free text fields", func(t *testing.T) {
		snapshot := testSnapshot(t)
		snapshot.Items[0].Name = `<script>alert("x")</script>`
		snapshot.Notes = `Offer valid for <b>30 days</b> & counting`

		html, err := engine.RenderQuote(snapshot)
		require.NoError(t, err)

		assert.NotContains(t, html, `<script>alert`)
		assert.Contains(t, html, "&lt;script&gt;")
		assert.NotContains(t, html, "<b>30 days</b>")
		assert.Contains(t, html, "&amp; counting")
	})

	t.Run("same snapshot renders identically", func(t *testing.T) {
		snapshot := testSnapshot(t)
		first, err := engine.RenderQuote(snapshot)
		require.NoError(t, err)
		second, err := engine.RenderQuote(snapshot)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("hides discount and VAT rows when not applicable", func(t *testing.T) {
		snapshot := testSnapshot(t)
		snapshot.Discount = decimal.Zero
		snapshot.DiscountAmount = decimal.Zero
		snapshot.IncludeVAT = false

		html, err := engine.RenderQuote(snapshot)
		require.NoError(t, err)
		assert.NotContains(t, html, "Discount")
		assert.NotContains(t, html, "VAT (")
	})
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"1234.5", "1,234.50"},
		{"1000000", "1,000,000.00"},
		{"-52.3", "-52.30"},
		{"999", "999.00"},
	}
	for _, tc := range cases {
		d, err := decimal.NewFromString(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, formatAmount(d), "input %s", tc.in)
	}
}
