package rendering

import (
	"bytes"
	"embed"
	"html/template"
	"strings"
	"time"

	"github.com/leadcrm/backend/internal/domain/quote"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/quote_a4.html
var templateFS embed.FS

// TemplateEngine binds quote snapshots to the A4 HTML template. It uses Go's
// html/template package, so free-text fields (item names, notes, terms) are
// escaped and cannot inject markup into the artifact.
type TemplateEngine struct {
	tmpl *template.Template
}

// NewTemplateEngine parses the embedded quote template
func NewTemplateEngine() (*TemplateEngine, error) {
	tmpl, err := template.New("quote_a4.html").
		Funcs(templateFuncs()).
		ParseFS(templateFS, "templates/quote_a4.html")
	if err != nil {
		return nil, NewRenderError(ErrCodeInvalidHTML, "failed to parse quote template", err)
	}
	return &TemplateEngine{tmpl: tmpl}, nil
}

// RenderQuote renders a snapshot to a complete HTML document. The snapshot
// carries no live references, so the same snapshot always yields the same
// HTML.
func (e *TemplateEngine) RenderQuote(snapshot quote.Snapshot) (string, error) {
	var buf bytes.Buffer
	if err := e.tmpl.Execute(&buf, snapshot); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "failed to execute quote template", err)
	}
	return buf.String(), nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatAmount":  formatAmount,
		"formatQty":     formatQty,
		"formatDate":    formatDate,
		"formatPercent": formatPercent,
		"statusText":    statusText,
		"isPositive":    isPositive,
		"inc":           func(i int) int { return i + 1 },
	}
}

// formatAmount formats a decimal value with thousand separators and two
// decimal places. Example: 1234.5 -> "1,234.50"
func formatAmount(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	parts := strings.Split(d.StringFixed(2), ".")
	intPart := parts[0]
	decPart := "00"
	if len(parts) > 1 {
		decPart = parts[1]
	}

	var result strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(c)
	}
	return sign + result.String() + "." + decPart
}

// formatQty formats a quantity without trailing zeros
func formatQty(d decimal.Decimal) string {
	return d.String()
}

// formatDate formats a date as YYYY-MM-DD, empty for zero or nil times
func formatDate(v interface{}) string {
	var t time.Time
	switch val := v.(type) {
	case time.Time:
		t = val
	case *time.Time:
		if val != nil {
			t = *val
		}
	}
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// formatPercent formats a percentage value, trimming trailing zeros.
// Example: 17 -> "17%", 8.5 -> "8.5%"
func formatPercent(d decimal.Decimal) string {
	return d.String() + "%"
}

// statusText renders a lifecycle status for display
func statusText(s quote.QuoteStatus) string {
	return cases.Title(language.English).String(string(s))
}

func isPositive(d decimal.Decimal) bool {
	return d.IsPositive()
}
