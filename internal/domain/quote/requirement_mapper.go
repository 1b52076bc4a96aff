package quote

import (
	"github.com/google/uuid"
	"github.com/leadcrm/backend/internal/domain/directory"
	"github.com/leadcrm/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MapRequirements turns a project's requirement records into priced line
// items, one per requirement, quantity 1.
//
// Selection: when explicitIDs is non-empty only those requirements are
// taken (unknown ids are ignored); otherwise all approved requirements are
// selected. An empty resolved set fails with ErrEmptySelection.
//
// Pricing: unitPrice = estimatedHours * hourlyRate when both are positive,
// zero otherwise. A zero price means "price me manually".
func MapRequirements(reqs []directory.Requirement, explicitIDs []uuid.UUID, hourlyRate decimal.Decimal) ([]LineItem, []uuid.UUID, error) {
	if hourlyRate.IsNegative() {
		return nil, nil, shared.NewDomainError("INVALID_INPUT", "Hourly rate cannot be negative")
	}

	var selected []directory.Requirement
	if len(explicitIDs) > 0 {
		wanted := make(map[uuid.UUID]bool, len(explicitIDs))
		for _, id := range explicitIDs {
			wanted[id] = true
		}
		for _, r := range reqs {
			if wanted[r.ID] {
				selected = append(selected, r)
			}
		}
	} else {
		for _, r := range reqs {
			if r.Status == directory.RequirementStatusApproved {
				selected = append(selected, r)
			}
		}
	}

	if len(selected) == 0 {
		return nil, nil, shared.ErrEmptySelection
	}

	items := make([]LineItem, len(selected))
	linked := make([]uuid.UUID, len(selected))
	for i, r := range selected {
		unitPrice := decimal.Zero
		if hourlyRate.IsPositive() && r.EstimatedHours.IsPositive() {
			unitPrice = r.EstimatedHours.Mul(hourlyRate)
		}
		items[i] = LineItem{
			ID:          uuid.New(),
			Name:        r.Title,
			Description: r.Description,
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   unitPrice,
			TotalPrice:  unitPrice,
		}
		linked[i] = r.ID
	}
	return items, linked, nil
}
