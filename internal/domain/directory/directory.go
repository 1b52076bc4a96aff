// Package directory holds the read-only contracts for the external client
// and project/requirement records the quote pipeline consumes. The
// surrounding CRM owns these records; this service never writes them.
package directory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Client is a contact record from the client directory
type Client struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Company   string    `json:"company"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// RequirementStatus is the workflow status of a project requirement
type RequirementStatus string

const (
	RequirementStatusProposed RequirementStatus = "proposed"
	RequirementStatusApproved RequirementStatus = "approved"
	RequirementStatusRejected RequirementStatus = "rejected"
	RequirementStatusDone     RequirementStatus = "done"
)

// Requirement is a unit of scoped work that may be priced into a line item
type Requirement struct {
	ID             uuid.UUID         `json:"id"`
	ProjectID      uuid.UUID         `json:"project_id"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	EstimatedHours decimal.Decimal   `json:"estimated_hours"`
	Status         RequirementStatus `json:"status"`
}

// Project groups requirements under a client engagement
type Project struct {
	ID         uuid.UUID       `json:"id"`
	ClientID   uuid.UUID       `json:"client_id"`
	Name       string          `json:"name"`
	HourlyRate decimal.Decimal `json:"hourly_rate"`
}

// ClientDirectory is the read-only lookup for client records
type ClientDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Client, error)
}

// ProjectStore is the read-only lookup for projects and their requirements
type ProjectStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Project, error)
	FindRequirements(ctx context.Context, projectID uuid.UUID) ([]Requirement, error)
}
