package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/leadcrm/backend/internal/domain/quote"
	"github.com/leadcrm/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// QuoteModel is the GORM model for the quotes table. Line items and the
// business/client snapshots are stored as JSON columns: they are always
// read and written with the quote and never queried independently.
type QuoteModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	QuoteNumber string    `gorm:"column:quote_number;type:varchar(20);not null;uniqueIndex"`
	Version     int       `gorm:"not null;default:1;uniqueIndex:idx_quotes_project_version,priority:2"`
	Status      string    `gorm:"type:varchar(20);not null;default:'draft';index"`

	ClientID             uuid.UUID  `gorm:"column:client_id;type:uuid;not null;index"`
	ProjectID            *uuid.UUID `gorm:"column:project_id;type:uuid;index;uniqueIndex:idx_quotes_project_version,priority:1"`
	LinkedRequirementIDs string     `gorm:"column:linked_requirement_ids;type:text"`
	CreatedBy            *uuid.UUID `gorm:"column:created_by;type:uuid"`

	BusinessInfo string `gorm:"column:business_info;type:text;not null"`
	ClientInfo   string `gorm:"column:client_info;type:text;not null"`
	Items        string `gorm:"type:text;not null"`

	Discount     decimal.Decimal `gorm:"type:numeric(14,4);not null"`
	DiscountType string          `gorm:"column:discount_type;type:varchar(20);not null"`
	IncludeVAT   bool            `gorm:"column:include_vat;not null"`
	VATRate      decimal.Decimal `gorm:"column:vat_rate;type:numeric(7,4);not null"`
	Subtotal     decimal.Decimal `gorm:"type:numeric(14,4);not null"`
	VATAmount    decimal.Decimal `gorm:"column:vat_amount;type:numeric(14,4);not null"`
	Total        decimal.Decimal `gorm:"type:numeric(14,4);not null"`

	Notes      string     `gorm:"type:text"`
	Terms      string     `gorm:"type:text"`
	ValidUntil *time.Time `gorm:"column:valid_until"`

	ArtifactLocator   string     `gorm:"column:artifact_locator;type:text"`
	ArtifactStorageID *uuid.UUID `gorm:"column:artifact_storage_id;type:uuid"`
	ArtifactStrategy  string     `gorm:"column:artifact_strategy;type:varchar(20)"`

	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for QuoteModel
func (QuoteModel) TableName() string {
	return "quotes"
}

// ToDomain converts QuoteModel to a domain Quote
func (m *QuoteModel) ToDomain() (*quote.Quote, error) {
	var items []quote.LineItem
	if err := json.Unmarshal([]byte(m.Items), &items); err != nil {
		return nil, err
	}
	var businessInfo quote.BusinessInfo
	if err := json.Unmarshal([]byte(m.BusinessInfo), &businessInfo); err != nil {
		return nil, err
	}
	var clientInfo quote.ClientInfo
	if err := json.Unmarshal([]byte(m.ClientInfo), &clientInfo); err != nil {
		return nil, err
	}
	var linked []uuid.UUID
	if m.LinkedRequirementIDs != "" {
		if err := json.Unmarshal([]byte(m.LinkedRequirementIDs), &linked); err != nil {
			return nil, err
		}
	}

	q := &quote.Quote{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		QuoteNumber:          m.QuoteNumber,
		Version:              m.Version,
		Status:               quote.QuoteStatus(m.Status),
		ClientID:             m.ClientID,
		ProjectID:            m.ProjectID,
		LinkedRequirementIDs: linked,
		CreatedBy:            m.CreatedBy,
		BusinessInfo:         businessInfo,
		ClientInfo:           clientInfo,
		Items:                items,
		Discount:             m.Discount,
		DiscountType:         quote.DiscountType(m.DiscountType),
		IncludeVAT:           m.IncludeVAT,
		VATRate:              m.VATRate,
		Subtotal:             m.Subtotal,
		VATAmount:            m.VATAmount,
		Total:                m.Total,
		Notes:                m.Notes,
		Terms:                m.Terms,
		ValidUntil:           m.ValidUntil,
	}
	if m.ArtifactLocator != "" {
		q.Artifact = &quote.ArtifactRef{
			Locator:   m.ArtifactLocator,
			StorageID: m.ArtifactStorageID,
			Strategy:  m.ArtifactStrategy,
		}
	}
	return q, nil
}

// QuoteModelFromDomain creates a QuoteModel from a domain Quote
func QuoteModelFromDomain(q *quote.Quote) (*QuoteModel, error) {
	items, err := json.Marshal(q.Items)
	if err != nil {
		return nil, err
	}
	businessInfo, err := json.Marshal(q.BusinessInfo)
	if err != nil {
		return nil, err
	}
	clientInfo, err := json.Marshal(q.ClientInfo)
	if err != nil {
		return nil, err
	}
	linked := ""
	if len(q.LinkedRequirementIDs) > 0 {
		raw, err := json.Marshal(q.LinkedRequirementIDs)
		if err != nil {
			return nil, err
		}
		linked = string(raw)
	}

	m := &QuoteModel{
		ID:                   q.ID,
		QuoteNumber:          q.QuoteNumber,
		Version:              q.Version,
		Status:               string(q.Status),
		ClientID:             q.ClientID,
		ProjectID:            q.ProjectID,
		LinkedRequirementIDs: linked,
		CreatedBy:            q.CreatedBy,
		BusinessInfo:         string(businessInfo),
		ClientInfo:           string(clientInfo),
		Items:                string(items),
		Discount:             q.Discount,
		DiscountType:         string(q.DiscountType),
		IncludeVAT:           q.IncludeVAT,
		VATRate:              q.VATRate,
		Subtotal:             q.Subtotal,
		VATAmount:            q.VATAmount,
		Total:                q.Total,
		Notes:                q.Notes,
		Terms:                q.Terms,
		ValidUntil:           q.ValidUntil,
		CreatedAt:            q.CreatedAt,
		UpdatedAt:            q.UpdatedAt,
	}
	if q.Artifact != nil {
		m.ArtifactLocator = q.Artifact.Locator
		m.ArtifactStorageID = q.Artifact.StorageID
		m.ArtifactStrategy = q.Artifact.Strategy
	}
	return m, nil
}
