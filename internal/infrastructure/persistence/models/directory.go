package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/leadcrm/backend/internal/domain/directory"
	"github.com/shopspring/decimal"
)

// ClientModel maps the clients table owned by the surrounding CRM.
// This service only reads it.
type ClientModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	Name      string    `gorm:"type:varchar(200);not null"`
	Company   string    `gorm:"type:varchar(200)"`
	Address   string    `gorm:"type:text"`
	Phone     string    `gorm:"type:varchar(50)"`
	Email     string    `gorm:"type:varchar(200)"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for ClientModel
func (ClientModel) TableName() string {
	return "clients"
}

// ToDomain converts ClientModel to a domain Client
func (m *ClientModel) ToDomain() *directory.Client {
	return &directory.Client{
		ID:        m.ID,
		Name:      m.Name,
		Company:   m.Company,
		Address:   m.Address,
		Phone:     m.Phone,
		Email:     m.Email,
		CreatedAt: m.CreatedAt,
	}
}

// ProjectModel maps the projects table owned by the surrounding CRM
type ProjectModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key"`
	ClientID   uuid.UUID       `gorm:"column:client_id;type:uuid;not null;index"`
	Name       string          `gorm:"type:varchar(200);not null"`
	HourlyRate decimal.Decimal `gorm:"column:hourly_rate;type:numeric(10,2);not null;default:0"`
}

// TableName returns the table name for ProjectModel
func (ProjectModel) TableName() string {
	return "projects"
}

// ToDomain converts ProjectModel to a domain Project
func (m *ProjectModel) ToDomain() *directory.Project {
	return &directory.Project{
		ID:         m.ID,
		ClientID:   m.ClientID,
		Name:       m.Name,
		HourlyRate: m.HourlyRate,
	}
}

// RequirementModel maps the requirements table owned by the surrounding CRM
type RequirementModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	ProjectID      uuid.UUID       `gorm:"column:project_id;type:uuid;not null;index"`
	Title          string          `gorm:"type:varchar(300);not null"`
	Description    string          `gorm:"type:text"`
	EstimatedHours decimal.Decimal `gorm:"column:estimated_hours;type:numeric(8,2);not null;default:0"`
	Status         string          `gorm:"type:varchar(20);not null"`
}

// TableName returns the table name for RequirementModel
func (RequirementModel) TableName() string {
	return "requirements"
}

// ToDomain converts RequirementModel to a domain Requirement
func (m *RequirementModel) ToDomain() directory.Requirement {
	return directory.Requirement{
		ID:             m.ID,
		ProjectID:      m.ProjectID,
		Title:          m.Title,
		Description:    m.Description,
		EstimatedHours: m.EstimatedHours,
		Status:         directory.RequirementStatus(m.Status),
	}
}
