package models

import (
	"github.com/google/uuid"
	"github.com/safework/backend/internal/domain/hazard"
)

// HazardReportModel is the persistence model for the hazard Report entity.
type HazardReportModel struct {
	AggregateModel
	ReporterID  uuid.UUID        `gorm:"type:uuid;not null;index"`
	Type        string           `gorm:"type:varchar(100);not null"`
	Location    string           `gorm:"type:varchar(200);not null"`
	RiskLevel   hazard.RiskLevel `gorm:"type:varchar(10);not null"`
	Description string           `gorm:"type:text;not null"`
	ImageURL    string           `gorm:"type:varchar(500)"`
	Status      hazard.Status    `gorm:"type:varchar(20);not null;default:'open';index"`
	Remarks     string           `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (HazardReportModel) TableName() string {
	return "hazard_reports"
}

// ToDomain converts the persistence model to a domain Report entity.
func (m *HazardReportModel) ToDomain() *hazard.Report {
	return &hazard.Report{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		ReporterID:        m.ReporterID,
		Type:              m.Type,
		Location:          m.Location,
		RiskLevel:         m.RiskLevel,
		Description:       m.Description,
		ImageURL:          m.ImageURL,
		Status:            m.Status,
		Remarks:           m.Remarks,
	}
}

// FromDomain populates the persistence model from a domain Report entity.
func (m *HazardReportModel) FromDomain(r *hazard.Report) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.ReporterID = r.ReporterID
	m.Type = r.Type
	m.Location = r.Location
	m.RiskLevel = r.RiskLevel
	m.Description = r.Description
	m.ImageURL = r.ImageURL
	m.Status = r.Status
	m.Remarks = r.Remarks
}

// HazardReportModelFromDomain creates a new persistence model from a domain Report entity.
func HazardReportModelFromDomain(r *hazard.Report) *HazardReportModel {
	m := &HazardReportModel{}
	m.FromDomain(r)
	return m
}
