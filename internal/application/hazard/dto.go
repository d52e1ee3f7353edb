package hazard

import (
	"time"

	"github.com/google/uuid"
	"github.com/safework/backend/internal/domain/hazard"
	"github.com/safework/backend/internal/domain/identity"
)

// CreateReportInput contains the input for submitting a hazard report
type CreateReportInput struct {
	ReporterID       uuid.UUID
	ReporterUsername string
	Type             string
	Location         string
	RiskLevel        string
	Description      string
	ImageURL         string
}

// ListReportsInput identifies the viewer so results can be scoped
type ListReportsInput struct {
	ViewerID   uuid.UUID
	ViewerRole identity.Role
}

// UpdateStatusInput contains the input for a triage decision
type UpdateStatusInput struct {
	ReportID  uuid.UUID
	ActorRole identity.Role
	Status    string
	Remarks   string
}

// ReportDTO is the canonical external representation of a hazard
// report. The same shape is returned from the REST endpoints and
// pushed over the event stream.
type ReportDTO struct {
	ID               uuid.UUID        `json:"id"`
	ReporterID       uuid.UUID        `json:"reporterId"`
	ReporterUsername string           `json:"reporterUsername,omitempty"`
	Type             string           `json:"type"`
	Location         string           `json:"location"`
	RiskLevel        hazard.RiskLevel `json:"riskLevel"`
	Description      string           `json:"description"`
	ImageURL         string           `json:"imageUrl,omitempty"`
	Status           hazard.Status    `json:"status"`
	Remarks          string           `json:"remarks"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

func reportDTOFromDomain(r *hazard.Report, reporterUsername string) ReportDTO {
	return ReportDTO{
		ID:               r.ID,
		ReporterID:       r.ReporterID,
		ReporterUsername: reporterUsername,
		Type:             r.Type,
		Location:         r.Location,
		RiskLevel:        r.RiskLevel,
		Description:      r.Description,
		ImageURL:         r.ImageURL,
		Status:           r.Status,
		Remarks:          r.Remarks,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}
