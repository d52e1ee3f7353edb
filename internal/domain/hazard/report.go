package hazard

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/safework/backend/internal/domain/shared"
)

// RiskLevel classifies the severity of a hazard. It is set once at
// report creation and never changed afterwards.
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

// ParseRiskLevel converts a string to a RiskLevel
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch RiskLevel(strings.ToLower(strings.TrimSpace(s))) {
	case RiskLevelLow:
		return RiskLevelLow, nil
	case RiskLevelMedium:
		return RiskLevelMedium, nil
	case RiskLevelHigh:
		return RiskLevelHigh, nil
	default:
		return "", shared.NewDomainError("INVALID_RISK_LEVEL", "Risk level must be low, medium or high")
	}
}

// Status is the resolution state of a report. Transitions are
// unrestricted among the three states; any state is reachable from any
// other, including reopening a closed report.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in progress"
	StatusClosed     Status = "closed"
)

// ParseStatus converts a string to a Status. Both "in progress" and
// "in-progress" are accepted on the wire; the canonical form uses a space.
func ParseStatus(s string) (Status, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	switch normalized {
	case string(StatusOpen):
		return StatusOpen, nil
	case string(StatusInProgress), "in-progress":
		return StatusInProgress, nil
	case string(StatusClosed):
		return StatusClosed, nil
	default:
		return "", shared.NewDomainError("INVALID_STATUS", "Status must be open, in progress or closed")
	}
}

// Report represents a single submitted safety observation.
// It is the aggregate root for the hazard lifecycle.
type Report struct {
	shared.BaseAggregateRoot
	ReporterID  uuid.UUID
	Type        string
	Location    string
	RiskLevel   RiskLevel
	Description string
	ImageURL    string
	Status      Status
	Remarks     string
}

// NewReport creates a new hazard report owned by reporterID.
// The report starts open with empty remarks.
func NewReport(reporterID uuid.UUID, reportType, location string, riskLevel RiskLevel, description, imageURL string) (*Report, error) {
	if reporterID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REPORTER", "Reporter account is required")
	}
	reportType = strings.TrimSpace(reportType)
	if reportType == "" {
		return nil, shared.NewDomainError("INVALID_TYPE", "Hazard type is required")
	}
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, shared.NewDomainError("INVALID_LOCATION", "Location is required")
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Description is required")
	}
	if _, err := ParseRiskLevel(string(riskLevel)); err != nil {
		return nil, err
	}

	return &Report{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ReporterID:        reporterID,
		Type:              reportType,
		Location:          location,
		RiskLevel:         riskLevel,
		Description:       description,
		ImageURL:          strings.TrimSpace(imageURL),
		Status:            StatusOpen,
		Remarks:           "",
	}, nil
}

// UpdateStatus overwrites the status and remarks. No transition order is
// enforced and updating to the current status is a valid no-op.
// Authorization is the caller's responsibility.
func (r *Report) UpdateStatus(status Status, remarks string) error {
	if _, err := ParseStatus(string(status)); err != nil {
		return err
	}
	r.Status = status
	r.Remarks = remarks
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
	return nil
}

// IsOwnedBy reports whether the account owns this report
func (r *Report) IsOwnedBy(accountID uuid.UUID) bool {
	return r.ReporterID == accountID
}
