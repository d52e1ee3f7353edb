package handler

// CreateReportRequest represents a hazard report submission
type CreateReportRequest struct {
	Type        string `json:"type" binding:"required"`
	Location    string `json:"location" binding:"required"`
	RiskLevel   string `json:"riskLevel" binding:"required,risklevel"`
	Description string `json:"description" binding:"required"`
	// Opaque reference chosen by the client; not required to be a URL
	ImageURL string `json:"imageUrl"`
}

// UpdateStatusRequest represents a triage decision
type UpdateStatusRequest struct {
	Status  string `json:"status" binding:"required,hazardstatus"`
	Remarks string `json:"remarks"`
}
