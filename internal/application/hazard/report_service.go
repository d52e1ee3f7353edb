package hazard

import (
	"context"
	"errors"

	"github.com/safework/backend/internal/domain/hazard"
	"github.com/safework/backend/internal/domain/shared"
	"github.com/safework/backend/internal/infrastructure/event"
	"go.uber.org/zap"
)

// Publisher pushes lifecycle events to connected stream clients
type Publisher interface {
	Publish(kind event.Kind, payload any)
}

// ReportService handles hazard report submission and triage
type ReportService struct {
	reportRepo hazard.ReportRepository
	publisher  Publisher
	logger     *zap.Logger
}

// NewReportService creates a new report service
func NewReportService(reportRepo hazard.ReportRepository, publisher Publisher, logger *zap.Logger) *ReportService {
	return &ReportService{
		reportRepo: reportRepo,
		publisher:  publisher,
		logger:     logger,
	}
}

// CreateReport validates and persists a new hazard report, then
// notifies stream clients. The notification happens strictly after the
// report is stored and its failure never surfaces to the submitter.
func (s *ReportService) CreateReport(ctx context.Context, input CreateReportInput) (*ReportDTO, error) {
	riskLevel, err := hazard.ParseRiskLevel(input.RiskLevel)
	if err != nil {
		return nil, err
	}

	report, err := hazard.NewReport(input.ReporterID, input.Type, input.Location, riskLevel, input.Description, input.ImageURL)
	if err != nil {
		return nil, err
	}

	if err := s.reportRepo.Create(ctx, report); err != nil {
		s.logger.Error("Failed to store hazard report", zap.Error(err))
		return nil, shared.ErrStorage
	}

	s.logger.Info("Hazard report created",
		zap.String("report_id", report.ID.String()),
		zap.String("reporter_id", report.ReporterID.String()),
		zap.String("risk_level", string(report.RiskLevel)))

	dto := reportDTOFromDomain(report, input.ReporterUsername)
	s.publisher.Publish(event.KindReportCreated, dto)

	return &dto, nil
}

// ListReports returns reports visible to the viewer, newest first.
// Administrators see every report annotated with the reporter's
// username; employees see only their own submissions.
func (s *ReportService) ListReports(ctx context.Context, input ListReportsInput) ([]ReportDTO, error) {
	if input.ViewerRole == "" {
		return nil, shared.ErrUnauthorized
	}

	if input.ViewerRole.IsAdministrator() {
		annotated, err := s.reportRepo.FindAllWithReporter(ctx)
		if err != nil {
			s.logger.Error("Failed to list hazard reports", zap.Error(err))
			return nil, shared.ErrStorage
		}
		dtos := make([]ReportDTO, 0, len(annotated))
		for _, row := range annotated {
			dtos = append(dtos, reportDTOFromDomain(&row.Report, row.ReporterUsername))
		}
		return dtos, nil
	}

	reports, err := s.reportRepo.FindByReporter(ctx, input.ViewerID)
	if err != nil {
		s.logger.Error("Failed to list hazard reports", zap.Error(err))
		return nil, shared.ErrStorage
	}
	dtos := make([]ReportDTO, 0, len(reports))
	for _, report := range reports {
		dtos = append(dtos, reportDTOFromDomain(report, ""))
	}
	return dtos, nil
}

// UpdateStatus applies an administrator's triage decision to a report
// and notifies stream clients. Transitions are unordered: any valid
// status can replace any other.
func (s *ReportService) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*ReportDTO, error) {
	if !input.ActorRole.IsAdministrator() {
		return nil, shared.ErrForbidden
	}

	status, err := hazard.ParseStatus(input.Status)
	if err != nil {
		return nil, err
	}

	row, err := s.reportRepo.FindByIDWithReporter(ctx, input.ReportID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNotFound
		}
		s.logger.Error("Failed to load hazard report", zap.Error(err))
		return nil, shared.ErrStorage
	}

	report := &row.Report
	if err := report.UpdateStatus(status, input.Remarks); err != nil {
		return nil, err
	}

	if err := s.reportRepo.Update(ctx, report); err != nil {
		s.logger.Error("Failed to store status change", zap.Error(err))
		return nil, shared.ErrStorage
	}

	s.logger.Info("Hazard report status changed",
		zap.String("report_id", report.ID.String()),
		zap.String("status", string(report.Status)))

	dto := reportDTOFromDomain(report, row.ReporterUsername)
	s.publisher.Publish(event.KindStatusChanged, dto)

	return &dto, nil
}
