package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/safework/backend/internal/domain/hazard"
	"github.com/safework/backend/internal/domain/shared"
	"github.com/safework/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormReportRepository implements ReportRepository using GORM
type GormReportRepository struct {
	db *gorm.DB
}

// NewGormReportRepository creates a new GormReportRepository
func NewGormReportRepository(db *gorm.DB) *GormReportRepository {
	return &GormReportRepository{db: db}
}

// Create creates a new hazard report
func (r *GormReportRepository) Create(ctx context.Context, report *hazard.Report) error {
	model := models.HazardReportModelFromDomain(report)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update updates an existing hazard report
func (r *GormReportRepository) Update(ctx context.Context, report *hazard.Report) error {
	model := models.HazardReportModelFromDomain(report)
	result := r.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	// Save stamps updated_at; reflect the stored value so callers
	// broadcast exactly what a subsequent read returns
	report.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID finds a hazard report by ID
func (r *GormReportRepository) FindByID(ctx context.Context, id uuid.UUID) (*hazard.Report, error) {
	var model models.HazardReportModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByReporter returns all reports submitted by the given account, newest first
func (r *GormReportRepository) FindByReporter(ctx context.Context, reporterID uuid.UUID) ([]*hazard.Report, error) {
	var reportModels []*models.HazardReportModel
	if err := r.db.WithContext(ctx).
		Where("reporter_id = ?", reporterID).
		Order("created_at DESC").
		Find(&reportModels).Error; err != nil {
		return nil, err
	}

	reports := make([]*hazard.Report, 0, len(reportModels))
	for _, model := range reportModels {
		reports = append(reports, model.ToDomain())
	}
	return reports, nil
}

// FindByIDWithReporter returns a single report joined with the
// reporter's username
func (r *GormReportRepository) FindByIDWithReporter(ctx context.Context, id uuid.UUID) (*hazard.ReportWithReporter, error) {
	var row reportWithReporterRow
	if err := r.db.WithContext(ctx).
		Model(&models.HazardReportModel{}).
		Select("hazard_reports.*, accounts.username AS reporter_username").
		Joins("JOIN accounts ON accounts.id = hazard_reports.reporter_id").
		Where("hazard_reports.id = ?", id).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &hazard.ReportWithReporter{
		Report:           *row.ToDomain(),
		ReporterUsername: row.ReporterUsername,
	}, nil
}

// reportWithReporterRow carries a report row joined with its reporter's username
type reportWithReporterRow struct {
	models.HazardReportModel
	ReporterUsername string
}

// FindAllWithReporter returns all reports joined with the reporter's
// username, newest first
func (r *GormReportRepository) FindAllWithReporter(ctx context.Context) ([]*hazard.ReportWithReporter, error) {
	var rows []*reportWithReporterRow
	if err := r.db.WithContext(ctx).
		Model(&models.HazardReportModel{}).
		Select("hazard_reports.*, accounts.username AS reporter_username").
		Joins("JOIN accounts ON accounts.id = hazard_reports.reporter_id").
		Order("hazard_reports.created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	reports := make([]*hazard.ReportWithReporter, 0, len(rows))
	for _, row := range rows {
		reports = append(reports, &hazard.ReportWithReporter{
			Report:           *row.ToDomain(),
			ReporterUsername: row.ReporterUsername,
		})
	}
	return reports, nil
}
