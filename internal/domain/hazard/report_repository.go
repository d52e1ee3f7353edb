package hazard

import (
	"context"

	"github.com/google/uuid"
)

// ReportWithReporter pairs a report with its owner's username for
// administrator listings.
type ReportWithReporter struct {
	Report
	ReporterUsername string
}

// ReportRepository defines the persistence interface for hazard reports
type ReportRepository interface {
	Create(ctx context.Context, report *Report) error
	Update(ctx context.Context, report *Report) error
	FindByID(ctx context.Context, id uuid.UUID) (*Report, error)
	// FindByIDWithReporter returns a single report annotated with the
	// owning account's username.
	FindByIDWithReporter(ctx context.Context, id uuid.UUID) (*ReportWithReporter, error)
	// FindByReporter returns the reports owned by the given account,
	// newest first.
	FindByReporter(ctx context.Context, reporterID uuid.UUID) ([]*Report, error)
	// FindAllWithReporter returns every report, newest first, each
	// annotated with the owning account's username.
	FindAllWithReporter(ctx context.Context) ([]*ReportWithReporter, error)
}
