package ports

import (
	"context"
	"time"

	"github.com/fieldreports/reports-api/internal/core/domain"
)

// ListReportsFilter carries all query parameters for listing reports.
type ListReportsFilter struct {
	UserID    string    // empty = every owner
	StationID string    // optional
	From      time.Time // optional: visit_date >= From
	To        time.Time // optional: visit_date <= To
}

// ReportUpdate holds the fields a PATCH may change. Nil means unchanged.
type ReportUpdate struct {
	StationName  *string
	VisitDate    *time.Time
	Observations *string
	Activities   *string
	Status       *domain.ReportStatus
	Location     *domain.Coordinates
}

// ReportRepository defines persistence operations for reports.
type ReportRepository interface {
	Create(ctx context.Context, r *domain.Report) (*domain.Report, error)
	FindByID(ctx context.Context, id string) (*domain.Report, error)
	// List returns matching reports ordered by visit date, newest first.
	List(ctx context.Context, filter ListReportsFilter) ([]*domain.Report, error)
	Update(ctx context.Context, id string, upd ReportUpdate, at time.Time) (*domain.Report, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context, recent int) (*domain.ReportStats, error)
}
