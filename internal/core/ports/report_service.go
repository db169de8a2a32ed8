package ports

import (
	"context"
	"time"

	"github.com/fieldreports/reports-api/internal/core/domain"
)

// CreateReportInput carries all data needed to create a report.
type CreateReportInput struct {
	StationID    string
	StationName  string
	VisitDate    time.Time
	Observations string
	Activities   string
	Status       string
	Location     *domain.Coordinates
}

// ListReportsInput carries the parameters of the list endpoints.
type ListReportsInput struct {
	All       bool // ?all=true widens the listing to every owner
	StationID string
	From      time.Time
	To        time.Time
}

// ReportService defines use-case operations for reports. Every call receives
// the authorized principal explicitly.
type ReportService interface {
	Create(ctx context.Context, actor *domain.Principal, in CreateReportInput) (*domain.Report, error)
	List(ctx context.Context, actor *domain.Principal, in ListReportsInput) ([]*domain.Report, error)
	ListByStation(ctx context.Context, actor *domain.Principal, stationID string) ([]*domain.Report, error)
	ListByDateRange(ctx context.Context, actor *domain.Principal, from, to time.Time) ([]*domain.Report, error)
	Get(ctx context.Context, actor *domain.Principal, id string) (*domain.Report, error)
	Update(ctx context.Context, actor *domain.Principal, id string, upd ReportUpdate) (*domain.Report, error)
	Delete(ctx context.Context, actor *domain.Principal, id string) error
	Stats(ctx context.Context, actor *domain.Principal) (*domain.ReportStats, error)
}
