package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fieldreports/reports-api/internal/core/domain"
	"github.com/fieldreports/reports-api/internal/core/ports"
	"github.com/fieldreports/reports-api/internal/pkg/metrics"
)

const recentReportsInStats = 10

// ReportService is the downstream consumer of the authorized principal. It
// receives the principal explicitly on every call.
type ReportService struct {
	repo   ports.ReportRepository
	logger zerolog.Logger
}

func NewReportService(repo ports.ReportRepository, logger zerolog.Logger) *ReportService {
	return &ReportService{repo: repo, logger: logger}
}

// Create stores a report owned by actor.
func (s *ReportService) Create(ctx context.Context, actor *domain.Principal, in ports.CreateReportInput) (*domain.Report, error) {
	if strings.TrimSpace(in.StationID) == "" || in.VisitDate.IsZero() {
		return nil, domain.ErrInvalidReport
	}

	status := domain.ReportStatus(strings.TrimSpace(in.Status))
	if status == "" {
		status = domain.ReportStatusPending
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.Report{
		StationID:    in.StationID,
		StationName:  in.StationName,
		VisitDate:    in.VisitDate.UTC(),
		Observations: in.Observations,
		Activities:   in.Activities,
		Status:       status,
		Location:     in.Location,
		UserID:       actor.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create report")
		return nil, fmt.Errorf("create report: %w", err)
	}

	metrics.ReportsCreatedTotal.WithLabelValues(string(status)).Inc()
	s.logger.Info().Str("report_id", created.ID).Str("user_id", actor.ID).Msg("report created")
	return created, nil
}

// List returns the actor's own reports, or every report when the actor is an
// admin or in.All is set.
func (s *ReportService) List(ctx context.Context, actor *domain.Principal, in ports.ListReportsInput) ([]*domain.Report, error) {
	filter := ports.ListReportsFilter{StationID: in.StationID, From: in.From, To: in.To}
	if actor.Role != domain.RoleAdmin && !in.All {
		filter.UserID = actor.ID
	}
	return s.list(ctx, filter)
}

// ListByStation returns every report for a station.
func (s *ReportService) ListByStation(ctx context.Context, _ *domain.Principal, stationID string) ([]*domain.Report, error) {
	if strings.TrimSpace(stationID) == "" {
		return nil, domain.ErrInvalidReport
	}
	return s.list(ctx, ports.ListReportsFilter{StationID: stationID})
}

// ListByDateRange returns every report visited within [from, to].
func (s *ReportService) ListByDateRange(ctx context.Context, _ *domain.Principal, from, to time.Time) ([]*domain.Report, error) {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil, domain.ErrInvalidReport
	}
	return s.list(ctx, ports.ListReportsFilter{From: from.UTC(), To: to.UTC()})
}

func (s *ReportService) Get(ctx context.Context, _ *domain.Principal, id string) (*domain.Report, error) {
	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *ReportService) Update(ctx context.Context, actor *domain.Principal, id string, upd ports.ReportUpdate) (*domain.Report, error) {
	r, err := s.repo.Update(ctx, id, upd, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("report_id", id).Str("user_id", actor.ID).Msg("report updated")
	return r, nil
}

func (s *ReportService) Delete(ctx context.Context, actor *domain.Principal, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("report_id", id).Str("user_id", actor.ID).Msg("report deleted")
	return nil
}

// Stats returns totals, a per-status breakdown and the most recent reports.
func (s *ReportService) Stats(ctx context.Context, _ *domain.Principal) (*domain.ReportStats, error) {
	stats, err := s.repo.Stats(ctx, recentReportsInStats)
	if err != nil {
		return nil, fmt.Errorf("report stats: %w", err)
	}
	return stats, nil
}

func (s *ReportService) list(ctx context.Context, filter ports.ListReportsFilter) ([]*domain.Report, error) {
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	if items == nil {
		items = []*domain.Report{}
	}
	return items, nil
}
