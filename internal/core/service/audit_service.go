package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fieldreports/reports-api/internal/core/domain"
	"github.com/fieldreports/reports-api/internal/core/ports"
	"github.com/fieldreports/reports-api/internal/pkg/metrics"
)

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService returns an AuditService. A nil repo logs events without
// persisting them.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Process persists a single audit event.
func (s *auditService) Process(ctx context.Context, event domain.AuthEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	s.log.Info().
		Str("kind", string(event.Kind)).
		Str("principal_id", event.PrincipalID).
		Str("operation", event.Operation).
		Str("reason", event.Reason).
		Str("remote_ip", event.RemoteIP).
		Msg("auth event")

	if s.repo == nil {
		return nil
	}
	if err := s.repo.InsertEvent(ctx, &event); err != nil {
		return fmt.Errorf("process audit event: %w", err)
	}
	metrics.AuditEventsTotal.WithLabelValues(string(event.Kind)).Inc()
	return nil
}
