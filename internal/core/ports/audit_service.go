package ports

import (
	"context"

	"github.com/fieldreports/reports-api/internal/core/domain"
)

// AuditService processes one audit event (persist, count, log).
type AuditService interface {
	Process(ctx context.Context, event domain.AuthEvent) error
}

// AuditRecorder is the non-blocking entry point used on the request path.
type AuditRecorder interface {
	Record(event domain.AuthEvent)
}
