package ports

import (
	"context"

	"github.com/fieldreports/reports-api/internal/core/domain"
)

// AccessEnforcer runs the per-request authorization pipeline.
type AccessEnforcer interface {
	// Authorize takes the raw Authorization header value and the operation's
	// allow-set, and returns the live principal on success.
	Authorize(ctx context.Context, authorization string, allowed domain.RoleSet) (*domain.Principal, error)
}
