package ports

import (
	"context"

	"github.com/fieldreports/reports-api/internal/core/domain"
)

// PrincipalUpdate carries the administrable fields of a principal. Nil fields
// are left unchanged.
type PrincipalUpdate struct {
	FirstName *string
	LastName  *string
	Role      *domain.Role
	IsActive  *bool
}

// Empty reports whether the update changes nothing.
func (u PrincipalUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Role == nil && u.IsActive == nil
}

// PrincipalDirectory resolves, creates and updates principals. Implementations
// own the storage; the auth core never queries storage directly.
type PrincipalDirectory interface {
	// FindByEmail returns domain.ErrPrincipalNotFound when no principal matches.
	// The email is already normalized by the caller.
	FindByEmail(ctx context.Context, email string) (*domain.Principal, error)
	// FindByID returns domain.ErrPrincipalNotFound when no principal matches.
	FindByID(ctx context.Context, id string) (*domain.Principal, error)
	// Create stores a new principal and returns it with its assigned ID.
	// It returns domain.ErrDuplicateIdentity when the email is taken.
	Create(ctx context.Context, p *domain.Principal) (*domain.Principal, error)
	// Update applies upd and returns the stored principal, or
	// domain.ErrPrincipalNotFound.
	Update(ctx context.Context, id string, upd PrincipalUpdate) (*domain.Principal, error)
}
