package ports

import (
	"context"

	"github.com/fieldreports/reports-api/internal/core/domain"
)

// UpdateUserInput is an administrator's change to another account. Role is the
// raw role name; nil fields are left unchanged.
type UpdateUserInput struct {
	FirstName *string
	LastName  *string
	Role      *string
	IsActive  *bool
}

// UserService manages accounts on behalf of an administrator.
type UserService interface {
	Get(ctx context.Context, actor *domain.Principal, id string) (*domain.Principal, error)
	Update(ctx context.Context, actor *domain.Principal, id string, in UpdateUserInput) (*domain.Principal, error)
}
