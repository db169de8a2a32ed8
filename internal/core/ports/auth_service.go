package ports

import (
	"context"

	"github.com/fieldreports/reports-api/internal/core/domain"
)

// RegisterInput is the self-registration profile. Role is accepted for
// compatibility with older clients and always ignored.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

// AuthResult is the success payload shared by Register and Login.
type AuthResult struct {
	Token string            `json:"token"`
	User  domain.PublicUser `json:"user"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
}
