package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fieldreports/reports-api/internal/core/domain"
	"github.com/fieldreports/reports-api/internal/core/ports"
	"github.com/fieldreports/reports-api/internal/pkg/metrics"
)

const maxNameLength = 100

// UserService lets administrators inspect and change accounts. Role and
// active-flag changes reach existing sessions on their next request through
// the access service's directory reload.
type UserService struct {
	directory ports.PrincipalDirectory
	log       zerolog.Logger
}

func NewUserService(directory ports.PrincipalDirectory, log zerolog.Logger) *UserService {
	return &UserService{directory: directory, log: log}
}

// Get returns the stored account for id.
func (s *UserService) Get(ctx context.Context, _ *domain.Principal, id string) (*domain.Principal, error) {
	return s.directory.FindByID(ctx, id)
}

// Update applies an administrator's change. An actor cannot deactivate their
// own account or change their own role.
func (s *UserService) Update(ctx context.Context, actor *domain.Principal, id string, in ports.UpdateUserInput) (*domain.Principal, error) {
	upd, err := toPrincipalUpdate(in)
	if err != nil {
		metrics.UserUpdatesTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	deactivates := upd.IsActive != nil && !*upd.IsActive
	changesRole := upd.Role != nil && *upd.Role != actor.Role
	if id == actor.ID && (deactivates || changesRole) {
		metrics.UserUpdatesTotal.WithLabelValues("self_lockout").Inc()
		return nil, domain.ErrForbidden
	}

	updated, err := s.directory.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			metrics.UserUpdatesTotal.WithLabelValues("not_found").Inc()
			return nil, err
		}
		metrics.UserUpdatesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("update user: %w", err)
	}

	metrics.UserUpdatesTotal.WithLabelValues("success").Inc()
	s.log.Info().
		Str("principal_id", updated.ID).
		Str("actor_id", actor.ID).
		Str("role", updated.Role.String()).
		Bool("active", updated.IsActive).
		Msg("user updated")
	return updated, nil
}

// EnsureAdmin promotes the account registered under email to admin. It is
// used at startup to seed the first administrator.
func (s *UserService) EnsureAdmin(ctx context.Context, email string) (*domain.Principal, error) {
	p, err := s.directory.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if p.Role == domain.RoleAdmin && p.IsActive {
		return p, nil
	}

	role := domain.RoleAdmin
	active := true
	updated, err := s.directory.Update(ctx, p.ID, ports.PrincipalUpdate{Role: &role, IsActive: &active})
	if err != nil {
		return nil, fmt.Errorf("promote admin: %w", err)
	}
	s.log.Warn().Str("principal_id", updated.ID).Msg("account promoted to admin at startup")
	return updated, nil
}

func toPrincipalUpdate(in ports.UpdateUserInput) (ports.PrincipalUpdate, error) {
	upd := ports.PrincipalUpdate{
		FirstName: trimmed(in.FirstName),
		LastName:  trimmed(in.LastName),
		IsActive:  in.IsActive,
	}
	for _, name := range []*string{upd.FirstName, upd.LastName} {
		if name != nil && len(*name) > maxNameLength {
			return ports.PrincipalUpdate{}, domain.ErrInvalidProfile
		}
	}
	if in.Role != nil {
		role, ok := domain.ParseRole(*in.Role)
		if !ok {
			return ports.PrincipalUpdate{}, domain.ErrInvalidProfile
		}
		upd.Role = &role
	}
	if upd.Empty() {
		return ports.PrincipalUpdate{}, domain.ErrInvalidProfile
	}
	return upd, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
