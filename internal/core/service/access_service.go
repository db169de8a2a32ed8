package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fieldreports/reports-api/internal/core/domain"
	"github.com/fieldreports/reports-api/internal/core/ports"
)

const bearerScheme = "bearer"

// AccessOptions tunes the enforcer.
type AccessOptions struct {
	// TrustTokenClaims skips the live directory reload and builds the principal
	// from the token alone. Role changes and deactivations then only take
	// effect when the token expires.
	TrustTokenClaims bool
}

// AccessService runs the authorization pipeline:
// extract token → verify → load principal → check role.
type AccessService struct {
	codec     ports.TokenCodec
	directory ports.PrincipalDirectory
	opts      AccessOptions
	log       zerolog.Logger
}

func NewAccessService(codec ports.TokenCodec, directory ports.PrincipalDirectory, opts AccessOptions, log zerolog.Logger) *AccessService {
	return &AccessService{codec: codec, directory: directory, opts: opts, log: log}
}

// Authorize returns the live principal if the bearer token in authorization is
// valid and the principal's current role is in allowed.
func (s *AccessService) Authorize(ctx context.Context, authorization string, allowed domain.RoleSet) (*domain.Principal, error) {
	raw, err := ExtractBearer(authorization)
	if err != nil {
		return nil, err
	}

	claims, err := s.codec.Parse(raw)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	principal, err := s.loadPrincipal(ctx, claims)
	if err != nil {
		return nil, err
	}

	if !allowed.Allows(principal.Role) {
		s.log.Debug().
			Str("principal_id", principal.ID).
			Str("role", principal.Role.String()).
			Msg("role not in allow-set")
		return nil, domain.ErrForbidden
	}
	return principal, nil
}

func (s *AccessService) loadPrincipal(ctx context.Context, claims domain.TokenClaims) (*domain.Principal, error) {
	if s.opts.TrustTokenClaims {
		return &domain.Principal{
			ID:       claims.Subject,
			Email:    claims.Email,
			Role:     claims.Role,
			IsActive: true,
		}, nil
	}

	principal, err := s.directory.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			s.log.Debug().Str("principal_id", claims.Subject).Msg("token subject no longer exists")
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("authorize: load principal: %w", err)
	}
	if !principal.IsActive {
		s.log.Debug().Str("principal_id", principal.ID).Msg("token subject is inactive")
		return nil, domain.ErrInvalidToken
	}
	return principal, nil
}

// ExtractBearer returns the token of an "Authorization: Bearer <token>" value.
// Anything else, including other schemes, counts as a missing token.
func ExtractBearer(authorization string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(authorization), " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) {
		return "", domain.ErrMissingToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", domain.ErrMissingToken
	}
	return token, nil
}
