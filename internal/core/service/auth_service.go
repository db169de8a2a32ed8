package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fieldreports/reports-api/internal/core/domain"
	"github.com/fieldreports/reports-api/internal/core/ports"
	"github.com/fieldreports/reports-api/internal/pkg/metrics"
)

const minPasswordLength = 6

// AuthService implements registration and login.
type AuthService struct {
	directory ports.PrincipalDirectory
	verifier  ports.CredentialVerifier
	codec     ports.TokenCodec
	log       zerolog.Logger

	// dummyDigest is verified when the email is unknown so that both login
	// failure paths cost one hash comparison.
	dummyDigest string
}

func NewAuthService(
	directory ports.PrincipalDirectory,
	verifier ports.CredentialVerifier,
	codec ports.TokenCodec,
	log zerolog.Logger,
) (*AuthService, error) {
	dummy, err := verifier.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("prepare dummy digest: %w", err)
	}
	return &AuthService{
		directory:   directory,
		verifier:    verifier,
		codec:       codec,
		log:         log,
		dummyDigest: dummy,
	}, nil
}

// Register creates a principal with the default role and returns a session token.
// Any role in the input is ignored.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" || len(in.Password) < minPasswordLength {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrInvalidProfile
	}

	hash, err := s.verifier.Hash(in.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidProfile) {
			metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
			return nil, domain.ErrInvalidProfile
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("register: %w", err)
	}

	now := time.Now().UTC()
	created, err := s.directory.Create(ctx, &domain.Principal{
		Email:        email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         domain.DefaultRole,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateIdentity) {
			metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
			return nil, domain.ErrDuplicateIdentity
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("register: %w", err)
	}

	result, err := s.issue(created)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("register: %w", err)
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("principal_id", created.ID).Msg("principal registered")
	return result, nil
}

// Login verifies the credential pair and returns a session token. An unknown
// email and a wrong secret both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = domain.NormalizeEmail(email)

	principal, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			s.verifier.Verify(password, s.dummyDigest)
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
			s.log.Debug().Str("reason", "unknown_email").Msg("login rejected")
			return nil, domain.ErrInvalidCredentials
		}
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}

	if !s.verifier.Verify(password, principal.PasswordHash) {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		s.log.Debug().Str("reason", "wrong_secret").Str("principal_id", principal.ID).Msg("login rejected")
		return nil, domain.ErrInvalidCredentials
	}

	if !principal.IsActive {
		metrics.LoginsTotal.WithLabelValues("inactive").Inc()
		return nil, domain.ErrAccountInactive
	}

	result, err := s.issue(principal)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return result, nil
}

func (s *AuthService) issue(p *domain.Principal) (*ports.AuthResult, error) {
	token, err := s.codec.Issue(domain.TokenClaims{
		Subject: p.ID,
		Email:   p.Email,
		Role:    p.Role,
	})
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{Token: token, User: p.Public()}, nil
}
