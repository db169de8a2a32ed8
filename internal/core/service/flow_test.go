package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/fieldreports/reports-api/internal/core/domain"
	"github.com/fieldreports/reports-api/internal/core/policy"
	"github.com/fieldreports/reports-api/internal/core/ports"
	"github.com/fieldreports/reports-api/internal/core/service"
	"github.com/fieldreports/reports-api/internal/infrastructure/db/memory"
	"github.com/fieldreports/reports-api/internal/infrastructure/security"
)

type stack struct {
	dir    *memory.PrincipalDirectory
	auth   *service.AuthService
	access *service.AccessService
	users  *service.UserService
}

func newStack(t *testing.T) stack {
	t.Helper()
	dir := memory.NewPrincipalDirectory()
	key, err := security.NewHMACKey([]byte("flow-secret"))
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	codec, err := security.NewJWTCodec(key, security.TokenConfig{Issuer: "flow", TTL: time.Hour}, zerolog.Nop())
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	auth, err := service.NewAuthService(dir, security.NewBcryptVerifier(bcrypt.MinCost), codec, zerolog.Nop())
	if err != nil {
		t.Fatalf("auth: %v", err)
	}
	return stack{
		dir:    dir,
		auth:   auth,
		access: service.NewAccessService(codec, dir, service.AccessOptions{}, zerolog.Nop()),
		users:  service.NewUserService(dir, zerolog.Nop()),
	}
}

func TestFlow_RegisterLoginAuthorize(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	reg, err := s.auth.Register(ctx, ports.RegisterInput{Email: "a@x.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if reg.User.Role != domain.RoleUser {
		t.Fatalf("expected default role, got %s", reg.User.Role)
	}

	if _, err := s.auth.Login(ctx, "a@x.com", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	res, err := s.auth.Login(ctx, "A@X.com", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	header := "Bearer " + res.Token

	if _, err := s.access.Authorize(ctx, header, domain.NewRoleSet(domain.RoleAdmin)); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for admin-only, got %v", err)
	}

	p, err := s.access.Authorize(ctx, header, domain.NewRoleSet(domain.RoleUser, domain.RoleAdmin))
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if p.ID != reg.User.ID {
		t.Fatalf("expected principal %s, got %s", reg.User.ID, p.ID)
	}
}

func TestFlow_PolicyTable(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	table := policy.Default()

	res, err := s.auth.Register(ctx, ports.RegisterInput{Email: "u@x.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	header := "Bearer " + res.Token

	if _, err := s.access.Authorize(ctx, header, table.Roles(policy.OpReportCreate)); err != nil {
		t.Fatalf("user should create reports: %v", err)
	}
	if _, err := s.access.Authorize(ctx, header, table.Roles(policy.OpReportDelete)); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("user should not delete reports, got %v", err)
	}

	if err := s.dir.SetRole(res.User.ID, domain.RoleModerator); err != nil {
		t.Fatalf("set role: %v", err)
	}
	if _, err := s.access.Authorize(ctx, header, table.Roles(policy.OpReportDelete)); err != nil {
		t.Fatalf("promoted principal should delete with the same token: %v", err)
	}
}

func TestFlow_DeactivationRevokesAccess(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	res, err := s.auth.Register(ctx, ports.RegisterInput{Email: "b@x.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := s.auth.Register(ctx, ports.RegisterInput{Email: "root@x.com", Password: "secret1"}); err != nil {
		t.Fatalf("register admin: %v", err)
	}
	admin, err := s.users.EnsureAdmin(ctx, "root@x.com")
	if err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	inactive := false
	if _, err := s.users.Update(ctx, admin, res.User.ID, ports.UpdateUserInput{IsActive: &inactive}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	if _, err := s.access.Authorize(ctx, "Bearer "+res.Token, domain.NewRoleSet(domain.RoleUser)); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after deactivation, got %v", err)
	}
	if _, err := s.auth.Login(ctx, "b@x.com", "secret1"); !errors.Is(err, domain.ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
	if _, err := s.auth.Login(ctx, "b@x.com", "nope"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("inactive account with wrong password must not reveal status, got %v", err)
	}
}

func TestFlow_DuplicateRegistration(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	if _, err := s.auth.Register(ctx, ports.RegisterInput{Email: "c@x.com", Password: "secret1"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := s.auth.Register(ctx, ports.RegisterInput{Email: " C@X.COM", Password: "other12"}); !errors.Is(err, domain.ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity, got %v", err)
	}
}
