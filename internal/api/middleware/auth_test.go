package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fieldreports/reports-api/internal/core/domain"
	"github.com/fieldreports/reports-api/internal/core/policy"
)

type stubEnforcer struct {
	principal *domain.Principal
	err       error
	gotHeader string
	gotRoles  domain.RoleSet
}

func (s *stubEnforcer) Authorize(_ context.Context, authorization string, allowed domain.RoleSet) (*domain.Principal, error) {
	s.gotHeader = authorization
	s.gotRoles = allowed
	if s.err != nil {
		return nil, s.err
	}
	if !allowed.Allows(s.principal.Role) {
		return nil, domain.ErrForbidden
	}
	return s.principal, nil
}

type recordingAudit struct {
	events []domain.AuthEvent
}

func (r *recordingAudit) Record(e domain.AuthEvent) { r.events = append(r.events, e) }

func newGuardContext(header string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestGuard_Allows(t *testing.T) {
	p := &domain.Principal{ID: "u-1", Role: domain.RoleUser, IsActive: true}
	enf := &stubEnforcer{principal: p}
	g := NewGuard(enf, policy.Default(), nil, zerolog.Nop())
	c, rec := newGuardContext("Bearer tok")

	called := false
	handler := g.Require(policy.OpReportCreate)(func(c echo.Context) error {
		called = true
		if got, _ := c.Get(PrincipalKey).(*domain.Principal); got != p {
			t.Fatalf("principal not set on echo context")
		}
		if got, ok := domain.PrincipalFromContext(c.Request().Context()); !ok || got.ID != "u-1" {
			t.Fatalf("principal not set on request context")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if enf.gotHeader != "Bearer tok" {
		t.Fatalf("expected raw header to be passed, got %q", enf.gotHeader)
	}
}

func TestGuard_UsesOperationPolicy(t *testing.T) {
	p := &domain.Principal{ID: "u-1", Role: domain.RoleUser, IsActive: true}
	enf := &stubEnforcer{principal: p}
	audit := &recordingAudit{}
	g := NewGuard(enf, policy.Default(), audit, zerolog.Nop())
	c, _ := newGuardContext("Bearer tok")

	handler := g.Require(policy.OpReportDelete)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if enf.gotRoles.Allows(domain.RoleUser) || !enf.gotRoles.Allows(domain.RoleModerator) {
		t.Fatalf("unexpected allow-set: %v", enf.gotRoles.Roles())
	}
	if len(audit.events) != 1 || audit.events[0].Reason != "forbidden" || audit.events[0].Operation != string(policy.OpReportDelete) {
		t.Fatalf("expected one access_denied event, got %+v", audit.events)
	}
}

func TestGuard_PropagatesAuthErrors(t *testing.T) {
	for _, want := range []error{domain.ErrMissingToken, domain.ErrInvalidToken} {
		audit := &recordingAudit{}
		g := NewGuard(&stubEnforcer{err: want}, policy.Default(), audit, zerolog.Nop())
		c, _ := newGuardContext("")

		handler := g.Require(policy.OpMe)(func(c echo.Context) error {
			t.Fatalf("should not reach next")
			return nil
		})
		if err := handler(c); err != want {
			t.Fatalf("expected %v, got %v", want, err)
		}
		if len(audit.events) != 1 || audit.events[0].Kind != domain.AuthEventAccessDenied {
			t.Fatalf("expected denial to be audited, got %+v", audit.events)
		}
	}
}

func TestGuard_UnknownOperationFailsClosed(t *testing.T) {
	p := &domain.Principal{ID: "u-1", Role: domain.RoleAdmin, IsActive: true}
	g := NewGuard(&stubEnforcer{principal: p}, policy.NewTable(nil), nil, zerolog.Nop())
	c, _ := newGuardContext("Bearer tok")

	handler := g.Require(policy.Operation("reports.export"))(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})
	if err := handler(c); err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
