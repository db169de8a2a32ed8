package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/fieldreports/reports-api/internal/api/middleware"
	"github.com/fieldreports/reports-api/internal/core/domain"
	"github.com/fieldreports/reports-api/internal/core/ports"
)

type stubUserService struct {
	actor *domain.Principal
	id    string
	in    ports.UpdateUserInput
	err   error
}

func (s *stubUserService) user() *domain.Principal {
	return &domain.Principal{ID: s.id, Email: "u@x.com", Role: domain.RoleModerator, IsActive: false, PasswordHash: "secret-hash"}
}

func (s *stubUserService) Get(_ context.Context, actor *domain.Principal, id string) (*domain.Principal, error) {
	s.actor, s.id = actor, id
	if s.err != nil {
		return nil, s.err
	}
	return s.user(), nil
}

func (s *stubUserService) Update(_ context.Context, actor *domain.Principal, id string, in ports.UpdateUserInput) (*domain.Principal, error) {
	s.actor, s.id, s.in = actor, id, in
	if s.err != nil {
		return nil, s.err
	}
	return s.user(), nil
}

var administrator = &domain.Principal{ID: "admin-1", Role: domain.RoleAdmin, IsActive: true}

func adminContext(e *echo.Echo, method, target, body, id string) (echo.Context, *httptest.ResponseRecorder) {
	c, rec := jsonContext(e, method, target, body)
	c.Set(middleware.PrincipalKey, administrator)
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c, rec
}

func TestUserHandler_Update(t *testing.T) {
	e := newEcho()
	svc := &stubUserService{}
	audit := &recordingAudit{}
	h := NewUserHandler(svc, audit)

	c, rec := adminContext(e, http.MethodPatch, "/users/u-9", `{"role":"moderator","isActive":false}`, "u-9")
	if err := h.Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.actor != administrator || svc.id != "u-9" {
		t.Fatalf("unexpected call: %+v %q", svc.actor, svc.id)
	}
	if svc.in.Role == nil || *svc.in.Role != "moderator" || svc.in.IsActive == nil || *svc.in.IsActive || svc.in.FirstName != nil {
		t.Fatalf("unexpected input: %+v", svc.in)
	}

	if strings.Contains(rec.Body.String(), "secret-hash") {
		t.Fatalf("password hash leaked: %s", rec.Body.String())
	}
	var resp userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Role != domain.RoleModerator || resp.IsActive {
		t.Fatalf("unexpected response: %+v", resp)
	}

	if len(audit.events) != 1 {
		t.Fatalf("expected one audit event, got %+v", audit.events)
	}
	if ev := audit.events[0]; ev.Kind != domain.AuthEventUserUpdated || ev.PrincipalID != "admin-1" || ev.TargetID != "u-9" {
		t.Fatalf("unexpected audit event: %+v", ev)
	}
}

func TestUserHandler_Update_Validation(t *testing.T) {
	e := newEcho()
	svc := &stubUserService{}
	h := NewUserHandler(svc, nil)

	for _, body := range []string{
		`{"role":"root"}`,
		`{"role":"ADMIN"}`,
	} {
		c, rec := adminContext(e, http.MethodPatch, "/users/u-9", body, "u-9")
		if err := h.Update(c); err != nil {
			e.HTTPErrorHandler(err, c)
		}
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("%s: expected 422, got %d", body, rec.Code)
		}
	}

	c, rec := adminContext(e, http.MethodPatch, "/users/u-9", `{"isActive":"no"}`, "u-9")
	if err := h.Update(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body: expected 400, got %d", rec.Code)
	}
	if svc.actor != nil {
		t.Fatalf("service must not be called for invalid input")
	}
}

func TestUserHandler_PropagatesServiceErrors(t *testing.T) {
	e := newEcho()
	h := NewUserHandler(&stubUserService{err: domain.ErrPrincipalNotFound}, nil)

	c, _ := adminContext(e, http.MethodGet, "/users/missing", "", "missing")
	if err := h.Get(c); !errors.Is(err, domain.ErrPrincipalNotFound) {
		t.Fatalf("expected ErrPrincipalNotFound, got %v", err)
	}

	c, _ = adminContext(e, http.MethodPatch, "/users/missing", `{"isActive":true}`, "missing")
	if err := h.Update(c); !errors.Is(err, domain.ErrPrincipalNotFound) {
		t.Fatalf("expected ErrPrincipalNotFound, got %v", err)
	}
}

func TestUserHandler_RequiresPrincipal(t *testing.T) {
	e := newEcho()
	h := NewUserHandler(&stubUserService{}, nil)

	c, _ := jsonContext(e, http.MethodGet, "/users/u-1", "")
	if err := h.Get(c); !errors.Is(err, domain.ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}
