package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fieldreports/reports-api/internal/api/middleware"
	"github.com/fieldreports/reports-api/internal/core/domain"
	"github.com/fieldreports/reports-api/internal/core/ports"
)

// currentPrincipal returns the principal attached by the policy guard. A route
// mounted without the guard has none, which is reported as a missing token.
func currentPrincipal(c echo.Context) (*domain.Principal, error) {
	if p, ok := domain.PrincipalFromContext(c.Request().Context()); ok {
		return p, nil
	}
	if p, ok := c.Get(middleware.PrincipalKey).(*domain.Principal); ok && p != nil {
		return p, nil
	}
	return nil, domain.ErrMissingToken
}

// recordAudit stamps e with request metadata and hands it to audit, which may
// be nil.
func recordAudit(audit ports.AuditRecorder, c echo.Context, e domain.AuthEvent) {
	if audit == nil {
		return
	}
	e.RemoteIP = c.RealIP()
	e.RequestID = c.Response().Header().Get(echo.HeaderXRequestID)
	e.Timestamp = time.Now().UTC()
	audit.Record(e)
}
