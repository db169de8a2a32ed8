package middleware

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fieldreports/reports-api/internal/core/domain"
	"github.com/fieldreports/reports-api/internal/core/policy"
	"github.com/fieldreports/reports-api/internal/core/ports"
	"github.com/fieldreports/reports-api/internal/pkg/metrics"
)

// PrincipalKey is the echo context key holding the authorized *domain.Principal.
const PrincipalKey = "principal"

// Guard binds routes to policy operations and runs the access pipeline before
// the handler.
type Guard struct {
	access ports.AccessEnforcer
	table  *policy.Table
	audit  ports.AuditRecorder
	log    zerolog.Logger
}

// NewGuard creates a Guard. audit may be nil.
func NewGuard(access ports.AccessEnforcer, table *policy.Table, audit ports.AuditRecorder, log zerolog.Logger) *Guard {
	return &Guard{access: access, table: table, audit: audit, log: log}
}

// Require returns middleware that admits only principals whose current role is
// allowed for op. The allow-set is resolved once, when the route is built.
func (g *Guard) Require(op policy.Operation) echo.MiddlewareFunc {
	allowed := g.table.Roles(op)
	if len(allowed) == 0 {
		g.log.Warn().Str("operation", string(op)).Msg("operation has no allowed roles, route is unreachable")
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			p, err := g.access.Authorize(req.Context(), req.Header.Get(echo.HeaderAuthorization), allowed)
			if err != nil {
				result := denialResult(err)
				metrics.AuthorizationsTotal.WithLabelValues(string(op), result).Inc()
				if result != "error" {
					g.recordDenial(c, op, result)
				}
				return err
			}

			metrics.AuthorizationsTotal.WithLabelValues(string(op), "allowed").Inc()
			c.Set(PrincipalKey, p)
			c.SetRequest(req.WithContext(domain.WithPrincipal(req.Context(), p)))
			return next(c)
		}
	}
}

func (g *Guard) recordDenial(c echo.Context, op policy.Operation, reason string) {
	if g.audit == nil {
		return
	}
	g.audit.Record(domain.AuthEvent{
		Kind:      domain.AuthEventAccessDenied,
		Operation: string(op),
		Reason:    reason,
		RemoteIP:  c.RealIP(),
		RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
		Timestamp: time.Now().UTC(),
	})
}

func denialResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingToken):
		return "missing_token"
	case errors.Is(err, domain.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}
