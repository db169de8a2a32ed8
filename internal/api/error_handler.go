package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fieldreports/reports-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type apiError struct {
	status int
	code   string
	msg    string
}

// domainErrors maps sentinel errors to fixed responses. Messages never say
// which credential or token check failed.
var domainErrors = []struct {
	target error
	resp   apiError
}{
	{domain.ErrInvalidCredentials, apiError{http.StatusUnauthorized, "invalid_credentials", "invalid credentials"}},
	{domain.ErrMissingToken, apiError{http.StatusUnauthorized, "missing_token", "missing bearer token"}},
	{domain.ErrInvalidToken, apiError{http.StatusUnauthorized, "invalid_token", "invalid token"}},
	{domain.ErrAccountInactive, apiError{http.StatusForbidden, "account_inactive", "account inactive"}},
	{domain.ErrForbidden, apiError{http.StatusForbidden, "forbidden", "access forbidden"}},
	{domain.ErrDuplicateIdentity, apiError{http.StatusConflict, "duplicate_identity", "identity already exists"}},
	{domain.ErrInvalidProfile, apiError{http.StatusBadRequest, "invalid_request", "invalid profile"}},
	{domain.ErrInvalidReport, apiError{http.StatusBadRequest, "invalid_request", "invalid report"}},
	{domain.ErrTooManyAttempts, apiError{http.StatusTooManyRequests, "too_many_attempts", "too many login attempts"}},
	{domain.ErrReportNotFound, apiError{http.StatusNotFound, "not_found", "report not found"}},
	{domain.ErrPrincipalNotFound, apiError{http.StatusNotFound, "not_found", "user not found"}},
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status and stable error code.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>", "code": "<code>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		resp := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(resp.status)
			return
		}
		_ = c.JSON(resp.status, errorResponse{Error: resp.msg, Code: resp.code})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) apiError {
	for _, de := range domainErrors {
		if errors.Is(err, de.target) {
			return de.resp
		}
	}

	// Echo's own errors (bind failures, validation, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return apiError{status: he.Code, code: codeForStatus(he.Code), msg: fmt.Sprintf("%v", he.Message)}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return apiError{status: http.StatusInternalServerError, code: "internal", msg: "internal server error"}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return "invalid_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusTooManyRequests:
		return "too_many_attempts"
	}
	if status >= http.StatusInternalServerError {
		return "internal"
	}
	return "error"
}
