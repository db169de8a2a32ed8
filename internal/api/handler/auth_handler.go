package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fieldreports/reports-api/internal/core/domain"
	"github.com/fieldreports/reports-api/internal/core/ports"
	"github.com/fieldreports/reports-api/internal/pkg/metrics"
)

type AuthHandler struct {
	authService ports.AuthService
	limiter     ports.LoginLimiter
	audit       ports.AuditRecorder
	log         zerolog.Logger
}

// NewAuthHandler creates an AuthHandler. limiter and audit may be nil.
func NewAuthHandler(authService ports.AuthService, limiter ports.LoginLimiter, audit ports.AuditRecorder, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, limiter: limiter, audit: audit, log: log}
}

// Register creates a new account with the default role.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest   true  "User registration details"
// @Success      201   {object}  ports.AuthResult
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	res, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
	})
	if err != nil {
		return err
	}

	h.record(c, domain.AuthEvent{
		Kind:        domain.AuthEventRegistered,
		PrincipalID: res.User.ID,
		Email:       res.User.Email,
	})
	return c.JSON(http.StatusCreated, res)
}

// Login authenticates a user and returns a JWT token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  ports.AuthResult
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	ctx := c.Request().Context()
	email := domain.NormalizeEmail(req.Email)

	if h.limiter != nil {
		if err := h.limiter.Allow(ctx, email); err != nil {
			if errors.Is(err, domain.ErrTooManyAttempts) {
				metrics.LoginsTotal.WithLabelValues("throttled").Inc()
				h.record(c, domain.AuthEvent{Kind: domain.AuthEventLoginFailure, Email: email, Reason: "too_many_attempts"})
				return err
			}
			// A limiter failure does not block the login.
			h.log.Warn().Err(err).Msg("login limiter unavailable")
		}
	}

	res, err := h.authService.Login(ctx, email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			h.record(c, domain.AuthEvent{Kind: domain.AuthEventLoginFailure, Email: email, Reason: "invalid_credentials"})
		case errors.Is(err, domain.ErrAccountInactive):
			h.record(c, domain.AuthEvent{Kind: domain.AuthEventLoginFailure, Email: email, Reason: "account_inactive"})
		}
		return err
	}

	if h.limiter != nil {
		if err := h.limiter.Reset(ctx, email); err != nil {
			h.log.Warn().Err(err).Msg("failed to reset login attempts")
		}
	}
	h.record(c, domain.AuthEvent{
		Kind:        domain.AuthEventLoginSuccess,
		PrincipalID: res.User.ID,
		Email:       res.User.Email,
	})
	return c.JSON(http.StatusOK, res)
}

// Me returns the live profile of the authenticated principal.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.PublicUser
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p.Public())
}

func (h *AuthHandler) record(c echo.Context, e domain.AuthEvent) {
	recordAudit(h.audit, c, e)
}
