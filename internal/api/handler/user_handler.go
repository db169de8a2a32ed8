package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fieldreports/reports-api/internal/core/domain"
	"github.com/fieldreports/reports-api/internal/core/ports"
)

// UserHandler exposes account administration. Routes are admin-only through
// the policy guard.
type UserHandler struct {
	service ports.UserService
	audit   ports.AuditRecorder
}

// NewUserHandler creates a UserHandler. audit may be nil.
func NewUserHandler(service ports.UserService, audit ports.AuditRecorder) *UserHandler {
	return &UserHandler{service: service, audit: audit}
}

// Get handles GET /users/:id.
//
// @Summary      Get an account
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  userResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	actor, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	p, err := h.service.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(p))
}

// Update handles PATCH /users/:id. Role and active-flag changes apply to the
// account's existing tokens on their next request.
//
// @Summary      Update an account
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User ID"
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /users/{id} [patch]
func (h *UserHandler) Update(c echo.Context) error {
	actor, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	p, err := h.service.Update(c.Request().Context(), actor, c.Param("id"), toUpdateUserInput(req))
	if err != nil {
		return err
	}

	recordAudit(h.audit, c, domain.AuthEvent{
		Kind:        domain.AuthEventUserUpdated,
		PrincipalID: actor.ID,
		TargetID:    p.ID,
		Email:       p.Email,
		Operation:   "users.update",
	})
	return c.JSON(http.StatusOK, toUserResponse(p))
}
