package handler

import (
	"net/http"

	"authbase/internal/delivery/http/response"
	"authbase/internal/errors"
	"authbase/internal/usecase"

	"github.com/labstack/echo/v4"
)

// UserHandler serves the administrative /users routes.
type UserHandler struct {
	uc usecase.UserAdminUsecase
}

// NewUserHandler is the constructor for UserHandler, injected by Fx.
func NewUserHandler(uc usecase.UserAdminUsecase) *UserHandler {
	return &UserHandler{uc: uc}
}

// GetUser handles GET /users/:id.
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	profile, err := h.uc.GetUser(c.Request().Context(), id)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, profile, "")
}

// ChangeRole handles PATCH /users/:id/role?role=ADMIN|USER.
func (h *UserHandler) ChangeRole(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	profile, err := h.uc.ChangeRole(c.Request().Context(), id, c.QueryParam("role"))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, profile, "Role updated")
}

// ToggleActive handles PATCH /users/:id/toggle-active.
func (h *UserHandler) ToggleActive(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	profile, err := h.uc.ToggleActive(c.Request().Context(), id)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, profile, "Account status updated")
}

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"}, "Service is healthy")
}
