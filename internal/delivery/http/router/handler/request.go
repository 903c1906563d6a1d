// Package handler contains the HTTP handlers of the API.
package handler

import (
	deliverycontext "authbase/internal/delivery/context"
	domainerrors "authbase/internal/domain/errors"
	"authbase/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// bindAndValidate decodes the request into req and runs the registered validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails("malformed request body")
	}

	return c.Validate(req)
}

func requestMeta(c echo.Context) usecase.RequestMeta {
	return usecase.RequestMeta{
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}

// principal returns the caller resolved by the access policy.
func principal(c echo.Context) (*deliverycontext.Principal, error) {
	p, ok := deliverycontext.GetPrincipal(c)
	if !ok {
		return nil, domainerrors.ErrUnauthorized
	}

	return p, nil
}

func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, domainerrors.ErrValidationFailed.WithDetails(name + " must be a UUID")
	}

	return id, nil
}
