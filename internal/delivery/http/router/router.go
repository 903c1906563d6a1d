// Package router contains the route table of the HTTP delivery.
package router

import (
	"net/http"

	"authbase/internal/delivery/http/middleware"
	"authbase/internal/delivery/http/router/handler"
	"authbase/internal/domain/entity"
	"authbase/internal/infra/metrics"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler  *handler.AuthHandler
	UserHandler  *handler.UserHandler
	AccessPolicy *middleware.AccessPolicyMiddleware
	Metrics      *metrics.Registry
}

// route binds a handler to a path together with its access policy.
type route struct {
	method  string
	path    string
	policy  middleware.AccessPolicy
	handler echo.HandlerFunc
}

type router struct {
	authHandler  *handler.AuthHandler
	userHandler  *handler.UserHandler
	accessPolicy *middleware.AccessPolicyMiddleware
	metrics      *metrics.Registry
}

// NewRouter is the constructor for the Router.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:  params.AuthHandler,
		userHandler:  params.UserHandler,
		accessPolicy: params.AccessPolicy,
		metrics:      params.Metrics,
	}
}

func (r *router) routes() []route {
	admin := middleware.RoleRequired(entity.RoleAdmin)

	routes := []route{
		{http.MethodGet, "/health", middleware.Public, handler.HealthCheck},

		{http.MethodPost, "/auth/register", middleware.Public, r.authHandler.Register},
		{http.MethodPost, "/auth/login", middleware.Public, r.authHandler.Login},
		{http.MethodPost, "/auth/google", middleware.Public, r.authHandler.GoogleAuth},
		{http.MethodGet, "/auth/verify-email", middleware.Public, r.authHandler.VerifyEmail},
		{http.MethodPost, "/auth/resend-verification", middleware.Public, r.authHandler.ResendVerification},
		{http.MethodPost, "/auth/refresh", middleware.RefreshToken, r.authHandler.Refresh},
		{http.MethodPost, "/auth/logout", middleware.Authenticated, r.authHandler.Logout},
		{http.MethodGet, "/auth/profile", middleware.Authenticated, r.authHandler.Profile},
		{http.MethodGet, "/auth/me", middleware.Authenticated, r.authHandler.Profile},

		{http.MethodGet, "/users/:id", admin, r.userHandler.GetUser},
		{http.MethodPatch, "/users/:id/role", admin, r.userHandler.ChangeRole},
		{http.MethodPatch, "/users/:id/toggle-active", admin, r.userHandler.ToggleActive},
	}

	if r.metrics != nil {
		routes = append(routes, route{http.MethodGet, "/metrics", middleware.Public, echo.WrapHandler(r.metrics.Handler())})
	}

	return routes
}

// RegisterRoutes adds every route and installs the access policy middleware.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.Use(r.accessPolicy.Enforce)

	for _, rt := range r.routes() {
		e.Add(rt.method, rt.path, rt.handler)
		r.accessPolicy.Register(rt.method, rt.path, rt.policy)
	}
}
