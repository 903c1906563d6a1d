// Package metrics exposes Prometheus counters for authentication outcomes and HTTP latency.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"authbase/internal/domain/entity"
	domainerrors "authbase/internal/domain/errors"
	"authbase/internal/domain/service"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns the process collectors. It is built on a private registry so tests can create as many as they need.
type Registry struct {
	registry *prometheus.Registry

	logins        *prometheus.CounterVec
	registrations prometheus.Counter
	logouts       prometheus.Counter
	activeUsers   prometheus.Gauge
	verifications *prometheus.CounterVec
	refreshes     *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// New creates and registers every collector.
func New() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_login_total",
			Help: "Login attempts by result and provider.",
		}, []string{"result", "provider"}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_register_total",
			Help: "Accounts created.",
		}),
		logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_logout_total",
			Help: "Sessions revoked by logout.",
		}),
		activeUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "auth_active_users",
			Help: "Successful logins minus logouts since process start.",
		}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_email_verification_total",
			Help: "Email verification attempts by result.",
		}, []string{"result"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_token_refresh_total",
			Help: "Refresh token rotations by result.",
		}, []string{"result"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method, route and status code.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status_code"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.logins,
		r.registrations,
		r.logouts,
		r.activeUsers,
		r.verifications,
		r.refreshes,
		r.httpDuration,
	)

	return r
}

// NewAuthMetrics exposes the registry as the domain's AuthMetrics port.
func NewAuthMetrics(r *Registry) service.AuthMetrics {
	return r
}

func (r *Registry) LoginAttempt(result string, provider entity.Provider) {
	r.logins.WithLabelValues(result, string(provider)).Inc()
	if result == service.ResultSuccess {
		r.activeUsers.Inc()
	}
}

func (r *Registry) Registered() {
	r.registrations.Inc()
}

func (r *Registry) LoggedOut() {
	r.logouts.Inc()
	r.activeUsers.Dec()
}

func (r *Registry) EmailVerification(result string) {
	r.verifications.WithLabelValues(result).Inc()
}

func (r *Registry) TokenRefresh(result string) {
	r.refreshes.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Middleware observes request latency labelled by the matched route template.
func (r *Registry) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		status := responseStatus(c, err)

		route := c.Path()
		if route == "" {
			route = "unmatched"
		}

		r.httpDuration.
			WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())

		return err
	}
}

// responseStatus predicts the status the error handler will write for err.
func responseStatus(c echo.Context, err error) int {
	if err == nil || c.Response().Committed {
		return c.Response().Status
	}

	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPCode()
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}

	return http.StatusInternalServerError
}
