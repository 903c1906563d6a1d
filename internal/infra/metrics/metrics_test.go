package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"authbase/internal/domain/entity"
	domainerrors "authbase/internal/domain/errors"
	"authbase/internal/domain/service"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthCounters(t *testing.T) {
	r := New()
	m := NewAuthMetrics(r)

	m.LoginAttempt(service.ResultSuccess, entity.ProviderLocal)
	m.LoginAttempt(service.ResultFailure, entity.ProviderLocal)
	m.LoginAttempt(service.ResultFailure, entity.ProviderLocal)
	m.Registered()
	m.LoggedOut()
	m.EmailVerification(service.ResultSuccess)
	m.TokenRefresh(service.ResultFailure)

	assert.InDelta(t, 1, testutil.ToFloat64(r.logins.WithLabelValues("success", "LOCAL")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(r.logins.WithLabelValues("failure", "LOCAL")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.registrations), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.logouts), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.verifications.WithLabelValues("success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.refreshes.WithLabelValues("failure")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(r.activeUsers), 0)
}

func TestActiveUsersFollowsLoginsAndLogouts(t *testing.T) {
	r := New()
	m := NewAuthMetrics(r)

	m.LoginAttempt(service.ResultSuccess, entity.ProviderLocal)
	m.LoginAttempt(service.ResultSuccess, entity.ProviderGoogle)
	m.LoginAttempt(service.ResultFailure, entity.ProviderLocal)
	assert.InDelta(t, 2, testutil.ToFloat64(r.activeUsers), 0)

	m.LoggedOut()
	assert.InDelta(t, 1, testutil.ToFloat64(r.activeUsers), 0)
}

func TestMiddlewareAndHandler(t *testing.T) {
	r := New()
	e := echo.New()
	e.Use(r.Middleware)
	e.GET("/users/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
	e.GET("/denied", func(echo.Context) error {
		return domainerrors.ErrForbidden
	})
	e.GET("/metrics", echo.WrapHandler(r.Handler()))

	for _, path := range []string{"/users/1", "/users/2", "/denied"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2, testutil.CollectAndCount(r.httpDuration))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `http_request_duration_seconds_count{method="GET",route="/users/:id",status_code="204"} 2`), body)
	assert.Contains(t, body, `route="/denied",status_code="403"`)
}
