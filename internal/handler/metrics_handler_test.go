package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMetricsHandlerExposesAuthOutcomes(t *testing.T) {
	s := newTestServer(t)
	s.post(t, "/api/account/login", map[string]string{"username": "ghost", "password": "x"}, nil)

	w := performRequest(s.router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `account_auth_attempts_total{operation="login",outcome="unknown_user"} 1`), body)
	assert.Contains(t, body, `http_requests_total{method="POST",path="/api/account/login",status="401"} 1`)
	assert.Contains(t, body, `account_http_problems_total{code="INVALID_CREDENTIALS",path="/api/account/login"} 1`)
}

func TestMetricsHandlerReady(t *testing.T) {
	gin.SetMode(gin.TestMode)
	healthy := PingerFunc(func(ctx context.Context) error { return nil })
	broken := PingerFunc(func(ctx context.Context) error { return errors.New("dial tcp 10.0.0.5:6379: connection refused") })
	core, logs := observer.New(zapcore.WarnLevel)

	r := gin.New()
	r.GET("/ready", NewMetricsHandler(nil, map[string]Pinger{"postgres": healthy}, nil).Ready)
	r.GET("/ready-broken", NewMetricsHandler(nil, map[string]Pinger{"postgres": healthy, "redis": broken}, zap.New(core)).Ready)
	r.GET("/metrics", NewMetricsHandler(nil, nil, nil).Prometheus)

	w := performRequest(r, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ready"`)

	w = performRequest(r, httptest.NewRequest(http.MethodGet, "/ready-broken", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unavailable","checks":{"postgres":"ok","redis":"unavailable"}}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "10.0.0.5")

	entries := logs.FilterMessage("readiness check failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "redis", entries[0].ContextMap()["check"])
	assert.Contains(t, entries[0].ContextMap()["error"], "connection refused")

	w = performRequest(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
