package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakubdabek/gembiler/pkg/server"
)

func TestHealthManagerReportsHealthyWithNoCheckers(t *testing.T) {
	hm := server.NewHealthManager()
	resp := hm.Check(context.Background())
	assert.Equal(t, server.StatusHealthy, resp.Status)
}

func TestHealthManagerAggregatesUnhealthyChecker(t *testing.T) {
	hm := server.NewHealthManager()
	hm.Register(server.NewCheckerFunc("cache", func(ctx context.Context) server.CheckResult {
		return server.CheckResult{Status: server.StatusHealthy}
	}))
	hm.Register(server.NewCheckerFunc("redis", func(ctx context.Context) server.CheckResult {
		return server.CheckResult{Status: server.StatusUnhealthy, Message: "connection refused"}
	}))

	resp := hm.Check(context.Background())
	assert.Equal(t, server.StatusUnhealthy, resp.Status)
	assert.Equal(t, server.StatusHealthy, resp.Checks["cache"].Status)
	assert.Equal(t, "connection refused", resp.Checks["redis"].Message)
}

func TestHealthzHandlerReturns503WhenUnhealthy(t *testing.T) {
	hm := server.NewHealthManager()
	hm.Register(server.NewCheckerFunc("cache", func(ctx context.Context) server.CheckResult {
		return server.CheckResult{Status: server.StatusUnhealthy}
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	hm.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp server.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, server.StatusUnhealthy, resp.Status)
}

func TestHealthzHandlerReturns200WhenHealthy(t *testing.T) {
	hm := server.NewHealthManager()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	hm.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
