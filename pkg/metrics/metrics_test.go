package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakubdabek/gembiler/pkg/metrics"
)

func TestRecordedValuesAppearOnTheMetricsEndpoint(t *testing.T) {
	m := metrics.New(metrics.DefaultConfig())
	m.RecordCompile("ok")
	m.RecordDiagnostic("UndeclaredName")
	m.ObserveStage("verify", 2*time.Millisecond)
	m.ObserveInstructions(128)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `gembiler_compile_compiles_total{result="ok"} 1`)
	assert.Contains(t, body, `gembiler_compile_diagnostics_total{category="UndeclaredName"} 1`)
	assert.True(t, strings.Contains(body, "gembiler_compile_stage_duration_seconds"))
	assert.True(t, strings.Contains(body, "gembiler_compile_instructions_emitted"))
}

func TestNewFallsBackToDefaultNamespaceWhenUnset(t *testing.T) {
	m := metrics.New(metrics.Config{})
	m.RecordCompile("ok")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), "gembiler_compile_compiles_total")
}
