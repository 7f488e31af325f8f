package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docstack/docstack/internal/health"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(ctx context.Context) error { return s.err }

func healthRouter(p health.Pinger) *gin.Engine {
	r := gin.New()
	NewHealthHandler(health.NewMonitor(p, "test")).Register(r)
	return r
}

func TestHealth_Healthy(t *testing.T) {
	r := healthRouter(stubPinger{})
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["environment"])

	services := body["services"].(map[string]any)
	assert.Equal(t, "connected", services["database"].(map[string]any)["state"])
	assert.Equal(t, "healthy", services["server"].(map[string]any)["status"])
}

// the endpoint keeps answering 200 when dependencies fail; the payload says so
func TestHealth_DatabaseDownStill200(t *testing.T) {
	r := healthRouter(stubPinger{err: errors.New("down")})
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body["status"])
}

func TestHealth_Detailed(t *testing.T) {
	r := healthRouter(stubPinger{})
	req := httptest.NewRequest("GET", "/health/detailed", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	details := body["details"].(map[string]any)
	assert.NotEmpty(t, details["goVersion"])
	assert.NotEmpty(t, details["platform"])
	assert.Greater(t, details["processId"].(float64), float64(0))
}
