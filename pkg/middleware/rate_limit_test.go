package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func limitedRouter(rps float64, burst int) *gin.Engine {
	r := gin.New()
	r.Use(RateLimitMiddleware(rps, burst))
	r.GET("/r", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })
	return r
}

func getFrom(r *gin.Engine, addr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/r", nil)
	req.RemoteAddr = addr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware_BlocksAfterBurst(t *testing.T) {
	// distinct IP per test: the limiter store is process-global
	r := limitedRouter(0.0001, 2)

	require.Equal(t, http.StatusOK, getFrom(r, "10.1.1.1:1000").Code)
	require.Equal(t, http.StatusOK, getFrom(r, "10.1.1.1:1000").Code)

	w := getFrom(r, "10.1.1.1:1000")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "1", w.Header().Get("Retry-After"))
	require.Contains(t, w.Body.String(), "Too many requests from this IP")
}

func TestRateLimitMiddleware_PerIPIsolation(t *testing.T) {
	r := limitedRouter(0.0001, 1)

	require.Equal(t, http.StatusOK, getFrom(r, "10.2.2.1:1000").Code)
	require.Equal(t, http.StatusTooManyRequests, getFrom(r, "10.2.2.1:1000").Code)

	// a different client is unaffected
	require.Equal(t, http.StatusOK, getFrom(r, "10.2.2.2:1000").Code)
}
