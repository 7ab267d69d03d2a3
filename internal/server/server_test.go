package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transparencity/backend/internal/api/handlers"
	"github.com/transparencity/backend/internal/api/routes"
	"github.com/transparencity/backend/internal/config"
)

func newTestServer(t *testing.T, cfg config.Config) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := handlers.OpenTestDB(t)
	cfg.JWTSecret = "test-secret"
	cfg.VotingPeriod = time.Hour
	svc := routes.NewServices(db, cfg, nil)
	return New(db, cfg, svc, routes.Options{Registry: prometheus.NewRegistry()})
}

func TestNew_HealthAndMiddleware(t *testing.T) {
	s := newTestServer(t, config.Config{Environment: "production"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestNew_NoRoute(t *testing.T) {
	s := newTestServer(t, config.Config{})

	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"route not found"}`, w.Body.String())
}

func TestNew_CORSPreflight(t *testing.T) {
	s := newTestServer(t, config.Config{CORSOrigins: []string{"http://localhost:3000"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/proposals", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/proposals", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w = httptest.NewRecorder()
	s.Engine.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCorsConfig(t *testing.T) {
	_, ok := corsConfig(nil)
	assert.False(t, ok)

	c, ok := corsConfig([]string{"*"})
	require.True(t, ok)
	assert.True(t, c.AllowAllOrigins)
	assert.False(t, c.AllowCredentials)
	assert.Empty(t, c.AllowOrigins)

	c, ok = corsConfig([]string{"https://portal.example.org"})
	require.True(t, ok)
	assert.Equal(t, []string{"https://portal.example.org"}, c.AllowOrigins)
	assert.True(t, c.AllowCredentials)
}

func TestNew_Metrics(t *testing.T) {
	s := newTestServer(t, config.Config{})
	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, config.Config{HTTPPort: "0"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
