package security

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsecal/secureband-ai/internal/monitoring"
)

func newTestRouter(sm *SecurityMiddleware, handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	for _, h := range handlers {
		router.Use(h)
	}
	router.POST("/score", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	return router
}

func TestSecurityHeaders(t *testing.T) {
	sm := NewSecurityMiddleware(DefaultSecurityConfig(), nil)
	router := newTestRouter(sm, sm.SecurityHeaders)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"), "HSTS should be absent without TLS")
}

func TestValidateContentType(t *testing.T) {
	sm := NewSecurityMiddleware(DefaultSecurityConfig(), nil)
	router := newTestRouter(sm, sm.ValidateContentType)

	tests := []struct {
		name        string
		method      string
		path        string
		contentType string
		wantStatus  int
	}{
		{
			name:        "json accepted",
			method:      http.MethodPost,
			path:        "/score",
			contentType: "application/json",
			wantStatus:  http.StatusOK,
		},
		{
			name:        "json with charset accepted",
			method:      http.MethodPost,
			path:        "/score",
			contentType: "application/json; charset=utf-8",
			wantStatus:  http.StatusOK,
		},
		{
			name:        "xml rejected",
			method:      http.MethodPost,
			path:        "/score",
			contentType: "application/xml",
			wantStatus:  http.StatusUnsupportedMediaType,
		},
		{
			name:       "get without content type passes",
			method:     http.MethodGet,
			path:       "/health",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestRateLimitByIP(t *testing.T) {
	config := DefaultSecurityConfig()
	config.MaxRequestsPerMin = 10 // burst of 5
	sm := NewSecurityMiddleware(config, nil)
	router := newTestRouter(sm, sm.RateLimitByIP)

	var lastStatus int
	for i := 0; i < 20; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		router.ServeHTTP(w, req)
		lastStatus = w.Code
	}

	assert.Equal(t, http.StatusTooManyRequests, lastStatus)
}

func TestRateLimitBlocksAreCounted(t *testing.T) {
	config := DefaultSecurityConfig()
	config.MaxRequestsPerMin = 10 // burst of 5
	metrics := monitoring.NewMetrics()
	sm := NewSecurityMiddleware(config, metrics)
	router := newTestRouter(sm, sm.RateLimitByIP)

	blocked := 0
	for i := 0; i < 20; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		router.ServeHTTP(w, req)
		if w.Code == http.StatusTooManyRequests {
			blocked++
		}
	}

	require.Greater(t, blocked, 0)
	stats := metrics.GetStats()
	assert.Equal(t, int64(blocked), stats["rate_limit_ip_blocks"])
}

func TestRateLimitIsPerIP(t *testing.T) {
	config := DefaultSecurityConfig()
	config.MaxRequestsPerMin = 10
	sm := NewSecurityMiddleware(config, nil)
	router := newTestRouter(sm, sm.RateLimitByIP)

	// Exhaust the first IP
	for i := 0; i < 20; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		router.ServeHTTP(w, req)
	}

	// A different IP still gets through
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "198.51.100.9:1234"
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCleanupOldLimiters(t *testing.T) {
	sm := NewSecurityMiddleware(DefaultSecurityConfig(), nil)

	sm.mu.Lock()
	sm.ipLimiters["stale"] = &ipLimiter{lastSeen: time.Now().Add(-2 * time.Hour)}
	sm.ipLimiters["fresh"] = &ipLimiter{lastSeen: time.Now()}
	sm.mu.Unlock()

	sm.cleanupOldLimiters()

	sm.mu.Lock()
	defer sm.mu.Unlock()
	_, staleExists := sm.ipLimiters["stale"]
	_, freshExists := sm.ipLimiters["fresh"]
	require.False(t, staleExists)
	require.True(t, freshExists)
}
