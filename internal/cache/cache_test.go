package cache

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsecal/secureband-ai/internal/monitoring"
)

func TestGetSetDelete(t *testing.T) {
	c := NewCache(time.Minute)

	_, found := c.Get("missing")
	assert.False(t, found)

	c.Set("k", []byte("v"))
	got, found := c.Get("k")
	require.True(t, found)
	assert.Equal(t, []byte("v"), got)

	c.Delete("k")
	_, found = c.Get("k")
	assert.False(t, found)
}

func TestExpiration(t *testing.T) {
	c := NewCache(10 * time.Millisecond)

	c.Set("k", []byte("v"))
	time.Sleep(30 * time.Millisecond)

	_, found := c.Get("k")
	assert.False(t, found)
}

func TestCacheKeyIncludesPath(t *testing.T) {
	body := []byte(`{"device_id":"band-01"}`)
	assert.NotEqual(t,
		cacheKey("/api/v1/signal-quality", body),
		cacheKey("/api/v1/risk-scoring", body))
}

func TestStats(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))

	stats := c.Stats()
	assert.Equal(t, 2, stats["total_items"])
	assert.Equal(t, 2, stats["active_items"])

	c.Clear()
	assert.Equal(t, 0, c.Size())
}

func TestMiddlewareServesRepeatFromCache(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c := NewCache(time.Minute)
	metrics := monitoring.NewMetrics()

	var handlerCalls int64
	router := gin.New()
	router.Use(c.Middleware(metrics))
	router.POST("/api/v1/risk-scoring", func(ctx *gin.Context) {
		atomic.AddInt64(&handlerCalls, 1)
		ctx.JSON(http.StatusOK, gin.H{"score": 0.42})
	})

	body := []byte(`{"device_id":"band-01"}`)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/risk-scoring", bytes.NewReader(body))
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "0.42")
	}

	assert.Equal(t, int64(1), atomic.LoadInt64(&handlerCalls))
	assert.Equal(t, int64(2), atomic.LoadInt64(&metrics.CacheHits))
	assert.Equal(t, int64(1), atomic.LoadInt64(&metrics.CacheMisses))
}

func TestMiddlewareSkipsNonAPIRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c := NewCache(time.Minute)
	metrics := monitoring.NewMetrics()

	router := gin.New()
	router.Use(c.Middleware(metrics))
	router.GET("/metrics", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, 0, c.Size())
	assert.Equal(t, int64(0), atomic.LoadInt64(&metrics.CacheMisses))
}

func TestMiddlewareDoesNotCacheErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c := NewCache(time.Minute)
	metrics := monitoring.NewMetrics()

	router := gin.New()
	router.Use(c.Middleware(metrics))
	router.POST("/api/v1/risk-scoring", func(ctx *gin.Context) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "bad"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/risk-scoring", bytes.NewReader([]byte(`{}`)))
	router.ServeHTTP(w, req)

	assert.Equal(t, 0, c.Size())
}
