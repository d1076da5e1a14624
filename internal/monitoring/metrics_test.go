package monitoring

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()

	m.IncrementRequest()
	m.IncrementRequest()
	m.IncrementError()
	m.RecordInference("signal_quality")
	m.RecordInference("signal_quality")
	m.RecordInference("risk_scoring")
	m.RecordRequestByStatus(200)
	m.RecordRequestByStatus(200)
	m.RecordRequestByStatus(400)

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats["total_requests"])
	assert.Equal(t, int64(1), stats["error_count"])
	assert.InDelta(t, 50.0, stats["error_rate_percent"].(float64), 1e-9)

	inference := m.GetInferenceStats()
	assert.Equal(t, int64(2), inference["signal_quality"])
	assert.Equal(t, int64(1), inference["risk_scoring"])

	distribution := m.GetStatusCodeDistribution()
	assert.Equal(t, int64(2), distribution[200])
	assert.Equal(t, int64(1), distribution[400])
}

func TestPercentileResponseTime(t *testing.T) {
	m := NewMetrics()

	assert.Equal(t, time.Duration(0), m.GetPercentileResponseTime(95))

	for i := 1; i <= 100; i++ {
		m.RecordResponseTime(time.Duration(i) * time.Millisecond)
	}

	p50 := m.GetPercentileResponseTime(50)
	p99 := m.GetPercentileResponseTime(99)
	assert.True(t, p50 <= p99)
	assert.True(t, p99 <= 100*time.Millisecond)
}

func TestResponseTimeWindowBounded(t *testing.T) {
	m := NewMetrics()

	for i := 0; i < 1500; i++ {
		m.RecordResponseTime(time.Millisecond)
	}

	m.ResponseTimesMutex.RLock()
	defer m.ResponseTimesMutex.RUnlock()
	assert.LessOrEqual(t, len(m.ResponseTimes), 1000)
}

func TestMonitoringMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m := NewMetrics()
	logger := NewLogger(slog.LevelError)

	router := gin.New()
	router.Use(MonitoringMiddleware(m, logger))
	router.GET("/ok", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/bad", func(c *gin.Context) {
		c.Status(http.StatusBadRequest)
	})

	for _, path := range []string{"/ok", "/ok", "/bad"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		router.ServeHTTP(w, req)
	}

	stats := m.GetStats()
	require.Equal(t, int64(3), stats["total_requests"])
	assert.Equal(t, int64(1), stats["error_count"])

	distribution := m.GetStatusCodeDistribution()
	assert.Equal(t, int64(2), distribution[http.StatusOK])
	assert.Equal(t, int64(1), distribution[http.StatusBadRequest])
}
