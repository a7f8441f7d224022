package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/dealer-ledger/internal/models"
	"github.com/sjperalta/dealer-ledger/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := new(bytes.Buffer)
	previous := logger.Log
	logger.Log = slog.New(slog.NewJSONHandler(buf, nil))
	t.Cleanup(func() { logger.Log = previous })
	return buf
}

func TestRequestLogger(t *testing.T) {
	buf := captureLog(t)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), RequestLogger())
	r.GET("/api/v1/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/v1/ledger/:entry_id", Auth(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "missing"})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Empty(t, buf.String())

	req = httptest.NewRequest(http.MethodGet, "/api/v1/ledger/7?x=1", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, models.RoleSales, time.Now().Add(time.Hour)))
	req.Header.Set(RequestIDHeader, "req-1")
	r.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "/api/v1/ledger/:entry_id", line["route"])
	assert.Equal(t, "/api/v1/ledger/7?x=1", line["path"])
	assert.Equal(t, float64(http.StatusNotFound), line["status"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "carla", line["user"])
	assert.Equal(t, models.RoleSales, line["role"])
}
