package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func withRequestID(id string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextRequestIDKey, id)
		c.Set(ContextLoggerKey, logger.With(zap.String("request_id", id)))
		c.Next()
	}
}

func TestErrorHandler_RecoversWithRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)

	r := gin.New()
	r.Use(ErrorHandler(), withRequestID("req-1", zap.New(core)))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Internal Server Error", body.Message)
	assert.Equal(t, "req-1", body.RequestID)

	entries := logs.FilterMessage("Unhandled panic").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-1", entries[0].ContextMap()["request_id"])
}

func TestJSONError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)

	r := gin.New()
	r.GET("/tagged", withRequestID("req-2", zap.New(core)), func(c *gin.Context) {
		JSONError(c, http.StatusBadRequest, "Invalid user ID", "abc")
	})
	r.GET("/plain", func(c *gin.Context) {
		JSONError(c, http.StatusBadRequest, "Invalid user ID", "abc")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tagged", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Invalid user ID","details":"abc","request_id":"req-2"}`, w.Body.String())
	assert.Equal(t, 1, logs.FilterMessage("Invalid user ID").Len())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plain", nil))
	assert.JSONEq(t, `{"message":"Invalid user ID","details":"abc"}`, w.Body.String())
}
