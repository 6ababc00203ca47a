package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"servicehub/handlers"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func ok(name string) gin.HandlerFunc {
	return func(c *gin.Context) { c.String(http.StatusOK, name) }
}

func TestRegisterRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, &handlers.HandlerBundle{
		GetRecommendationsHandler: func(c *gin.Context) { c.String(http.StatusOK, "recs:"+c.Param("userID")) },
		GetModelInfoHandler:       ok("model"),
		HealthHandler:             ok("health"),
		MetricsHandler:            ok("metrics"),
	}, 2, zap.NewNop())

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	assert.Equal(t, "model", get("/api/recommendations/model").Body.String())
	assert.Equal(t, "recs:12", get("/api/recommendations/12").Body.String())
	assert.Equal(t, http.StatusTooManyRequests, get("/api/recommendations/12").Code)

	// Health and metrics are not rate limited.
	for i := 0; i < 5; i++ {
		assert.Equal(t, "health", get("/health").Body.String())
	}
	w := get("/metrics")
	assert.Equal(t, "metrics", w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
