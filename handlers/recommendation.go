// File: servicehub/handlers/recommendation.go
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"servicehub/models"
	"servicehub/services/ranking"
	"servicehub/services/recommendation"
	"servicehub/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecommendationHandler serves ranked worker lists.
type RecommendationHandler struct {
	Service  recommendation.RecommendationService
	Manifest *ranking.Manifest // nil when no learned artifact is loaded
	Logger   *zap.Logger
}

// NewRecommendationHandler wires the handler. manifest may be nil.
func NewRecommendationHandler(svc recommendation.RecommendationService, manifest *ranking.Manifest, logger *zap.Logger) *RecommendationHandler {
	return &RecommendationHandler{Service: svc, Manifest: manifest, Logger: logger}
}

// ModelInfo describes the active ranker.
type ModelInfo struct {
	Ranker        string             `json:"ranker"`
	Version       string             `json:"version,omitempty"`
	SchemaVersion int                `json:"schema_version,omitempty"`
	Columns       []string           `json:"columns,omitempty"`
	BestIteration int                `json:"best_iteration,omitempty"`
	ValidNDCG     map[string]float64 `json:"valid_ndcg,omitempty"`
	TrainedAt     *time.Time         `json:"trained_at,omitempty"`
}

// GetRecommendationsHandler handles GET /api/recommendations/:userID?top_n=.
func (h *RecommendationHandler) GetRecommendationsHandler(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userID"), 10, 64)
	if err != nil || userID <= 0 {
		utils.JSONError(c, http.StatusBadRequest, "Invalid user ID", c.Param("userID"))
		return
	}

	topN := 0
	if raw := c.Query("top_n"); raw != "" {
		topN, err = strconv.Atoi(raw)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid top_n", raw)
			return
		}
	}

	logger := getLogger(c, h.Logger)
	ctx := c.Request.Context()
	recs, err := h.Service.Recommend(ctx, userID, topN)
	if err != nil {
		logger.Error("Failed to compute recommendations", zap.Int64("user_id", userID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to compute recommendations", err.Error())
		return
	}

	resp := models.RecommendationResponse{
		UserID:          userID,
		Ranker:          h.Service.RankerName(),
		Recommendations: recs,
	}
	if repeat, err := h.Service.RepeatWorker(ctx, userID); err != nil {
		logger.Warn("Repeat-worker lookup failed", zap.Int64("user_id", userID), zap.Error(err))
	} else {
		resp.RepeatWorkerID = repeat
	}
	c.JSON(http.StatusOK, resp)
}

// GetModelInfoHandler handles GET /api/recommendations/model.
func (h *RecommendationHandler) GetModelInfoHandler(c *gin.Context) {
	info := ModelInfo{Ranker: h.Service.RankerName()}
	if m := h.Manifest; m != nil {
		trainedAt := m.TrainedAt
		info.Version = m.Version
		info.SchemaVersion = m.SchemaVersion
		info.Columns = m.Columns
		info.BestIteration = m.BestIteration
		info.ValidNDCG = m.ValidNDCG
		info.TrainedAt = &trainedAt
	}
	c.JSON(http.StatusOK, info)
}
