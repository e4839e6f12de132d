package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"agenthub-system/internal/database/models"
	"agenthub-system/internal/middleware"
)

type SalesHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewSalesHandler(db *gorm.DB, redisClient *redis.Client) *SalesHandler {
	return &SalesHandler{db: db, redis: redisClient}
}

// LogSaleRequest takes saleCount as a raw JSON value because the frontend
// historically sent it as either a number or a numeric string.
type LogSaleRequest struct {
	SaleCount interface{} `json:"saleCount"`
	SaleNames string      `json:"saleNames"`
}

func parseSaleCount(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int64(n), true
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func (h *SalesHandler) LogSale(c *gin.Context) {
	agent := middleware.AgentFromContext(c)

	var req LogSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Valid saleCount (> 0) and saleNames are required"))
		return
	}

	count, ok := parseSaleCount(req.SaleCount)
	if !ok || count <= 0 || strings.TrimSpace(req.SaleNames) == "" {
		c.JSON(http.StatusBadRequest, errorResponse("Valid saleCount (> 0) and saleNames are required"))
		return
	}

	sale := models.Sale{
		AgentID:   agent.ID,
		SaleCount: count,
		SaleNames: req.SaleNames,
		Status:    models.SaleStatusPending,
	}
	if err := h.db.Create(&sale).Error; err != nil {
		zap.L().Error("failed to log sale", zap.Error(err), zap.Int64("agent_id", agent.ID))
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to log sale"))
		return
	}

	invalidateSalesCaches(c.Request.Context(), h.redis, agent.ID)

	c.JSON(http.StatusCreated, successResponse("Sale logged successfully!", sale))
}
