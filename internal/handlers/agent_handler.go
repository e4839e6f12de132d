package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"agenthub-system/config"
	"agenthub-system/internal/database/models"
	"agenthub-system/internal/middleware"
)

// BlobStore is the slice of the profile-picture store the handler needs.
type BlobStore interface {
	Upload(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) (string, error)
}

type AgentHandler struct {
	db      *gorm.DB
	redis   *redis.Client
	store   BlobStore
	payout  config.PayoutConfig
	storage config.StorageConfig
}

func NewAgentHandler(db *gorm.DB, redisClient *redis.Client, store BlobStore, payout config.PayoutConfig, storage config.StorageConfig) *AgentHandler {
	return &AgentHandler{
		db:      db,
		redis:   redisClient,
		store:   store,
		payout:  payout,
		storage: storage,
	}
}

func (h *AgentHandler) GetProfile(c *gin.Context) {
	agent := middleware.AgentFromContext(c)
	c.JSON(http.StatusOK, agent)
}

type UpdateProfileRequest struct {
	Name           *string `json:"name,omitempty"`
	AboutMe        *string `json:"about_me,omitempty"`
	Province       *string `json:"province,omitempty"`
	Town           *string `json:"town,omitempty"`
	Address        *string `json:"address,omitempty"`
	ContactDetails *string `json:"contact_details,omitempty"`
}

func (h *AgentHandler) UpdateProfile(c *gin.Context) {
	agent := middleware.AgentFromContext(c)

	targetID, err := strconv.ParseInt(c.Param("agentId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid agent ID"))
		return
	}
	if targetID != agent.ID {
		c.JSON(http.StatusForbidden, errorResponse("You can only update your own profile"))
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.AboutMe != nil {
		updates["about_me"] = *req.AboutMe
	}
	if req.Province != nil {
		updates["province"] = *req.Province
	}
	if req.Town != nil {
		updates["town"] = *req.Town
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.ContactDetails != nil {
		updates["contact_details"] = *req.ContactDetails
	}

	if len(updates) > 0 {
		if err := h.db.Model(&models.Agent{}).Where("id = ?", agent.ID).Updates(updates).Error; err != nil {
			zap.L().Error("failed to update profile", zap.Error(err), zap.Int64("agent_id", agent.ID))
			c.JSON(http.StatusInternalServerError, errorResponse("Failed to update profile"))
			return
		}
	}

	var updated models.Agent
	if err := h.db.First(&updated, agent.ID).Error; err != nil {
		zap.L().Error("failed to reload profile", zap.Error(err), zap.Int64("agent_id", agent.ID))
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to update profile"))
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *AgentHandler) UploadProfilePicture(c *gin.Context) {
	agent := middleware.AgentFromContext(c)

	file, err := c.FormFile("profileImage")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("No file uploaded"))
		return
	}

	maxBytes := h.storage.MaxUploadMB * 1024 * 1024
	if maxBytes > 0 && file.Size > maxBytes {
		c.JSON(http.StatusBadRequest, errorResponse(fmt.Sprintf("File exceeds the %dMB limit", h.storage.MaxUploadMB)))
		return
	}

	src, err := file.Open()
	if err != nil {
		zap.L().Error("failed to open upload", zap.Error(err), zap.Int64("agent_id", agent.ID))
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to upload profile picture"))
		return
	}
	defer src.Close()

	objectName := fmt.Sprintf("public/%d-%d", agent.ID, time.Now().Unix())
	photoURL, err := h.store.Upload(c.Request.Context(), objectName, src, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		zap.L().Error("failed to store profile picture", zap.Error(err), zap.Int64("agent_id", agent.ID))
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to upload profile picture"))
		return
	}

	if err := h.db.Model(&models.Agent{}).Where("id = ?", agent.ID).Update("photo_url", photoURL).Error; err != nil {
		zap.L().Error("failed to save photo url", zap.Error(err), zap.Int64("agent_id", agent.ID))
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to upload profile picture"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "photo_url": photoURL})
}

type AgentSalesSummary struct {
	Period         string `json:"period"`
	PendingSales   int64  `json:"pending_sales"`
	ConfirmedSales int64  `json:"confirmed_sales"`
	AmountEarned   string `json:"amount_earned"`
}

// GetAgentSales reports the month-to-date unit totals for an agent.
// Rejected and payout_pending sales are excluded from both buckets.
func (h *AgentHandler) GetAgentSales(c *gin.Context) {
	agentID, err := strconv.ParseInt(c.Param("agentId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid agent ID"))
		return
	}

	ctx := c.Request.Context()
	cacheKey := agentSummaryCacheKey(agentID, time.Now())
	if val, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
		var cached AgentSalesSummary
		if err := json.Unmarshal([]byte(val), &cached); err == nil {
			c.JSON(http.StatusOK, cached)
			return
		}
	} else if err != redis.Nil {
		zap.L().Warn("summary cache read failed", zap.Error(err))
	}

	var sales []models.Sale
	if err := h.db.Select("status, sale_count").Where("agent_id = ?", agentID).Find(&sales).Error; err != nil {
		zap.L().Error("failed to fetch agent sales", zap.Error(err), zap.Int64("agent_id", agentID))
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to fetch agent sales"))
		return
	}

	summary := BuildSalesSummaryReport(sales, h.payout, time.Now())

	if jsonData, err := json.Marshal(summary); err == nil {
		if err := h.redis.Set(ctx, cacheKey, jsonData, summaryCacheTTL).Err(); err != nil {
			zap.L().Warn("summary cache write failed", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, summary)
}

// BuildSalesSummaryReport folds sales rows into the monthly summary.
func BuildSalesSummaryReport(sales []models.Sale, payout config.PayoutConfig, now time.Time) AgentSalesSummary {
	var pending, confirmed int64
	for _, s := range sales {
		switch s.Status {
		case models.SaleStatusPending:
			pending += s.SaleCount
		case models.SaleStatusConfirmed:
			confirmed += s.SaleCount
		}
	}

	rate := RewardRate(confirmed, payout)
	return AgentSalesSummary{
		Period:         now.Format("January 2006"),
		PendingSales:   pending,
		ConfirmedSales: confirmed,
		AmountEarned:   "R" + PayoutAmount(confirmed, rate),
	}
}

type TopPerformer struct {
	AgentID    int64  `json:"agent_id"`
	Name       string `json:"name"`
	AgentCode  string `json:"agent_code"`
	PhotoURL   string `json:"photo_url"`
	TotalUnits int64  `json:"total_units"`
}

// TopPerformers ranks agents by units that made it past admin review
// (confirmed or already bundled into a payout). The original backend got
// this from a precomputed stored procedure; here it is one aggregate
// query behind a short redis cache.
func (h *AgentHandler) TopPerformers(c *gin.Context) {
	ctx := c.Request.Context()

	if val, err := h.redis.Get(ctx, topPerformersCacheKey).Result(); err == nil {
		var cached []TopPerformer
		if err := json.Unmarshal([]byte(val), &cached); err == nil {
			c.JSON(http.StatusOK, cached)
			return
		}
	} else if err != redis.Nil {
		zap.L().Warn("leaderboard cache read failed", zap.Error(err))
	}

	var performers []TopPerformer
	err := h.db.Model(&models.Sale{}).
		Select("sales.agent_id, agents.name, agents.agent_code, agents.photo_url, SUM(sales.sale_count) as total_units").
		Joins("JOIN agents ON agents.id = sales.agent_id").
		Where("sales.status IN ?", []string{models.SaleStatusConfirmed, models.SaleStatusPayoutPending}).
		Group("sales.agent_id, agents.name, agents.agent_code, agents.photo_url").
		Order("total_units desc").
		Limit(10).
		Scan(&performers).Error
	if err != nil {
		zap.L().Error("failed to fetch top performers", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to fetch top performers"))
		return
	}

	if performers == nil {
		performers = []TopPerformer{}
	}

	if jsonData, err := json.Marshal(performers); err == nil {
		if err := h.redis.Set(ctx, topPerformersCacheKey, jsonData, leaderboardCacheTTL).Err(); err != nil {
			zap.L().Warn("leaderboard cache write failed", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, performers)
}
